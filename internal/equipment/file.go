package equipment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type fileBackend struct {
	path string
}

// NewFileStore opens the JSON file at path, creating it with an empty tree if
// it does not exist.
func NewFileStore(path string) (*DocumentStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	fb := &fileBackend{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := fb.write(context.Background(), seedDocument); err != nil {
			return nil, fmt.Errorf("seeding %s: %w", path, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}

	return newDocumentStore(fb), nil
}

func (b *fileBackend) name() string { return "file" }

func (b *fileBackend) read(ctx context.Context) ([]byte, error) {
	return os.ReadFile(b.path)
}

// write goes through a temp file in the same directory and renames it over
// the target, so readers see either the old or the new content.
func (b *fileBackend) write(ctx context.Context, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(b.path), "."+filepath.Base(b.path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, b.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (b *fileBackend) close() error { return nil }
