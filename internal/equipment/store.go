package equipment

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Odenfis/sedimApp/internal/model"
)

// Store is the durable holder of the equipment document
type Store interface {
	// Load reads and parses the whole document
	Load(ctx context.Context) (*model.Document, error)
	// Replace overwrites the whole document. The last call wins.
	Replace(ctx context.Context, doc *model.Document) error
	// ReplaceIf overwrites the document only if its current version equals
	// version, and fails with *ConflictError otherwise.
	ReplaceIf(ctx context.Context, doc *model.Document, version string) error
}

// backend moves the encoded document to and from a medium. write must replace
// the previous content in one step.
type backend interface {
	read(ctx context.Context) ([]byte, error)
	write(ctx context.Context, data []byte) error
	close() error
	name() string
}

// DocumentStore implements Store on top of a file or a bbolt record
type DocumentStore struct {
	mu      sync.Mutex // serializes writers; readers never take it
	backend backend
}

func newDocumentStore(b backend) *DocumentStore {
	return &DocumentStore{backend: b}
}

// Backend returns the name of the medium in use
func (s *DocumentStore) Backend() string {
	return s.backend.name()
}

// Load reads and parses the persisted document
func (s *DocumentStore) Load(ctx context.Context) (*model.Document, error) {
	data, err := s.backend.read(ctx)
	if err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}
	return ParseDocument(data)
}

// Replace serializes doc and persists it as the new content
func (s *DocumentStore) Replace(ctx context.Context, doc *model.Document) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, data)
}

// ReplaceIf compares the current version with version and writes doc only on
// a match. The compare and the write happen under the writer lock.
func (s *DocumentStore) ReplaceIf(ctx context.Context, doc *model.Document, version string) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if actual := Version(current); actual != version {
		return &ConflictError{Expected: version, Actual: actual}
	}
	return s.write(ctx, data)
}

func (s *DocumentStore) write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	if err := s.backend.write(ctx, data); err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	return nil
}

// Snapshot writes the current document, indented, to w
func (s *DocumentStore) Snapshot(ctx context.Context, w io.Writer) error {
	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := writeIndented(w, doc); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Close releases the underlying medium
func (s *DocumentStore) Close() error {
	return s.backend.close()
}

// Open creates the store for the named backend ("file" or "bolt")
func Open(backendName, path string) (*DocumentStore, error) {
	switch backendName {
	case "file", "":
		return NewFileStore(path)
	case "bolt":
		return NewBoltStore(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backendName)
	}
}
