package equipment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	boltBucket = []byte("equipment")
	boltKey    = []byte("document")
)

type boltBackend struct {
	db *bolt.DB
}

// NewBoltStore keeps the document as a single record in a bbolt database
func NewBoltStore(path string) (*DocumentStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(boltBucket)
		if err != nil {
			return err
		}
		if b.Get(boltKey) == nil {
			return b.Put(boltKey, seedDocument)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing bucket: %w", err)
	}

	return newDocumentStore(&boltBackend{db: db}), nil
}

func (b *boltBackend) name() string { return "bolt" }

func (b *boltBackend) read(ctx context.Context) ([]byte, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		if bucket == nil {
			return errors.New("equipment bucket missing")
		}
		v := bucket.Get(boltKey)
		if v == nil {
			return errors.New("equipment document missing")
		}
		// v is only valid inside the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

func (b *boltBackend) write(ctx context.Context, data []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(boltBucket)
		if err != nil {
			return err
		}
		return bucket.Put(boltKey, data)
	})
}

func (b *boltBackend) close() error { return b.db.Close() }
