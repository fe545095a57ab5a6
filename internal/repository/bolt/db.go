package bolt

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var (
	bucketUsers      = []byte("users")
	bucketUserEmails = []byte("user_emails")
	bucketTodos      = []byte("todos")
)

// Open opens (or creates) a bbolt database at the given path and ensures directories exist.
func Open(path string) (*bbolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	return db, nil
}

// Snapshot writes a consistent copy of the database to w from within a
// read transaction.
func Snapshot(ctx context.Context, db *bbolt.DB, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return db.View(func(tx *bbolt.Tx) error {
		if _, err := tx.WriteTo(w); err != nil {
			return fmt.Errorf("write bolt snapshot: %w", err)
		}
		return nil
	})
}

// itob encodes an id as a big-endian key so bucket order follows id order.
func itob(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}
