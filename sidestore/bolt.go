package sidestore

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/casualjim/parley/pkg/slogx"
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("sessions")

// Bolt persists entries in a single bucket of a bbolt database.
type Bolt struct {
	db     *bolt.DB
	logger *slog.Logger
}

// OpenBolt opens (creating if needed) the database at path.
func OpenBolt(path string, logger *slog.Logger) (*Bolt, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Bolt{db: db, logger: logger}, nil
}

func (b *Bolt) Get(key string) (string, bool) {
	var (
		value string
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		if bkt == nil {
			return nil
		}
		// bytes returned by Get are only valid inside the transaction
		if v := bkt.Get([]byte(key)); v != nil {
			value, found = string(v), true
		}
		return nil
	})
	if err != nil {
		b.logger.Warn("side-store get failed", slog.String("key", key), slogx.Error(err))
		return "", false
	}
	return value, found
}

func (b *Bolt) Set(key, value string) {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		if bkt == nil {
			return errors.New("bucket missing")
		}
		return bkt.Put([]byte(key), []byte(value))
	})
	if err != nil {
		b.logger.Warn("side-store set failed", slog.String("key", key), slogx.Error(err))
	}
}

func (b *Bolt) Remove(key string) {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		if bkt == nil {
			return nil
		}
		return bkt.Delete([]byte(key))
	})
	if err != nil {
		b.logger.Warn("side-store remove failed", slog.String("key", key), slogx.Error(err))
	}
}

// Close closes the database. Later calls log and do nothing.
func (b *Bolt) Close() error {
	return b.db.Close()
}
