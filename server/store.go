package server

import (
	"fmt"

	"github.com/kselvad/scoregrid/logger"

	bolt "go.etcd.io/bbolt"
)

// SnapshotStore persists the authoritative board state between runs.
type SnapshotStore interface {
	// Save atomically replaces the persisted snapshot.
	Save(data []byte) error

	// Load returns the persisted snapshot, or nil when none exists.
	Load() ([]byte, error)

	// Close releases the underlying storage.
	Close() error
}

// boltSnapshotStore keeps the snapshot in a single-key bbolt bucket.
type boltSnapshotStore struct {
	db     *bolt.DB
	logger logger.Logger
}

// openBoltSnapshotStore opens (creating if needed) the snapshot database
// at path. The open timeout guards against a stale flock from a crashed
// process on the same file.
func openBoltSnapshotStore(path string, log logger.Logger) (SnapshotStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: snapshotOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open snapshot db %q: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init snapshot bucket: %w", err)
	}
	return &boltSnapshotStore{db: db, logger: log.WithComponent("store")}, nil
}

func (s *boltSnapshotStore) Save(data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(snapshotBucket)).Put([]byte(snapshotKey), data)
	})
}

func (s *boltSnapshotStore) Load() ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(snapshotBucket)).Get([]byte(snapshotKey))
		if v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *boltSnapshotStore) Close() error {
	return s.db.Close()
}

// noopSnapshotStore is used when persistence is disabled.
type noopSnapshotStore struct{}

func (noopSnapshotStore) Save([]byte) error     { return nil }
func (noopSnapshotStore) Load() ([]byte, error) { return nil, nil }
func (noopSnapshotStore) Close() error          { return nil }
