package pebblestore

import (
	"errors"

	"github.com/cockroachdb/pebble"
)

// Options configures the Pebble store wrapper.
type Options struct {
	// DataDir is the path to the Pebble database directory.
	DataDir string
	// NoSync skips WAL fsync on writes. Log history is a cache of what the
	// producer already accepted, so trading durability for ingest throughput
	// is acceptable when set.
	NoSync bool
}

// DB wraps a Pebble database instance.
type DB struct {
	inner     *pebble.DB
	writeOpts *pebble.WriteOptions
}

// Open creates or opens a Pebble database with the provided options.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebble: Options.DataDir is required")
	}
	inner, err := pebble.Open(opts.DataDir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	wo := pebble.Sync
	if opts.NoSync {
		wo = pebble.NoSync
	}
	return &DB{inner: inner, writeOpts: wo}, nil
}

// Close closes the Pebble database.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	return db.inner.Close()
}

// Set writes a single key.
func (db *DB) Set(key, value []byte) error {
	return db.inner.Set(key, value, db.writeOpts)
}

// Delete removes a key.
func (db *DB) Delete(key []byte) error {
	return db.inner.Delete(key, db.writeOpts)
}

// Get copies the value for the given key. Returns pebble.ErrNotFound when
// the key does not exist.
func (db *DB) Get(key []byte) ([]byte, error) {
	val, closer, err := db.inner.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), val...), nil
}

// NewBatch creates a batch for atomic multi-key updates.
func (db *DB) NewBatch() *pebble.Batch {
	return db.inner.NewBatch()
}

// CommitBatch commits the batch with the configured sync policy.
func (db *DB) CommitBatch(b *pebble.Batch) error {
	if b == nil {
		return errors.New("pebble: nil batch")
	}
	return b.Commit(db.writeOpts)
}

// NewIter creates a raw Pebble iterator with the provided options.
func (db *DB) NewIter(opts *pebble.IterOptions) (*pebble.Iterator, error) {
	return db.inner.NewIter(opts)
}
