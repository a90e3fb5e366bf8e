// Package storage persists the artifacts of the ballot box in a key-value
// database. The following prefixes are used:
//   - 'p/' for proposals
//   - 'a/' for the per-candidate aggregates of a proposal
//   - 'r/' for vote receipts (proposal id + voter address)
//   - 'm/' for content addressed metadata blobs
//   - 't/' for the tally results of closed proposals
//
// Artifacts are encoded with deterministic CBOR.
package storage

import (
	"errors"
	"fmt"
	"sync"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/vocdoni/sealed-tally/log"
)

var (
	// Prefixes for the keys in the database.
	proposalPrefix  = []byte("p/")
	aggregatePrefix = []byte("a/")
	receiptPrefix   = []byte("r/")
	blobPrefix      = []byte("m/")
	tallyPrefix     = []byte("t/")
)

var (
	// ErrNotFound is returned when an artifact is not in the database.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating an artifact that exists.
	ErrAlreadyExists = errors.New("already exists")
)

// Storage wraps the database with the typed accessors of every artifact.
type Storage struct {
	db         db.Database
	globalLock sync.Mutex
	// maxBlobSize bounds the size of a metadata blob
	maxBlobSize int
}

// New creates a new Storage instance.
func New(db db.Database) *Storage {
	return &Storage{db: db, maxBlobSize: defaultMaxBlobSize}
}

// SetMaxBlobSize changes the maximum size accepted by SetBlob.
func (s *Storage) SetMaxBlobSize(size int) {
	s.maxBlobSize = size
}

// Close closes the storage.
func (s *Storage) Close() {
	if err := s.db.Close(); err != nil {
		log.Warnw("error closing storage", "error", err)
	}
}

// getArtifact decodes the artifact stored under prefix+key into out.
func (s *Storage) getArtifact(prefix, key []byte, out any) error {
	data, err := prefixeddb.NewPrefixedReader(s.db, prefix).Get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := decodeArtifact(data, out); err != nil {
		return fmt.Errorf("decode artifact: %w", err)
	}
	return nil
}

// setArtifact encodes and stores the artifact under prefix+key.
func (s *Storage) setArtifact(prefix, key []byte, artifact any) error {
	data, err := encodeArtifact(artifact)
	if err != nil {
		return err
	}
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), prefix)
	if err := wTx.Set(key, data); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}

// listArtifacts returns the keys stored under the prefix, without it.
func (s *Storage) listArtifacts(prefix []byte) ([][]byte, error) {
	var keys [][]byte
	if err := prefixeddb.NewPrefixedReader(s.db, prefix).Iterate(nil, func(k, _ []byte) bool {
		keys = append(keys, append([]byte(nil), k...))
		return true
	}); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return keys, nil
}
