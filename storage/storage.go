// Package storage persists the authoritative poll records, the vote index and
// the derived participation trees in a prefixed key-value store. The following
// prefixes are used:
//   - 'p/' for poll records, keyed by poll id
//   - 'vr/' for vote records, keyed by poll id and voter address
//   - 'pt/' for participation trees (one arbo tree per poll)
//   - 'meta/' for the poll id counter
//
// Poll records are encoded as deterministic CBOR artifacts. The vote record of
// a poll and voter is a bare key; its presence is the authoritative proof of
// participation, the participation tree is a derived index rebuilt from it.
package storage

import (
	"errors"
	"sync"

	"go.vocdoni.io/dvote/db"

	"github.com/veilpoll/veilpoll/types"
)

var (
	// Prefixes for the keys in the database.
	pollPrefix       = []byte("p/")
	voteRecordPrefix = []byte("vr/")
	treePrefix       = []byte("pt/")
	metaPrefix       = []byte("meta/")
)

// pollCountKey is the key of the poll id counter under metaPrefix.
var pollCountKey = []byte("pollCount")

var (
	// ErrNotFound is returned when the requested artifact does not exist.
	ErrNotFound = errors.New("not found")
	// ErrVoteExists is returned by CommitVote when a vote record for the
	// same poll and voter is already present.
	ErrVoteExists = errors.New("vote record already exists")
)

// Storage is the interface that wraps the basic methods to interact with the
// storage.
type Storage struct {
	db db.Database
	// globalLock serializes poll id allocation.
	globalLock sync.Mutex
	// treeLock protects the loaded participation trees map.
	treeLock sync.Mutex
	trees    map[types.PollID]*participationTree
}

// New creates a new Storage instance.
func New(db db.Database) *Storage {
	return &Storage{
		db:    db,
		trees: make(map[types.PollID]*participationTree),
	}
}

// Close closes the storage.
func (s *Storage) Close() {
	s.db.Close()
}
