package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/veilpoll/veilpoll/types"
)

// CreatePoll allocates the next sequential poll id, assigns it to the record
// and commits both the record and the advanced counter in one transaction.
// Ids start at 0 and never repeat; two concurrent creates cannot share one.
func (s *Storage) CreatePoll(poll *types.Poll) (types.PollID, error) {
	if poll == nil {
		return 0, fmt.Errorf("nil poll record")
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	wTx := s.db.WriteTx()
	defer wTx.Discard()

	metaTx := prefixeddb.NewPrefixedWriteTx(wTx, metaPrefix)
	next := uint64(0)
	switch count, err := metaTx.Get(pollCountKey); {
	case err == nil:
		next = binary.BigEndian.Uint64(count)
	case errors.Is(err, db.ErrKeyNotFound):
	default:
		return 0, fmt.Errorf("read poll counter: %w", err)
	}

	poll.ID = types.PollID(next)
	data, err := encodeArtifact(poll)
	if err != nil {
		return 0, fmt.Errorf("encode poll: %w", err)
	}
	pollTx := prefixeddb.NewPrefixedWriteTx(wTx, pollPrefix)
	if err := pollTx.Set(poll.ID.Bytes(), data); err != nil {
		return 0, err
	}

	count := make([]byte, 8)
	binary.BigEndian.PutUint64(count, next+1)
	if err := metaTx.Set(pollCountKey, count); err != nil {
		return 0, err
	}
	if err := wTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit poll: %w", err)
	}
	return poll.ID, nil
}

// Poll retrieves a poll record from the storage.
// It returns ErrNotFound if the id was never allocated.
func (s *Storage) Poll(id types.PollID) (*types.Poll, error) {
	poll := &types.Poll{}
	if err := s.getArtifact(pollPrefix, id.Bytes(), poll); err != nil {
		return nil, err
	}
	return poll, nil
}

// SetPoll overwrites an existing poll record in its own transaction.
func (s *Storage) SetPoll(poll *types.Poll) error {
	if poll == nil {
		return fmt.Errorf("nil poll record")
	}
	return s.setArtifact(pollPrefix, poll.ID.Bytes(), poll)
}

// PollCount returns the number of polls created so far.
func (s *Storage) PollCount() (uint64, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, metaPrefix)
	count, err := rd.Get(pollCountKey)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return binary.BigEndian.Uint64(count), nil
}

// ListPolls returns the ids of the stored polls in ascending order.
func (s *Storage) ListPolls() ([]types.PollID, error) {
	keys, err := s.listArtifactKeys(pollPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]types.PollID, 0, len(keys))
	for _, key := range keys {
		id, err := types.PollIDFromBytes(key)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
