package storage

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/veilpoll/veilpoll/types"
)

// voteKey builds the vote index key for a poll and voter pair.
func voteKey(id types.PollID, voter common.Address) []byte {
	return append(id.Bytes(), voter.Bytes()...)
}

// HasVoted reports whether a vote record exists for the poll and voter.
// Unknown polls simply have no records, so the check never errors on them.
func (s *Storage) HasVoted(id types.PollID, voter common.Address) (bool, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, voteRecordPrefix)
	if _, err := rd.Get(voteKey(id, voter)); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CommitVote stores the updated poll record and the voter's vote record in a
// single transaction. The vote record write is a check-and-set: if a record
// for the pair already exists the whole transaction fails with ErrVoteExists
// and the poll record is left untouched.
func (s *Storage) CommitVote(poll *types.Poll, voter common.Address) error {
	if poll == nil {
		return fmt.Errorf("nil poll record")
	}
	wTx := s.db.WriteTx()
	defer wTx.Discard()

	voteTx := prefixeddb.NewPrefixedWriteTx(wTx, voteRecordPrefix)
	key := voteKey(poll.ID, voter)
	switch _, err := voteTx.Get(key); {
	case err == nil:
		return ErrVoteExists
	case errors.Is(err, db.ErrKeyNotFound):
	default:
		return fmt.Errorf("read vote record: %w", err)
	}
	if err := voteTx.Set(key, []byte{1}); err != nil {
		return err
	}

	data, err := encodeArtifact(poll)
	if err != nil {
		return fmt.Errorf("encode poll: %w", err)
	}
	pollTx := prefixeddb.NewPrefixedWriteTx(wTx, pollPrefix)
	if err := pollTx.Set(poll.ID.Bytes(), data); err != nil {
		return err
	}
	return wTx.Commit()
}

// Voters returns the addresses with a vote record for the poll, in index
// order. It is used to rebuild the participation tree.
func (s *Storage) Voters(id types.PollID) ([]common.Address, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, voteRecordPrefix)
	var voters []common.Address
	if err := rd.Iterate(id.Bytes(), func(k, _ []byte) bool {
		if len(k) != common.AddressLength {
			return true
		}
		voters = append(voters, common.BytesToAddress(k))
		return true
	}); err != nil {
		return nil, err
	}
	return voters, nil
}
