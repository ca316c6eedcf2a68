package tally

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veilpoll/veilpoll/log"
	"github.com/veilpoll/veilpoll/storage"
	"github.com/veilpoll/veilpoll/types"
)

// SubmitVote verifies and aggregates one encrypted ballot. The ballot is an
// opaque ciphertext; the input proof must bind it to this poll and this
// voter and is checked by the encryption subsystem before the ciphertext is
// admitted. The tally update is oblivious: for every option index the engine
// asks the subsystem for an encrypted equality bit, selects an encrypted one
// or zero with it and adds the selection into the option's counter. The
// engine never learns the choice and never branches on it.
//
// The updated counters, the vote record and the incremented vote count
// commit as one transaction; a rejected vote leaves every tally unchanged.
func (e *Engine) SubmitVote(pollID types.PollID, voter common.Address, ballot, inputProof types.HexBytes) error {
	lock := e.pollLock(pollID)
	lock.Lock()
	defer lock.Unlock()

	poll, err := e.Poll(pollID)
	if err != nil {
		return err
	}
	now := e.now()
	if !poll.Started(now) {
		return fmt.Errorf("%w: voting starts at %d", ErrVotingNotStarted, poll.StartTime)
	}
	if poll.Ended(now) {
		return fmt.Errorf("%w: voting ended at %d", ErrVotingFinished, poll.EndTime)
	}
	voted, err := e.store.HasVoted(pollID, voter)
	if err != nil {
		return err
	}
	if voted {
		return ErrAlreadyVoted
	}

	ballotHandle, err := e.coprocessor.ImportBallot(pollID, voter, ballot, inputProof)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBallot, err)
	}

	one, err := e.coprocessor.Constant(pollID, 1)
	if err != nil {
		return fmt.Errorf("encrypt increment: %w", err)
	}
	zero, err := e.coprocessor.Constant(pollID, 0)
	if err != nil {
		return fmt.Errorf("encrypt increment: %w", err)
	}
	counts := make([]types.HexBytes, len(poll.EncryptedCounts))
	for i, counter := range poll.EncryptedCounts {
		cond, err := e.coprocessor.Eq(pollID, ballotHandle, uint64(i))
		if err != nil {
			return fmt.Errorf("tally option %d: %w", i, err)
		}
		increment, err := e.coprocessor.Select(pollID, cond, one, zero)
		if err != nil {
			return fmt.Errorf("tally option %d: %w", i, err)
		}
		if counts[i], err = e.coprocessor.Add(pollID, counter, increment); err != nil {
			return fmt.Errorf("tally option %d: %w", i, err)
		}
	}

	poll.EncryptedCounts = counts
	poll.VoteCount++
	if err := e.store.CommitVote(poll, voter); err != nil {
		if errors.Is(err, storage.ErrVoteExists) {
			return ErrAlreadyVoted
		}
		return err
	}
	// the participation tree is a derived index, rebuildable from the vote
	// records; a failed update does not fail the vote
	if err := e.store.AddParticipant(pollID, voter); err != nil {
		log.Warnw("failed to update participation tree",
			"pollId", pollID.String(), "voter", voter.Hex(), "error", err.Error())
	}

	log.Infow("vote cast", "pollId", pollID.String(), "voter", voter.Hex(), "votes", poll.VoteCount)
	e.publish(Event{Type: EventVoteCast, PollID: pollID, Voter: voter})
	return nil
}
