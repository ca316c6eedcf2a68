package tally

import (
	"fmt"

	"github.com/veilpoll/veilpoll/log"
	"github.com/veilpoll/veilpoll/types"
)

// FinalizePoll closes an ended poll: every counter handle is granted public
// decryptability in the encryption subsystem (a one-way grant, issued before
// the record commits), the participation root is sealed into the poll and
// Finalized flips true. Callable by any party once the voting window is
// over; exactly one caller succeeds.
func (e *Engine) FinalizePoll(pollID types.PollID) error {
	lock := e.pollLock(pollID)
	lock.Lock()
	defer lock.Unlock()

	poll, err := e.Poll(pollID)
	if err != nil {
		return err
	}
	if !poll.Ended(e.now()) {
		return fmt.Errorf("%w: voting ends at %d", ErrPollStillRunning, poll.EndTime)
	}
	if poll.Finalized {
		return ErrPollAlreadyFinalized
	}

	if err := e.coprocessor.AllowDecryption(pollID, poll.EncryptedCounts); err != nil {
		return fmt.Errorf("allow decryption: %w", err)
	}
	root, err := e.store.ParticipationRoot(pollID)
	if err != nil {
		return fmt.Errorf("participation root: %w", err)
	}

	poll.Finalized = true
	poll.ParticipationRoot = root
	if err := e.store.SetPoll(poll); err != nil {
		return err
	}

	log.Infow("poll finalized", "pollId", pollID.String(), "votes", poll.VoteCount,
		"participationRoot", poll.ParticipationRoot.String())
	e.publish(Event{Type: EventPollFinalized, PollID: pollID})
	return nil
}
