package tally

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veilpoll/veilpoll/log"
	"github.com/veilpoll/veilpoll/storage"
	"github.com/veilpoll/veilpoll/types"
)

// CreatePoll validates and registers a new poll. The encryption subsystem
// mints the poll key pair and one encrypted-zero counter per option before
// the record commits. Poll ids are sequential from zero; two concurrent
// creations never share an id.
func (e *Engine) CreatePoll(title, description string, options []string,
	startTime, endTime int64, creator common.Address,
) (*types.Poll, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	if len(options) < types.MinPollOptions || len(options) > types.MaxPollOptions {
		return nil, fmt.Errorf("%w: got %d, want %d to %d options",
			ErrInvalidOptionCount, len(options), types.MinPollOptions, types.MaxPollOptions)
	}
	for i, option := range options {
		if strings.TrimSpace(option) == "" {
			return nil, fmt.Errorf("%w: option %d", ErrEmptyOption, i)
		}
	}
	if endTime <= startTime || endTime <= e.now() {
		return nil, fmt.Errorf("%w: start %d, end %d", ErrInvalidSchedule, startTime, endTime)
	}

	e.createLock.Lock()
	defer e.createLock.Unlock()

	count, err := e.store.PollCount()
	if err != nil {
		return nil, err
	}
	pollID := types.PollID(count)
	handles, err := e.coprocessor.InitCounters(pollID, len(options))
	if err != nil {
		return nil, fmt.Errorf("init counters: %w", err)
	}
	poll := &types.Poll{
		Title:           title,
		Description:     description,
		Options:         options,
		StartTime:       startTime,
		EndTime:         endTime,
		Creator:         creator,
		EncryptedCounts: handles,
	}
	id, err := e.store.CreatePoll(poll)
	if err != nil {
		return nil, err
	}
	if id != pollID {
		return nil, fmt.Errorf("allocated poll id %d, reserved %d", id, pollID)
	}

	log.Infow("poll created", "pollId", id.String(), "creator", creator.Hex(),
		"options", len(options), "start", startTime, "end", endTime)
	e.publish(Event{Type: EventPollCreated, PollID: id, Creator: creator})
	return poll, nil
}

// Poll returns the poll record, ErrPollNotFound for ids never allocated.
func (e *Engine) Poll(id types.PollID) (*types.Poll, error) {
	poll, err := e.store.Poll(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPollNotFound, id)
		}
		return nil, err
	}
	return poll, nil
}

// PollCount returns the number of created polls.
func (e *Engine) PollCount() (uint64, error) {
	return e.store.PollCount()
}

// ListPolls returns the ids of all created polls in ascending order.
func (e *Engine) ListPolls() ([]types.PollID, error) {
	return e.store.ListPolls()
}

// PollKey returns the poll's public encryption key, used by voters to
// encrypt their ballots.
func (e *Engine) PollKey(id types.PollID) (*types.EncryptionKey, error) {
	if _, err := e.Poll(id); err != nil {
		return nil, err
	}
	return e.coprocessor.PublicKey(id)
}
