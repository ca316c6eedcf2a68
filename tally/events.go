package tally

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/veilpoll/veilpoll/log"
	"github.com/veilpoll/veilpoll/types"
)

// EventType identifies the kind of state transition an Event reports.
type EventType string

const (
	EventPollCreated      EventType = "pollCreated"
	EventVoteCast         EventType = "voteCast"
	EventPollFinalized    EventType = "pollFinalized"
	EventResultsPublished EventType = "resultsPublished"
)

// eventBufferSize is the per-subscriber channel capacity. A subscriber that
// falls further behind than this loses events.
const eventBufferSize = 32

// Event is a committed state transition. VoteCast carries only the poll and
// the voter, never the choice.
type Event struct {
	Type    EventType      `json:"type"`
	PollID  types.PollID   `json:"pollId"`
	Creator common.Address `json:"creator,omitempty"` // EventPollCreated
	Voter   common.Address `json:"voter,omitempty"`   // EventVoteCast
	Counts  []uint64       `json:"counts,omitempty"`  // EventResultsPublished
}

// Subscribe registers a new event subscriber and returns its id and channel.
// The channel is buffered; events that do not fit are dropped for that
// subscriber. The channel is closed on Unsubscribe.
func (e *Engine) Subscribe() (uuid.UUID, <-chan Event) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	id := uuid.New()
	ch := make(chan Event, eventBufferSize)
	e.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids are
// ignored.
func (e *Engine) Unsubscribe(id uuid.UUID) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	if ch, ok := e.subscribers[id]; ok {
		delete(e.subscribers, id)
		close(ch)
	}
}

// publish delivers the event to every subscriber without ever blocking the
// caller. Events are published after the transaction they report has
// committed.
func (e *Engine) publish(event Event) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for id, ch := range e.subscribers {
		select {
		case ch <- event:
		default:
			log.Warnw("slow event subscriber, dropping event",
				"subscriber", id.String(), "type", string(event.Type), "pollId", event.PollID.String())
		}
	}
}
