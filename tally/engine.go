// Package tally implements the confidential poll state machine. It registers
// polls, aggregates votes homomorphically through opaque ciphertext handles,
// gates finalization on the voting window and publishes externally decrypted
// results after verifying their decryption proof. The package never sees a
// plaintext ballot: every per-vote operation runs inside the encryption
// subsystem (crypto/homomorphic) and the engine only moves handles around.
//
// Every poll walks an irreversible path: created, active between StartTime
// and EndTime, closed, finalized, results published. Mutations of one poll
// are serialized with a per-poll mutex and committed as single storage
// transactions; operations on different polls run in parallel.
package tally

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/veilpoll/veilpoll/crypto/homomorphic"
	"github.com/veilpoll/veilpoll/storage"
	"github.com/veilpoll/veilpoll/types"
)

// Engine is the poll tally core. All exported methods are safe for
// concurrent use.
type Engine struct {
	store       *storage.Storage
	coprocessor homomorphic.Coprocessor
	clock       clockwork.Clock

	createLock sync.Mutex
	locksMu    sync.Mutex
	locks      map[types.PollID]*sync.Mutex

	subsMu      sync.RWMutex
	subscribers map[uuid.UUID]chan Event
}

// New creates an Engine over the given storage and encryption subsystem,
// using the wall clock for window guards.
func New(store *storage.Storage, coprocessor homomorphic.Coprocessor) *Engine {
	return NewWithClock(store, coprocessor, clockwork.NewRealClock())
}

// NewWithClock creates an Engine with an injected clock. Tests use a fake
// clock since the voting window guards are exact.
func NewWithClock(store *storage.Storage, coprocessor homomorphic.Coprocessor, clock clockwork.Clock) *Engine {
	return &Engine{
		store:       store,
		coprocessor: coprocessor,
		clock:       clock,
		locks:       map[types.PollID]*sync.Mutex{},
		subscribers: map[uuid.UUID]chan Event{},
	}
}

// now returns the engine's current Unix time.
func (e *Engine) now() int64 {
	return e.clock.Now().Unix()
}

// pollLock returns the mutex serializing mutations of the given poll.
func (e *Engine) pollLock(id types.PollID) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	lock, ok := e.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[id] = lock
	}
	return lock
}
