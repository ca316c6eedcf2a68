package service

import (
	"fmt"
	"sync"

	"github.com/veilpoll/veilpoll/tally"
	"github.com/veilpoll/veilpoll/types"
)

// MockTally implements TallyService and homomorphic.DecryptionOracle in
// memory for worker tests. Polls flagged as running reject finalization
// until the flag is cleared.
type MockTally struct {
	mu      sync.Mutex
	polls   map[types.PollID]*types.Poll
	running map[types.PollID]bool
}

func NewMockTally() *MockTally {
	return &MockTally{
		polls:   map[types.PollID]*types.Poll{},
		running: map[types.PollID]bool{},
	}
}

// AddPoll registers a poll with one counter handle per option.
func (m *MockTally) AddPoll(id types.PollID, options int, running bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	handles := make([]types.HexBytes, options)
	for i := range handles {
		handles[i] = make(types.HexBytes, types.HandleSize)
		handles[i][0] = byte(id)
		handles[i][1] = byte(i)
	}
	m.polls[id] = &types.Poll{ID: id, EncryptedCounts: handles}
	m.running[id] = running
}

// EndPoll clears the running flag, letting finalization succeed.
func (m *MockTally) EndPoll(id types.PollID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running[id] = false
}

func (m *MockTally) ListPolls() ([]types.PollID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]types.PollID, 0, len(m.polls))
	for id := range m.polls {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MockTally) Poll(id types.PollID) (*types.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	poll, ok := m.polls[id]
	if !ok {
		return nil, tally.ErrPollNotFound
	}
	copied := *poll
	return &copied, nil
}

func (m *MockTally) FinalizePoll(id types.PollID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	poll, ok := m.polls[id]
	if !ok {
		return tally.ErrPollNotFound
	}
	if m.running[id] {
		return tally.ErrPollStillRunning
	}
	if poll.Finalized {
		return tally.ErrPollAlreadyFinalized
	}
	poll.Finalized = true
	return nil
}

func (m *MockTally) EncryptedResults(id types.PollID) ([]types.HexBytes, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	poll, ok := m.polls[id]
	if !ok {
		return nil, tally.ErrPollNotFound
	}
	return poll.EncryptedCounts, nil
}

func (m *MockTally) SubmitDecryptedResults(id types.PollID, encoded, proof types.HexBytes) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	poll, ok := m.polls[id]
	if !ok {
		return tally.ErrPollNotFound
	}
	if !poll.Finalized {
		return tally.ErrPollNotFinalized
	}
	if poll.ResultsSubmitted {
		return tally.ErrResultsAlreadySubmitted
	}
	poll.EncodedResults = encoded
	poll.DecryptionProof = proof
	poll.ResultsSubmitted = true
	return nil
}

// DecryptTally returns a canned encoding of zero counts with a fake proof.
func (m *MockTally) DecryptTally(id types.PollID, handles []types.HexBytes) (types.HexBytes, types.HexBytes, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.polls[id]; !ok {
		return nil, nil, tally.ErrPollNotFound
	}
	encoded := make(types.HexBytes, len(handles)*types.ResultWordSize)
	proof := types.HexBytes(fmt.Sprintf("proof-%s", id))
	return encoded, proof, nil
}
