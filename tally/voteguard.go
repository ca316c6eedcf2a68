package tally

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/veilpoll/veilpoll/types"
)

// HasVoted reports whether the voter has an accepted vote in the poll. It is
// a pure read: unknown polls return false, never an error.
func (e *Engine) HasVoted(id types.PollID, voter common.Address) (bool, error) {
	return e.store.HasVoted(id, voter)
}

// VoteReceipt returns a Merkle inclusion proof of the voter's participation
// in the poll. The proof is against the poll's participation tree, whose
// root is sealed into the poll at finalization.
func (e *Engine) VoteReceipt(id types.PollID, voter common.Address) (*types.ParticipationProof, error) {
	if _, err := e.Poll(id); err != nil {
		return nil, err
	}
	return e.store.ParticipationProof(id, voter)
}
