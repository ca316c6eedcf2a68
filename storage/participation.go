package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/arbo"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/veilpoll/veilpoll/types"
)

// participationHashFunc is the hash function of the participation trees.
var participationHashFunc = arbo.HashFunctionPoseidon

// ErrNotParticipant is returned when a proof is requested for a voter without
// a leaf in the participation tree.
var ErrNotParticipant = errors.New("voter not in the participation tree")

// participationTree wraps the per-poll arbo tree. All accesses to the
// underlying tree are protected by mu.
type participationTree struct {
	mu   sync.Mutex
	tree *arbo.Tree
}

// participationTree loads (or creates) the participation tree of a poll.
func (s *Storage) participationTree(id types.PollID) (*participationTree, error) {
	s.treeLock.Lock()
	defer s.treeLock.Unlock()
	if tree, ok := s.trees[id]; ok {
		return tree, nil
	}
	tree, err := arbo.NewTree(arbo.Config{
		Database:     prefixeddb.NewPrefixedDatabase(s.db, append(treePrefix, id.Bytes()...)),
		MaxLevels:    types.ParticipationTreeMaxLevels,
		HashFunction: participationHashFunc,
	})
	if err != nil {
		return nil, fmt.Errorf("open participation tree: %w", err)
	}
	pt := &participationTree{tree: tree}
	s.trees[id] = pt
	return pt, nil
}

// AddParticipant inserts the voter address as a leaf into the poll's
// participation tree. Double insertions are reported as an error by the tree.
func (s *Storage) AddParticipant(id types.PollID, voter common.Address) error {
	pt, err := s.participationTree(id)
	if err != nil {
		return err
	}
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.tree.Add(voter.Bytes(), []byte{1})
}

// ParticipationRoot returns the current root of the poll's participation tree.
func (s *Storage) ParticipationRoot(id types.PollID) (types.HexBytes, error) {
	pt, err := s.participationTree(id)
	if err != nil {
		return nil, err
	}
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.tree.Root()
}

// ParticipationProof generates a Merkle inclusion proof of the voter in the
// poll's participation tree. It returns ErrNotParticipant if the voter has no
// leaf.
func (s *Storage) ParticipationProof(id types.PollID, voter common.Address) (*types.ParticipationProof, error) {
	pt, err := s.participationTree(id)
	if err != nil {
		return nil, err
	}
	pt.mu.Lock()
	defer pt.mu.Unlock()
	root, err := pt.tree.Root()
	if err != nil {
		return nil, err
	}
	key, value, siblings, inclusion, err := pt.tree.GenProof(voter.Bytes())
	if err != nil {
		return nil, err
	}
	if !inclusion {
		return nil, ErrNotParticipant
	}
	return &types.ParticipationProof{
		Root:     root,
		Key:      key,
		Value:    value,
		Siblings: siblings,
	}, nil
}

// VerifyParticipationProof verifies a Merkle inclusion proof generated by
// ParticipationProof.
func VerifyParticipationProof(proof *types.ParticipationProof) bool {
	valid, err := arbo.CheckProof(participationHashFunc, proof.Key, proof.Value, proof.Root, proof.Siblings)
	if err != nil {
		return false
	}
	return valid
}
