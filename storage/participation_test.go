package storage

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"
)

func TestParticipationTree(t *testing.T) {
	c := qt.New(t)

	st := New(metadb.NewTest(t))

	poll := testPoll("participation")
	_, err := st.CreatePoll(poll)
	c.Assert(err, qt.IsNil)

	alice := common.Address{0x0a}
	bob := common.Address{0x0b}

	emptyRoot, err := st.ParticipationRoot(poll.ID)
	c.Assert(err, qt.IsNil)

	c.Assert(st.AddParticipant(poll.ID, alice), qt.IsNil)
	oneRoot, err := st.ParticipationRoot(poll.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(oneRoot, qt.Not(qt.DeepEquals), emptyRoot)

	c.Assert(st.AddParticipant(poll.ID, bob), qt.IsNil)
	twoRoot, err := st.ParticipationRoot(poll.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(twoRoot, qt.Not(qt.DeepEquals), oneRoot)

	// Inclusion proofs verify against the current root
	proof, err := st.ParticipationProof(poll.ID, alice)
	c.Assert(err, qt.IsNil)
	c.Assert(proof.Root, qt.DeepEquals, twoRoot)
	c.Assert(VerifyParticipationProof(proof), qt.IsTrue)

	// A tampered proof does not verify
	tampered := *proof
	tampered.Key = bob.Bytes()
	c.Assert(VerifyParticipationProof(&tampered), qt.IsFalse)

	// Voters without a leaf get no proof
	_, err = st.ParticipationProof(poll.ID, common.Address{0x0c})
	c.Assert(err, qt.Equals, ErrNotParticipant)

	// Trees of different polls are independent
	other := testPoll("other")
	_, err = st.CreatePoll(other)
	c.Assert(err, qt.IsNil)
	otherRoot, err := st.ParticipationRoot(other.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(otherRoot, qt.DeepEquals, emptyRoot)
}
