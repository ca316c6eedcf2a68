package storage

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/veilpoll/veilpoll/types"
)

func testPoll(title string) *types.Poll {
	return &types.Poll{
		Title:       title,
		Description: "a test poll",
		Options:     []string{"yes", "no"},
		StartTime:   1000,
		EndTime:     2000,
		Creator:     common.Address{0x01},
		EncryptedCounts: []types.HexBytes{
			make(types.HexBytes, types.HandleSize),
			make(types.HexBytes, types.HandleSize),
		},
	}
}

func TestCreatePoll(t *testing.T) {
	c := qt.New(t)
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "db")

	database, err := metadb.New(db.TypePebble, dbPath)
	c.Assert(err, qt.IsNil)

	st := New(database)
	defer st.Close()

	// Unknown ids are not found
	_, err = st.Poll(0)
	c.Assert(err, qt.Equals, ErrNotFound)

	count, err := st.PollCount()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(0))

	// Ids are allocated sequentially from zero
	first := testPoll("first")
	id, err := st.CreatePoll(first)
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Equals, types.PollID(0))

	second := testPoll("second")
	id, err = st.CreatePoll(second)
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Equals, types.PollID(1))

	count, err = st.PollCount()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(2))

	// Stored records round-trip
	stored, err := st.Poll(0)
	c.Assert(err, qt.IsNil)
	c.Assert(stored, qt.DeepEquals, first)

	ids, err := st.ListPolls()
	c.Assert(err, qt.IsNil)
	c.Assert(ids, qt.DeepEquals, []types.PollID{0, 1})
}

func TestCreatePollConcurrent(t *testing.T) {
	c := qt.New(t)

	st := New(metadb.NewTest(t))

	const n = 10
	ids := make([]types.PollID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := st.CreatePoll(testPoll("concurrent"))
			c.Check(err, qt.IsNil)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	// Every allocation is unique
	seen := make(map[types.PollID]bool)
	for _, id := range ids {
		c.Assert(seen[id], qt.IsFalse)
		seen[id] = true
	}
	count, err := st.PollCount()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(n))
}

func TestSetPoll(t *testing.T) {
	c := qt.New(t)

	st := New(metadb.NewTest(t))

	poll := testPoll("mutable")
	_, err := st.CreatePoll(poll)
	c.Assert(err, qt.IsNil)

	poll.Finalized = true
	poll.ParticipationRoot = types.HexBytes{0xde, 0xad}
	c.Assert(st.SetPoll(poll), qt.IsNil)

	stored, err := st.Poll(poll.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Finalized, qt.IsTrue)
	c.Assert(stored.ParticipationRoot, qt.DeepEquals, poll.ParticipationRoot)
}
