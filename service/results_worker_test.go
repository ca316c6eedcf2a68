package service

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/veilpoll/veilpoll/types"
)

// waitFor polls the condition until it holds or the deadline expires.
func waitFor(c *qt.C, cond func() bool) {
	c.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	c.Fatal("condition not reached before deadline")
}

func TestResultsWorker(t *testing.T) {
	c := qt.New(t)

	mock := NewMockTally()
	mock.AddPoll(0, 2, false) // voting window already over
	mock.AddPoll(1, 3, true)  // still running

	worker := NewResultsWorker(mock, mock, 20*time.Millisecond)
	ctx := context.Background()
	c.Assert(worker.Start(ctx), qt.IsNil)
	defer worker.Stop()

	err := worker.Start(ctx)
	c.Assert(err, qt.ErrorMatches, "service already running")

	// the ended poll is driven to published results
	waitFor(c, func() bool {
		poll, err := mock.Poll(0)
		return err == nil && poll.ResultsSubmitted
	})
	poll, err := mock.Poll(0)
	c.Assert(err, qt.IsNil)
	c.Assert(poll.Finalized, qt.IsTrue)
	c.Assert(poll.EncodedResults, qt.HasLen, 2*types.ResultWordSize)

	// the running poll is left alone
	poll, err = mock.Poll(1)
	c.Assert(err, qt.IsNil)
	c.Assert(poll.Finalized, qt.IsFalse)

	// once its window closes, the worker picks it up
	mock.EndPoll(1)
	waitFor(c, func() bool {
		poll, err := mock.Poll(1)
		return err == nil && poll.ResultsSubmitted
	})

	// stop and restart
	worker.Stop()
	c.Assert(worker.Start(ctx), qt.IsNil)
}
