package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/veilpoll/veilpoll/crypto/homomorphic"
	"github.com/veilpoll/veilpoll/log"
	"github.com/veilpoll/veilpoll/tally"
	"github.com/veilpoll/veilpoll/types"
)

// TallyService defines the engine operations the results worker drives. It
// is satisfied by *tally.Engine.
type TallyService interface {
	ListPolls() ([]types.PollID, error)
	Poll(id types.PollID) (*types.Poll, error)
	FinalizePoll(id types.PollID) error
	EncryptedResults(id types.PollID) ([]types.HexBytes, error)
	SubmitDecryptedResults(id types.PollID, encoded, proof types.HexBytes) error
}

// ResultsWorker periodically scans for ended polls and walks each one to
// published results: finalize, obtain the decryption from the oracle, submit.
// Finalization and submission are permissionless, so the worker is only a
// liveness helper; it acts strictly through the public engine operations and
// tolerates racing with other callers.
type ResultsWorker struct {
	engine   TallyService
	oracle   homomorphic.DecryptionOracle
	interval time.Duration
	mu       sync.Mutex
	cancel   context.CancelFunc
}

// NewResultsWorker creates a new ResultsWorker scanning at the given interval.
func NewResultsWorker(engine TallyService, oracle homomorphic.DecryptionOracle, interval time.Duration) *ResultsWorker {
	return &ResultsWorker{
		engine:   engine,
		oracle:   oracle,
		interval: interval,
	}
}

// Start begins the background scan loop. It returns an error if the service
// is already running.
func (rw *ResultsWorker) Start(ctx context.Context) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.cancel != nil {
		return fmt.Errorf("service already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	rw.cancel = cancel

	go rw.run(ctx)
	return nil
}

// Stop halts the scan loop.
func (rw *ResultsWorker) Stop() {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.cancel != nil {
		rw.cancel()
		rw.cancel = nil
	}
}

func (rw *ResultsWorker) run(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rw.scan()
		}
	}
}

// scan walks every poll without published results as far as it can.
func (rw *ResultsWorker) scan() {
	ids, err := rw.engine.ListPolls()
	if err != nil {
		log.Warnw("results worker failed to list polls", "error", err.Error())
		return
	}
	for _, id := range ids {
		poll, err := rw.engine.Poll(id)
		if err != nil {
			log.Warnw("results worker failed to read poll", "pollId", id.String(), "error", err.Error())
			continue
		}
		if poll.ResultsSubmitted {
			continue
		}
		if err := rw.processPoll(id, poll.Finalized); err != nil {
			log.Warnw("results worker failed to process poll", "pollId", id.String(), "error", err.Error())
		}
	}
}

// processPoll finalizes the poll if needed, then decrypts and submits its
// results. Polls still inside their voting window are skipped silently.
func (rw *ResultsWorker) processPoll(id types.PollID, finalized bool) error {
	if !finalized {
		switch err := rw.engine.FinalizePoll(id); {
		case err == nil:
			log.Infow("results worker finalized poll", "pollId", id.String())
		case errors.Is(err, tally.ErrPollStillRunning):
			return nil
		case errors.Is(err, tally.ErrPollAlreadyFinalized):
			// someone else finalized between the read and this call
		default:
			return fmt.Errorf("finalize: %w", err)
		}
	}

	handles, err := rw.engine.EncryptedResults(id)
	if err != nil {
		return fmt.Errorf("encrypted results: %w", err)
	}
	encoded, proof, err := rw.oracle.DecryptTally(id, handles)
	if err != nil {
		return fmt.Errorf("decrypt tally: %w", err)
	}
	switch err := rw.engine.SubmitDecryptedResults(id, encoded, proof); {
	case err == nil:
		log.Infow("results worker published results", "pollId", id.String())
	case errors.Is(err, tally.ErrResultsAlreadySubmitted):
		// lost the race to another submitter, nothing to do
	default:
		return fmt.Errorf("submit results: %w", err)
	}
	return nil
}
