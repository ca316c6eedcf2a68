package tally

import "errors"

// Sentinel errors returned by the engine. Callers match them with errors.Is;
// most are wrapped with context at the failure site.
var (
	// Poll creation.
	ErrEmptyTitle         = errors.New("poll title is empty")
	ErrInvalidOptionCount = errors.New("invalid number of options")
	ErrEmptyOption        = errors.New("empty option")
	ErrInvalidSchedule    = errors.New("invalid poll schedule")

	// Lookups.
	ErrPollNotFound = errors.New("poll not found")

	// Vote submission.
	ErrVotingNotStarted = errors.New("voting has not started")
	ErrVotingFinished   = errors.New("voting has finished")
	ErrAlreadyVoted     = errors.New("voter has already voted")
	ErrInvalidBallot    = errors.New("invalid ballot")

	// Finalization.
	ErrPollStillRunning     = errors.New("poll is still running")
	ErrPollAlreadyFinalized = errors.New("poll already finalized")

	// Results submission and reads.
	ErrPollNotFinalized        = errors.New("poll not finalized")
	ErrResultsAlreadySubmitted = errors.New("results already submitted")
	ErrInvalidResultsLength    = errors.New("invalid results length")
	ErrInvalidDecryptionProof  = errors.New("invalid decryption proof")
	ErrCountExceedsLimit       = errors.New("count exceeds limit")
	ErrResultsNotAvailable     = errors.New("results not available")
)
