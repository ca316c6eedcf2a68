package tally

import (
	"fmt"
	"math/big"

	"github.com/veilpoll/veilpoll/log"
	"github.com/veilpoll/veilpoll/types"
)

// ResultVerification bundles the raw artifacts needed to audit a published
// tally: the counter handles, the encoded plaintexts and the decryption
// proof binding them together.
type ResultVerification struct {
	Handles        []types.HexBytes `json:"handles"`
	EncodedResults types.HexBytes   `json:"encodedResults"`
	Proof          types.HexBytes   `json:"proof"`
}

// SubmitDecryptedResults publishes the externally decrypted tally. The
// encoded counts must be exactly one 32 byte big-endian word per option; the
// length is checked before the cryptographic verification since a
// wrong-length payload can never carry a valid binding. The proof must be a
// genuine decryption of exactly this poll's counter handles. Each decoded
// word must fit in 32 bits.
//
// One transaction stores the decoded counts, the verbatim encoded results
// and the proof, and flips ResultsSubmitted. Single-shot and terminal;
// callable by any party.
func (e *Engine) SubmitDecryptedResults(pollID types.PollID, encoded, proof types.HexBytes) error {
	lock := e.pollLock(pollID)
	lock.Lock()
	defer lock.Unlock()

	poll, err := e.Poll(pollID)
	if err != nil {
		return err
	}
	if !poll.Finalized {
		return ErrPollNotFinalized
	}
	if poll.ResultsSubmitted {
		return ErrResultsAlreadySubmitted
	}
	want := len(poll.Options) * types.ResultWordSize
	if len(encoded) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidResultsLength, len(encoded), want)
	}
	if err := e.coprocessor.VerifyDecryption(pollID, poll.EncryptedCounts, encoded, proof); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDecryptionProof, err)
	}
	counts, err := decodeCounts(encoded, len(poll.Options))
	if err != nil {
		return err
	}

	poll.DecryptedCounts = counts
	poll.EncodedResults = encoded
	poll.DecryptionProof = proof
	poll.ResultsSubmitted = true
	if err := e.store.SetPoll(poll); err != nil {
		return err
	}

	log.Infow("results published", "pollId", pollID.String(), "counts", counts)
	e.publish(Event{Type: EventResultsPublished, PollID: pollID, Counts: counts})
	return nil
}

// decodeCounts splits the encoded results into n 32 byte big-endian words.
func decodeCounts(encoded types.HexBytes, n int) ([]uint64, error) {
	counts := make([]uint64, n)
	for i := range counts {
		word := new(big.Int).SetBytes(encoded[i*types.ResultWordSize : (i+1)*types.ResultWordSize])
		if word.BitLen() > types.MaxCountBits {
			return nil, fmt.Errorf("%w: option %d", ErrCountExceedsLimit, i)
		}
		counts[i] = word.Uint64()
	}
	return counts, nil
}

// EncryptedResults returns the poll's current counter handles. Available as
// soon as the poll exists.
func (e *Engine) EncryptedResults(pollID types.PollID) ([]types.HexBytes, error) {
	poll, err := e.Poll(pollID)
	if err != nil {
		return nil, err
	}
	return poll.EncryptedCounts, nil
}

// DecryptedResults returns the published per-option counts,
// ErrResultsNotAvailable before results are submitted.
func (e *Engine) DecryptedResults(pollID types.PollID) ([]uint64, error) {
	poll, err := e.Poll(pollID)
	if err != nil {
		return nil, err
	}
	if !poll.ResultsSubmitted {
		return nil, ErrResultsNotAvailable
	}
	return poll.DecryptedCounts, nil
}

// ResultVerification returns the audit artifacts of a published tally,
// ErrResultsNotAvailable before results are submitted.
func (e *Engine) ResultVerification(pollID types.PollID) (*ResultVerification, error) {
	poll, err := e.Poll(pollID)
	if err != nil {
		return nil, err
	}
	if !poll.ResultsSubmitted {
		return nil, ErrResultsNotAvailable
	}
	return &ResultVerification{
		Handles:        poll.EncryptedCounts,
		EncodedResults: poll.EncodedResults,
		Proof:          poll.DecryptionProof,
	}, nil
}
