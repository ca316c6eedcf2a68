// Package homomorphic defines the boundary between the poll tally core and
// the encryption subsystem that performs arithmetic over ciphertexts. The
// core only ever sees opaque 32 byte handles: it asks the subsystem to mint
// encrypted-zero counters, admit externally encrypted ballots, evaluate
// equality/select/add gates and, after a poll is finalized, verify that a
// claimed decryption really belongs to the poll's counter handles.
//
// The package also ships Simulator, an in-process implementation backed by
// ElGamal over the supported curves, used for development and testing. The
// core never depends on the simulator internals, only on the Coprocessor and
// DecryptionOracle interfaces.
package homomorphic

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veilpoll/veilpoll/crypto/ethereum"
	"github.com/veilpoll/veilpoll/types"
)

var (
	// ErrUnknownHandle is returned when a handle does not reference a
	// ciphertext of the given poll.
	ErrUnknownHandle = errors.New("unknown ciphertext handle")
	// ErrInvalidProof is returned when an input or decryption proof does
	// not verify.
	ErrInvalidProof = errors.New("invalid proof")
	// ErrMalformedBallot is returned when a ballot ciphertext cannot be
	// admitted (bad encoding or out of range plaintext).
	ErrMalformedBallot = errors.New("malformed ballot")
	// ErrNotDecryptable is returned by the oracle when decryption of a
	// handle has not been granted.
	ErrNotDecryptable = errors.New("decryption not allowed")
	// ErrPollKeyExists is returned when counters are initialized twice for
	// the same poll.
	ErrPollKeyExists = errors.New("poll key already exists")
	// ErrPollKeyNotFound is returned when a poll has no encryption key.
	ErrPollKeyNotFound = errors.New("poll key not found")
)

// Coprocessor is the encrypted-arithmetic interface consumed by the tally
// core. Handles are opaque: the core stores and passes them around but never
// learns the plaintexts behind them.
type Coprocessor interface {
	// PublicKey returns the poll's encryption key for client-side ballot
	// encryption.
	PublicKey(pollID types.PollID) (*types.EncryptionKey, error)
	// InitCounters mints the poll key pair and n fresh encrypted-zero
	// counters, returning their handles.
	InitCounters(pollID types.PollID, n int) ([]types.HexBytes, error)
	// ImportBallot verifies the input proof binding the ballot to the poll
	// and the voter, admits the ciphertext and returns its handle.
	ImportBallot(pollID types.PollID, voter common.Address, ballot, proof types.HexBytes) (types.HexBytes, error)
	// Eq evaluates the encrypted equality of a handle against a plaintext
	// index, yielding a handle to an encrypted 0 or 1.
	Eq(pollID types.PollID, handle types.HexBytes, index uint64) (types.HexBytes, error)
	// Select yields ifTrue or ifFalse depending on the encrypted condition
	// bit, rerandomized so the result reveals nothing about the branch.
	Select(pollID types.PollID, cond, ifTrue, ifFalse types.HexBytes) (types.HexBytes, error)
	// Add yields a handle to the homomorphic sum of a and b.
	Add(pollID types.PollID, a, b types.HexBytes) (types.HexBytes, error)
	// Constant yields a handle to a trivial encryption of a public value.
	Constant(pollID types.PollID, value uint64) (types.HexBytes, error)
	// AllowDecryption grants public decryptability to the handles. The
	// grant is one-way.
	AllowDecryption(pollID types.PollID, handles []types.HexBytes) error
	// VerifyDecryption checks that (encoded, proof) is a genuine decryption
	// of exactly those handles, in order, for this poll.
	VerifyDecryption(pollID types.PollID, handles []types.HexBytes, encoded, proof types.HexBytes) error
}

// DecryptionOracle is the off-core side of the subsystem: it produces the
// decryption of granted handles together with a proof that VerifyDecryption
// accepts. In production this runs outside the tally service.
type DecryptionOracle interface {
	DecryptTally(pollID types.PollID, handles []types.HexBytes) (encoded, proof types.HexBytes, err error)
}

// BallotMessage returns the digest a voter signs to bind a ballot ciphertext
// to a poll. The input proof is an Ethereum signature over this digest.
func BallotMessage(pollID types.PollID, ballot []byte) []byte {
	return ethereum.HashRaw(append(pollID.Bytes(), ballot...))
}

// ResultsMessage returns the digest the decryption oracle signs: it commits
// to the poll, the counter handles in order and the encoded plaintexts.
func ResultsMessage(pollID types.PollID, handles []types.HexBytes, encoded []byte) []byte {
	msg := pollID.Bytes()
	for _, handle := range handles {
		msg = append(msg, handle...)
	}
	msg = append(msg, encoded...)
	return ethereum.HashRaw(msg)
}
