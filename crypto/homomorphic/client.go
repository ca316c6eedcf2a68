package homomorphic

import (
	"fmt"
	"math/big"

	"github.com/veilpoll/veilpoll/crypto/ecc/curves"
	"github.com/veilpoll/veilpoll/crypto/elgamal"
	"github.com/veilpoll/veilpoll/crypto/ethereum"
	"github.com/veilpoll/veilpoll/types"
)

// EncryptBallot encrypts a ballot for the poll on the voter side and signs it
// with the voter's key. It returns the serialized ciphertext and the
// signature proof expected by ImportBallot.
func EncryptBallot(pollID types.PollID, key *types.EncryptionKey, choice uint64,
	signer *ethereum.SignKeys,
) (ballot, proof types.HexBytes, err error) {
	publicKey := curves.New(key.CurveType).SetPoint(key.X, key.Y)
	ct := elgamal.NewCiphertext(publicKey)
	if _, err := ct.Encrypt(new(big.Int).SetUint64(choice), publicKey, nil); err != nil {
		return nil, nil, fmt.Errorf("encrypt ballot: %w", err)
	}
	ballot = ct.Serialize()
	if proof, err = signer.SignEthereum(BallotMessage(pollID, ballot)); err != nil {
		return nil, nil, fmt.Errorf("sign ballot: %w", err)
	}
	return ballot, proof, nil
}
