package api

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"

	"github.com/veilpoll/veilpoll/crypto/ethereum"
	"github.com/veilpoll/veilpoll/types"
)

// CreatePollRequest is the body of POST /polls. The signature covers the
// deterministic encoding of the poll definition and identifies the creator.
type CreatePollRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Options     []string       `json:"options"`
	StartTime   int64          `json:"startTime"`
	EndTime     int64          `json:"endTime"`
	Signature   types.HexBytes `json:"signature"`
}

// pollDefinition is the canonical signed form of a poll definition.
type pollDefinition struct {
	Title       string   `cbor:"0,keyasint"`
	Description string   `cbor:"1,keyasint"`
	Options     []string `cbor:"2,keyasint"`
	StartTime   int64    `cbor:"3,keyasint"`
	EndTime     int64    `cbor:"4,keyasint"`
}

// Message returns the bytes the creator signs: the deterministic CBOR
// encoding of the poll definition, without the signature.
func (r *CreatePollRequest) Message() ([]byte, error) {
	encOpts, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	data, err := encOpts.Marshal(&pollDefinition{
		Title:       r.Title,
		Description: r.Description,
		Options:     r.Options,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
	})
	if err != nil {
		return nil, fmt.Errorf("encode poll definition: %w", err)
	}
	return data, nil
}

// Sign sets the request signature with the creator's key.
func (r *CreatePollRequest) Sign(signer *ethereum.SignKeys) error {
	msg, err := r.Message()
	if err != nil {
		return err
	}
	r.Signature, err = signer.SignEthereum(msg)
	return err
}

// PollList is the response to GET /polls.
type PollList struct {
	Count uint64         `json:"count"`
	Polls []types.PollID `json:"polls"`
}

// VoteRequest is the body of POST /polls/{pollId}/votes. Ballot is the
// serialized ciphertext, InputProof the voter's signature binding it to the
// poll.
type VoteRequest struct {
	Voter      common.Address `json:"voter"`
	Ballot     types.HexBytes `json:"ballot"`
	InputProof types.HexBytes `json:"inputProof"`
}

// VoteStatus is the response to GET /polls/{pollId}/votes/{address}.
type VoteStatus struct {
	HasVoted bool `json:"hasVoted"`
}

// SubmitResultsRequest is the body of POST /polls/{pollId}/results. Results
// is the encoded plaintext counts, Proof the decryption proof over them.
type SubmitResultsRequest struct {
	Results types.HexBytes `json:"results"`
	Proof   types.HexBytes `json:"proof"`
}

// ResultsResponse is the response to GET /polls/{pollId}/results.
type ResultsResponse struct {
	Counts []uint64 `json:"counts"`
}

// EncryptedResults is the response to GET /polls/{pollId}/results/encrypted.
type EncryptedResults struct {
	Handles []types.HexBytes `json:"handles"`
}
