package types

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Poll is the authoritative record of a poll: lifecycle flags, the fixed
// option list, the voting window and the encrypted tally state. It is stored
// as a single CBOR artifact keyed by ID, so every mutation of a poll is one
// atomic record swap.
type Poll struct {
	ID                PollID         `json:"id"                          cbor:"0,keyasint"`
	Title             string         `json:"title"                       cbor:"1,keyasint"`
	Description       string         `json:"description,omitempty"       cbor:"2,keyasint,omitempty"`
	Options           []string       `json:"options"                     cbor:"3,keyasint"`
	StartTime         int64          `json:"startTime"                   cbor:"4,keyasint"`
	EndTime           int64          `json:"endTime"                     cbor:"5,keyasint"`
	Creator           common.Address `json:"creator"                     cbor:"6,keyasint"`
	Finalized         bool           `json:"finalized"                   cbor:"7,keyasint"`
	ResultsSubmitted  bool           `json:"resultsSubmitted"            cbor:"8,keyasint"`
	EncryptedCounts   []HexBytes     `json:"encryptedCounts"             cbor:"9,keyasint"`
	VoteCount         uint64         `json:"voteCount"                   cbor:"10,keyasint"`
	DecryptedCounts   []uint64       `json:"decryptedCounts,omitempty"   cbor:"11,keyasint,omitempty"`
	EncodedResults    HexBytes       `json:"encodedResults,omitempty"    cbor:"12,keyasint,omitempty"`
	DecryptionProof   HexBytes       `json:"decryptionProof,omitempty"   cbor:"13,keyasint,omitempty"`
	ParticipationRoot HexBytes       `json:"participationRoot,omitempty" cbor:"14,keyasint,omitempty"`
}

func (p *Poll) String() string {
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(data)
}

// Started reports whether the voting window has opened at time now
// (unix seconds).
func (p *Poll) Started(now int64) bool {
	return now >= p.StartTime
}

// Ended reports whether the voting window has passed at time now
// (unix seconds).
func (p *Poll) Ended(now int64) bool {
	return now > p.EndTime
}

// EncryptionKey is the public key of a poll encryption key pair, as exposed
// to clients for ballot encryption. CurveType names the curve implementation
// the coordinates belong to.
type EncryptionKey struct {
	CurveType string   `json:"curveType" cbor:"0,keyasint"`
	X         *big.Int `json:"x"         cbor:"1,keyasint"`
	Y         *big.Int `json:"y"         cbor:"2,keyasint"`
}
