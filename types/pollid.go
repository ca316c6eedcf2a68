package types

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// PollIDSize is the length in bytes of a serialized poll ID.
const PollIDSize = 8

// PollID identifies a poll. IDs are allocated sequentially starting at zero,
// so an ID also encodes creation order.
type PollID uint64

// Bytes encodes the ID as 8 big-endian bytes, the form used as storage key.
func (p PollID) Bytes() []byte {
	b := make([]byte, PollIDSize)
	binary.BigEndian.PutUint64(b, uint64(p))
	return b
}

// PollIDFromBytes decodes an 8 byte big-endian poll ID.
func PollIDFromBytes(data []byte) (PollID, error) {
	if len(data) != PollIDSize {
		return 0, fmt.Errorf("invalid PollID length: %d", len(data))
	}
	return PollID(binary.BigEndian.Uint64(data)), nil
}

// PollIDFromString parses a decimal poll ID.
func PollIDFromString(s string) (PollID, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid PollID %q: %w", s, err)
	}
	return PollID(id), nil
}

// String returns the decimal representation of the ID.
func (p PollID) String() string {
	return strconv.FormatUint(uint64(p), 10)
}
