package elgamal

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// MarshalJSON serializes the Ciphertext to JSON.
func (z *Ciphertext) MarshalJSON() ([]byte, error) {
	// Marshal each point using its own JSON implementation.
	c1Bytes, err := json.Marshal(z.C1)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal c1: %w", err)
	}
	c2Bytes, err := json.Marshal(z.C2)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal c2: %w", err)
	}
	// Package the two into a temporary struct.
	tmp := struct {
		C1 json.RawMessage `json:"c1"`
		C2 json.RawMessage `json:"c2"`
	}{
		C1: c1Bytes,
		C2: c2Bytes,
	}
	return json.Marshal(tmp)
}

// UnmarshalJSON deserializes the Ciphertext from JSON.
func (z *Ciphertext) UnmarshalJSON(data []byte) error {
	// Define a temporary container matching the expected JSON.
	var tmp struct {
		C1 json.RawMessage `json:"c1"`
		C2 json.RawMessage `json:"c2"`
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return fmt.Errorf("failed to unmarshal ciphertext container: %w", err)
	}
	// Here we assume that z.C1 and z.C2 have been allocated by the caller,
	// typically with NewCiphertext using the proper curve.
	if err := json.Unmarshal(tmp.C1, z.C1); err != nil {
		return fmt.Errorf("failed to unmarshal c1: %w", err)
	}
	if err := json.Unmarshal(tmp.C2, z.C2); err != nil {
		return fmt.Errorf("failed to unmarshal c2: %w", err)
	}
	return nil
}

// MarshalCBOR serializes the Ciphertext to CBOR.
func (z *Ciphertext) MarshalCBOR() ([]byte, error) {
	// Marshal each point individually.
	c1Bytes, err := z.C1.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal c1: %w", err)
	}
	c2Bytes, err := z.C2.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal c2: %w", err)
	}
	// Package them into a temporary struct.
	tmp := struct {
		C1 cbor.RawMessage `cbor:"c1"`
		C2 cbor.RawMessage `cbor:"c2"`
	}{
		C1: c1Bytes,
		C2: c2Bytes,
	}
	return cbor.Marshal(tmp)
}

// UnmarshalCBOR deserializes the Ciphertext from CBOR.
func (z *Ciphertext) UnmarshalCBOR(buf []byte) error {
	// Use a temporary struct to extract the raw CBOR for each point.
	var tmp struct {
		C1 cbor.RawMessage `cbor:"c1"`
		C2 cbor.RawMessage `cbor:"c2"`
	}
	if err := cbor.Unmarshal(buf, &tmp); err != nil {
		return fmt.Errorf("failed to unmarshal ciphertext container: %w", err)
	}
	// At this point, we assume that z.C1 and z.C2 are already allocated.
	if err := z.C1.UnmarshalCBOR(tmp.C1); err != nil {
		return fmt.Errorf("failed to unmarshal c1: %w", err)
	}
	if err := z.C2.UnmarshalCBOR(tmp.C2); err != nil {
		return fmt.Errorf("failed to unmarshal c2: %w", err)
	}
	return nil
}
