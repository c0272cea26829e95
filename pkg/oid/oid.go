package oid

import (
	"encoding/hex"
	"fmt"
)

const (
	// RawLen is the length of an object identifier in bytes
	RawLen = 20
	// HexLen is the length of an object identifier in hex characters
	HexLen = 40
)

// OID is a 160-bit content identifier, the value a reference points at.
// The zero value is the null OID, which means "no such value": it is used
// as the old value when creating a ref and as the new value when deleting
// one.
type OID [RawLen]byte

// Zero is the null OID.
var Zero OID

// Parse decodes a 40-character hex string into an OID.
func Parse(s string) (OID, error) {
	var o OID
	if len(s) != HexLen {
		return o, fmt.Errorf("object id must be %d hex characters, got %d", HexLen, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return o, fmt.Errorf("object id is not hexadecimal: %w", err)
	}
	copy(o[:], raw)
	return o, nil
}

// MustParse is Parse for test fixtures and constants; it panics on bad input.
func MustParse(s string) OID {
	o, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return o
}

// ParseBytes decodes the first HexLen bytes of b. Used by record decoders
// that carve OIDs out of larger lines.
func ParseBytes(b []byte) (OID, error) {
	if len(b) < HexLen {
		return Zero, fmt.Errorf("object id needs %d hex characters, have %d", HexLen, len(b))
	}
	return Parse(string(b[:HexLen]))
}

// String returns the 40-character lowercase hex form.
func (o OID) String() string {
	return hex.EncodeToString(o[:])
}

// IsZero reports whether this is the null OID.
func (o OID) IsZero() bool {
	return o == Zero
}

// Short returns the abbreviated hex form (first 7 characters).
func (o OID) Short() string {
	return o.String()[:7]
}

// MarshalText implements encoding.TextMarshaler
func (o OID) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *OID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// IsHex reports whether s is a well-formed 40-character hex identifier.
func IsHex(s string) bool {
	_, err := Parse(s)
	return err == nil
}
