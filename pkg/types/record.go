package types

import (
	"encoding/hex"
	"fmt"
	"time"
)

// Hash is a SHA-256 content hash.
type Hash [32]byte

// String returns the lower-case hex encoding with a 0x prefix.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ParseHash decodes a hex hash with or without a 0x prefix.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("parse hash: %w", err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("parse hash: want %d bytes, got %d", len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

// MarshalText encodes the hash as 0x-prefixed hex.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes 0x-prefixed hex.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// AttachedDataRecord is one submission of field values against a schema
// version. Records are append-only; invalidation clears Valid.
type AttachedDataRecord struct {
	Name          string    `json:"name"`
	SchemaVersion string    `json:"schema_version"`
	ContentHash   Hash      `json:"content_hash"`
	Timestamp     time.Time `json:"timestamp"`
	SubmittedBy   string    `json:"submitted_by"`
	Valid         bool      `json:"valid"`
	FieldNames    []string  `json:"field_names"`
	FieldValues   [][]byte  `json:"field_values"`
}

// Clone returns a deep copy of r.
func (r *AttachedDataRecord) Clone() *AttachedDataRecord {
	c := *r
	c.FieldNames = append([]string(nil), r.FieldNames...)
	c.FieldValues = make([][]byte, len(r.FieldValues))
	for i, v := range r.FieldValues {
		c.FieldValues[i] = append([]byte(nil), v...)
	}
	return &c
}
