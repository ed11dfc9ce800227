package records

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// Fixed encoded widths.
const (
	uintWidth    = 32
	addressWidth = 20
	hashWidth    = 32
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// EncodeValue converts the textual form of a field value into the typed byte
// blob stored in a record.
//
// STRING is UTF-8. UINT is a 32-byte big-endian unsigned integer given in
// decimal or 0x hex. ADDRESS is 20 bytes and HASH 32 bytes, both given in
// hex. BOOL is one byte. Arrays, STRUCT and MAP are canonical JSON.
func EncodeValue(dt types.DataType, s string) ([]byte, error) {
	switch dt {
	case types.DataTypeString:
		if !utf8.ValidString(s) {
			return nil, invalid(dt, "not valid UTF-8")
		}
		return []byte(s), nil
	case types.DataTypeUint:
		n, err := parseUint(s)
		if err != nil {
			return nil, invalid(dt, err.Error())
		}
		return n.FillBytes(make([]byte, uintWidth)), nil
	case types.DataTypeAddress:
		return parseFixedHex(dt, s, addressWidth)
	case types.DataTypeHash:
		return parseFixedHex(dt, s, hashWidth)
	case types.DataTypeBool:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, invalid(dt, err.Error())
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case types.DataTypeArrayString:
		var v []string
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, invalid(dt, err.Error())
		}
		return marshalCanonical(v)
	case types.DataTypeArrayUint:
		var raw []json.Number
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, invalid(dt, err.Error())
		}
		out := make([]json.Number, len(raw))
		for i, r := range raw {
			n, err := parseUint(r.String())
			if err != nil {
				return nil, invalid(dt, fmt.Sprintf("element %d: %v", i, err))
			}
			out[i] = json.Number(n.String())
		}
		return marshalCanonical(out)
	case types.DataTypeArrayAddress:
		var v []string
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, invalid(dt, err.Error())
		}
		for i, a := range v {
			b, err := parseFixedHex(types.DataTypeAddress, a, addressWidth)
			if err != nil {
				return nil, invalid(dt, fmt.Sprintf("element %d: %v", i, err))
			}
			v[i] = "0x" + hex.EncodeToString(b)
		}
		return marshalCanonical(v)
	case types.DataTypeStruct, types.DataTypeMap:
		var v map[string]any
		if err := json.Unmarshal([]byte(s), &v); err != nil || v == nil {
			return nil, invalid(dt, "want a JSON object")
		}
		return marshalCanonical(v)
	}
	return nil, fmt.Errorf("%w: %q", types.ErrInvalidDataType, dt)
}

// DecodeValue interprets an encoded field value against its data type.
// The dynamic type of the result is string, *big.Int, bool, types.Hash,
// []string, []*big.Int or map[string]any.
func DecodeValue(dt types.DataType, b []byte) (any, error) {
	switch dt {
	case types.DataTypeString:
		if !utf8.Valid(b) {
			return nil, invalid(dt, "not valid UTF-8")
		}
		return string(b), nil
	case types.DataTypeUint:
		if len(b) != uintWidth {
			return nil, invalid(dt, fmt.Sprintf("want %d bytes, got %d", uintWidth, len(b)))
		}
		return new(big.Int).SetBytes(b), nil
	case types.DataTypeAddress:
		if len(b) != addressWidth {
			return nil, invalid(dt, fmt.Sprintf("want %d bytes, got %d", addressWidth, len(b)))
		}
		return "0x" + hex.EncodeToString(b), nil
	case types.DataTypeHash:
		var h types.Hash
		if len(b) != hashWidth {
			return nil, invalid(dt, fmt.Sprintf("want %d bytes, got %d", hashWidth, len(b)))
		}
		copy(h[:], b)
		return h, nil
	case types.DataTypeBool:
		if len(b) != 1 || b[0] > 1 {
			return nil, invalid(dt, "want a single 0 or 1 byte")
		}
		return b[0] == 1, nil
	case types.DataTypeArrayString, types.DataTypeArrayAddress:
		var v []string
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, invalid(dt, err.Error())
		}
		if dt == types.DataTypeArrayAddress {
			for i, a := range v {
				if _, err := parseFixedHex(types.DataTypeAddress, a, addressWidth); err != nil {
					return nil, invalid(dt, fmt.Sprintf("element %d: %v", i, err))
				}
			}
		}
		return v, nil
	case types.DataTypeArrayUint:
		var raw []json.Number
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, invalid(dt, err.Error())
		}
		out := make([]*big.Int, len(raw))
		for i, r := range raw {
			n, err := parseUint(r.String())
			if err != nil {
				return nil, invalid(dt, fmt.Sprintf("element %d: %v", i, err))
			}
			out[i] = n
		}
		return out, nil
	case types.DataTypeStruct, types.DataTypeMap:
		var v map[string]any
		if err := json.Unmarshal(b, &v); err != nil || v == nil {
			return nil, invalid(dt, "want a JSON object")
		}
		return v, nil
	}
	return nil, fmt.Errorf("%w: %q", types.ErrInvalidDataType, dt)
}

// FormatValue renders an encoded value in the textual form EncodeValue
// accepts. Undecodable values are rendered as 0x hex.
func FormatValue(dt types.DataType, b []byte) string {
	v, err := DecodeValue(dt, b)
	if err != nil {
		return "0x" + hex.EncodeToString(b)
	}
	switch x := v.(type) {
	case string:
		return x
	case *big.Int:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case types.Hash:
		return x.String()
	}
	// Array and object encodings are already canonical JSON.
	return string(b)
}

func invalid(dt types.DataType, reason string) error {
	return fmt.Errorf("%w: %s: %s", types.ErrInvalidFieldValue, dt, reason)
}

func parseUint(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	base := 10
	digits := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base, digits = 16, s[2:]
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	if n.Sign() < 0 || n.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("%s is outside the uint256 range", s)
	}
	return n, nil
}

func parseFixedHex(dt types.DataType, s string, width int) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, invalid(dt, err.Error())
	}
	if len(b) != width {
		return nil, invalid(dt, fmt.Sprintf("want %d bytes, got %d", width, len(b)))
	}
	return b, nil
}

func marshalCanonical(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return b, nil
}
