package records

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

func TestEncodeDecodeValue(t *testing.T) {
	addr := "0x" + strings.Repeat("ab", 20)
	hash := "0x" + strings.Repeat("cd", 32)

	tests := []struct {
		name    string
		dt      types.DataType
		in      string
		wantLen int
		want    any
	}{
		{name: "string", dt: types.DataTypeString, in: "hello", wantLen: 5, want: "hello"},
		{name: "uint decimal", dt: types.DataTypeUint, in: "1000", wantLen: 32, want: big.NewInt(1000)},
		{name: "uint hex", dt: types.DataTypeUint, in: "0xff", wantLen: 32, want: big.NewInt(255)},
		{name: "uint leading zero is decimal", dt: types.DataTypeUint, in: "010", wantLen: 32, want: big.NewInt(10)},
		{name: "address", dt: types.DataTypeAddress, in: addr, wantLen: 20, want: addr},
		{name: "bool true", dt: types.DataTypeBool, in: "true", wantLen: 1, want: true},
		{name: "bool false", dt: types.DataTypeBool, in: "0", wantLen: 1, want: false},
		{name: "string array", dt: types.DataTypeArrayString, in: `["a", "b"]`, want: []string{"a", "b"}},
		{name: "uint array", dt: types.DataTypeArrayUint, in: `[1, 2, 3]`, want: []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}},
		{name: "address array", dt: types.DataTypeArrayAddress, in: `["` + strings.ToUpper(addr[2:]) + `"]`, want: []string{addr}},
		{name: "struct", dt: types.DataTypeStruct, in: `{"b": 1, "a": "x"}`, want: map[string]any{"a": "x", "b": float64(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := EncodeValue(tt.dt, tt.in)
			require.NoError(t, err)
			if tt.wantLen > 0 {
				assert.Len(t, b, tt.wantLen)
			}
			got, err := DecodeValue(tt.dt, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("hash", func(t *testing.T) {
		b, err := EncodeValue(types.DataTypeHash, hash)
		require.NoError(t, err)
		got, err := DecodeValue(types.DataTypeHash, b)
		require.NoError(t, err)
		assert.Equal(t, hash, got.(types.Hash).String())
	})
}

func TestEncodeValueRejects(t *testing.T) {
	tests := []struct {
		name string
		dt   types.DataType
		in   string
	}{
		{name: "negative uint", dt: types.DataTypeUint, in: "-1"},
		{name: "uint overflow", dt: types.DataTypeUint, in: "0x1" + strings.Repeat("0", 64)},
		{name: "uint text", dt: types.DataTypeUint, in: "ten"},
		{name: "short address", dt: types.DataTypeAddress, in: "0xabcd"},
		{name: "bad hex hash", dt: types.DataTypeHash, in: "0xzz"},
		{name: "bool text", dt: types.DataTypeBool, in: "maybe"},
		{name: "array not json", dt: types.DataTypeArrayString, in: "a,b"},
		{name: "uint array negative", dt: types.DataTypeArrayUint, in: "[1, -2]"},
		{name: "struct not object", dt: types.DataTypeStruct, in: "[1]"},
		{name: "map null", dt: types.DataTypeMap, in: "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeValue(tt.dt, tt.in)
			require.ErrorIs(t, err, types.ErrInvalidFieldValue)
		})
	}

	_, err := EncodeValue("FLOAT", "1.5")
	require.ErrorIs(t, err, types.ErrInvalidDataType)
}

func TestDecodeValueRejects(t *testing.T) {
	_, err := DecodeValue(types.DataTypeUint, []byte{1, 2, 3})
	require.ErrorIs(t, err, types.ErrInvalidFieldValue)
	_, err = DecodeValue(types.DataTypeBool, []byte{2})
	require.ErrorIs(t, err, types.ErrInvalidFieldValue)
	_, err = DecodeValue(types.DataTypeString, []byte{0xff, 0xfe})
	require.ErrorIs(t, err, types.ErrInvalidFieldValue)
}

func TestFormatValue(t *testing.T) {
	b, err := EncodeValue(types.DataTypeUint, "42")
	require.NoError(t, err)
	assert.Equal(t, "42", FormatValue(types.DataTypeUint, b))
	assert.Equal(t, "0x0102", FormatValue(types.DataTypeUint, []byte{1, 2}))

	b, err = EncodeValue(types.DataTypeMap, `{"z":1,"a":2}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"z":1}`, FormatValue(types.DataTypeMap, b))
}
