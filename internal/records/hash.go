package records

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// Canonical returns the order-preserving encoding a content hash is taken
// over. Strings and blobs are written as a uint32 big-endian length followed
// by the bytes; the two lists are each preceded by their element count and
// the timestamp is an int64 big-endian count of Unix nanoseconds.
func Canonical(name, version string, fieldNames []string, fieldValues [][]byte, ts time.Time) []byte {
	size := 8 + 4 + len(name) + 4 + len(version) + 8
	for _, n := range fieldNames {
		size += 4 + len(n)
	}
	for _, v := range fieldValues {
		size += 4 + len(v)
	}

	buf := make([]byte, 0, size)
	buf = appendBytes(buf, []byte(name))
	buf = appendBytes(buf, []byte(version))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(fieldNames)))
	for _, n := range fieldNames {
		buf = appendBytes(buf, []byte(n))
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(fieldValues)))
	for _, v := range fieldValues {
		buf = appendBytes(buf, v)
	}
	buf = binary.BigEndian.AppendUint64(buf, uint64(ts.UnixNano()))
	return buf
}

func appendBytes(buf, b []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

// ContentHash is the SHA-256 of the canonical encoding.
func ContentHash(name, version string, fieldNames []string, fieldValues [][]byte, ts time.Time) types.Hash {
	return sha256.Sum256(Canonical(name, version, fieldNames, fieldValues, ts))
}
