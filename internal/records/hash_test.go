package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContentHash(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	names := []string{"price", "source"}
	values := [][]byte{{1}, []byte("feed")}

	base := ContentHash("price", "1.0.0", names, values, ts)
	assert.Equal(t, base, ContentHash("price", "1.0.0", names, values, ts), "deterministic")
	assert.False(t, base.IsZero())

	assert.NotEqual(t, base, ContentHash("price", "1.0.0", names, values, ts.Add(time.Nanosecond)))
	assert.NotEqual(t, base, ContentHash("price", "1.0.1", names, values, ts))
	assert.NotEqual(t, base, ContentHash("price", "1.0.0", []string{"source", "price"}, values, ts))

	// Length prefixes keep shifted boundaries apart.
	assert.NotEqual(t,
		ContentHash("ab", "c", nil, nil, ts),
		ContentHash("a", "bc", nil, nil, ts),
	)
}

func TestCanonicalLayout(t *testing.T) {
	ts := time.Unix(0, 7)
	got := Canonical("n", "v", []string{"f"}, [][]byte{{9}}, ts)
	want := []byte{
		0, 0, 0, 1, 'n',
		0, 0, 0, 1, 'v',
		0, 0, 0, 1,
		0, 0, 0, 1, 'f',
		0, 0, 0, 1,
		0, 0, 0, 1, 9,
		0, 0, 0, 0, 0, 0, 0, 7,
	}
	assert.Equal(t, want, got)
}
