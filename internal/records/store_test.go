package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/nameward/internal/schema"
	"github.com/mesh-intelligence/nameward/pkg/types"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// backends returns one constructor per BlobStore implementation.
func backends(t *testing.T) map[string]func() BlobStore {
	t.Helper()
	return map[string]func() BlobStore{
		"memory": func() BlobStore { return NewMemoryStore() },
		"badger": func() BlobStore {
			s, err := OpenBadger("")
			require.NoError(t, err)
			return s
		},
		"badger-disk": func() BlobStore {
			s, err := OpenBadger(t.TempDir())
			require.NoError(t, err)
			return s
		},
	}
}

func priceSchemas(t *testing.T) *schema.Registry {
	t.Helper()
	r := schema.New()
	_, _, err := r.Define("admin", schema.DefineRequest{
		Name:     "price",
		Tier:     types.PriorityHigh,
		Category: "oracle",
		Version:  "1.0.0",
		Fields: []types.SchemaField{
			{FieldName: "price", DataType: types.DataTypeUint, Required: true},
			{FieldName: "live", DataType: types.DataTypeBool},
		},
	}, t0)
	require.NoError(t, err)
	return r
}

func uintValue(t *testing.T, s string) []byte {
	t.Helper()
	b, err := EncodeValue(types.DataTypeUint, s)
	require.NoError(t, err)
	return b
}

func TestSubmitAndRead(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := NewStore(open())
			defer store.Close()
			schemas := priceSchemas(t)

			rec, events, err := store.Submit("feeder", schemas, SubmitRequest{
				Name:          "price",
				SchemaVersion: "1.0.0",
				FieldNames:    []string{"price", "live"},
				FieldValues:   [][]byte{uintValue(t, "1200"), {1}},
			}, t0)
			require.NoError(t, err)
			assert.True(t, rec.Valid)
			assert.Equal(t, "feeder", rec.SubmittedBy)
			assert.Equal(t, ContentHash("price", "1.0.0", rec.FieldNames, rec.FieldValues, t0), rec.ContentHash)
			require.Len(t, events, 1)
			assert.Equal(t, types.EventDataSubmitted, events[0].Type)
			assert.Equal(t, rec.ContentHash.String(), events[0].ContentHash)

			got, err := store.GetRecord("price", rec.ContentHash)
			require.NoError(t, err)
			assert.Equal(t, rec.FieldValues, got.FieldValues)
			assert.True(t, got.Timestamp.Equal(t0))

			second, _, err := store.Submit("feeder", schemas, SubmitRequest{
				Name:          "price",
				SchemaVersion: "1.0.0",
				FieldNames:    []string{"price", "live"},
				FieldValues:   [][]byte{uintValue(t, "1200"), {1}},
			}, t0.Add(time.Second))
			require.NoError(t, err)
			assert.NotEqual(t, rec.ContentHash, second.ContentHash)

			hashes, err := store.ListHashes("price")
			require.NoError(t, err)
			assert.Equal(t, []types.Hash{rec.ContentHash, second.ContentHash}, hashes)

			latest, err := store.LatestRecord("price")
			require.NoError(t, err)
			assert.Equal(t, second.ContentHash, latest.ContentHash)
		})
	}
}

func TestSubmitRejects(t *testing.T) {
	schemas := priceSchemas(t)
	price := uintValue(t, "5")

	tests := []struct {
		name    string
		req     SubmitRequest
		wantErr error
	}{
		{
			name:    "no schema",
			req:     SubmitRequest{Name: "unknown", SchemaVersion: "1.0.0", FieldNames: []string{"price"}, FieldValues: [][]byte{price}},
			wantErr: types.ErrSchemaNotFound,
		},
		{
			name:    "version mismatch",
			req:     SubmitRequest{Name: "price", SchemaVersion: "0.9.0", FieldNames: []string{"price"}, FieldValues: [][]byte{price}},
			wantErr: types.ErrVersionMismatch,
		},
		{
			name:    "unknown field",
			req:     SubmitRequest{Name: "price", SchemaVersion: "1.0.0", FieldNames: []string{"price", "volume"}, FieldValues: [][]byte{price, price}},
			wantErr: types.ErrFieldNotFound,
		},
		{
			name:    "duplicate field",
			req:     SubmitRequest{Name: "price", SchemaVersion: "1.0.0", FieldNames: []string{"price", "price"}, FieldValues: [][]byte{price, price}},
			wantErr: types.ErrDuplicateField,
		},
		{
			name:    "missing required",
			req:     SubmitRequest{Name: "price", SchemaVersion: "1.0.0", FieldNames: []string{"live"}, FieldValues: [][]byte{{0}}},
			wantErr: types.ErrMissingRequiredField,
		},
		{
			name:    "bad value",
			req:     SubmitRequest{Name: "price", SchemaVersion: "1.0.0", FieldNames: []string{"price"}, FieldValues: [][]byte{{1, 2}}},
			wantErr: types.ErrInvalidFieldValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(NewMemoryStore())
			_, events, err := store.Submit("feeder", schemas, tt.req, t0)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, events)
			hashes, err := store.ListHashes(tt.req.Name)
			require.NoError(t, err)
			assert.Empty(t, hashes)
		})
	}
}

func TestSubmitFieldMismatchForAnyLengths(t *testing.T) {
	schemas := priceSchemas(t)
	store := NewStore(NewMemoryStore())
	for names := 0; names <= 3; names++ {
		for values := 0; values <= 3; values++ {
			if names == values {
				continue
			}
			req := SubmitRequest{
				Name:          "price",
				SchemaVersion: "1.0.0",
				FieldNames:    make([]string, names),
				FieldValues:   make([][]byte, values),
			}
			_, _, err := store.Submit("feeder", schemas, req, t0)
			require.ErrorIs(t, err, types.ErrFieldMismatch, "names=%d values=%d", names, values)
		}
	}
}

func TestSubmitSameInstantIsDuplicate(t *testing.T) {
	schemas := priceSchemas(t)
	store := NewStore(NewMemoryStore())
	req := SubmitRequest{Name: "price", SchemaVersion: "1.0.0", FieldNames: []string{"price"}, FieldValues: [][]byte{uintValue(t, "1")}}
	_, _, err := store.Submit("feeder", schemas, req, t0)
	require.NoError(t, err)
	_, _, err = store.Submit("feeder", schemas, req, t0)
	require.ErrorIs(t, err, types.ErrDuplicateRecord)
}

func TestInvalidate(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := NewStore(open())
			defer store.Close()
			schemas := priceSchemas(t)
			rec, _, err := store.Submit("feeder", schemas, SubmitRequest{
				Name: "price", SchemaVersion: "1.0.0",
				FieldNames: []string{"price"}, FieldValues: [][]byte{uintValue(t, "9")},
			}, t0)
			require.NoError(t, err)

			events, err := store.Invalidate("mod", "price", rec.ContentHash)
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, types.EventDataInvalidated, events[0].Type)

			got, err := store.GetRecord("price", rec.ContentHash)
			require.NoError(t, err)
			assert.False(t, got.Valid)

			events, err = store.Invalidate("mod", "price", rec.ContentHash)
			require.NoError(t, err)
			assert.Empty(t, events)

			hashes, err := store.ListHashes("price")
			require.NoError(t, err)
			assert.Len(t, hashes, 1, "invalidation keeps the record")

			_, err = store.Invalidate("mod", "price", types.Hash{1})
			require.ErrorIs(t, err, types.ErrRecordNotFound)
		})
	}
}

func TestLatestRecordEmpty(t *testing.T) {
	store := NewStore(NewMemoryStore())
	_, err := store.LatestRecord("price")
	require.ErrorIs(t, err, types.ErrRecordNotFound)
}

func TestBadgerPersists(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put("k", []byte("v")))
	require.NoError(t, s.Append("l", []byte("a")))
	require.NoError(t, s.Append("l", []byte("b")))
	require.NoError(t, s.Close())

	s, err = OpenBadger(dir)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
	items, err := s.List("l")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, items)
	_, err = s.Get("missing")
	require.ErrorIs(t, err, ErrBlobNotFound)
}
