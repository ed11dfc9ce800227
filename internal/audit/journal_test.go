package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/nameward/internal/event"
	"github.com/mesh-intelligence/nameward/pkg/types"
)

func TestJournalAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	j, err := Open(path)
	require.NoError(t, err)

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.Deliver(types.Event{ID: "1", Type: types.EventSchemaDefined, Name: "price", Timestamp: ts}))
	require.NoError(t, j.Deliver(types.Event{ID: "2", Type: types.EventDataSubmitted, Name: "price", ContentHash: "0xab"}))
	require.NoError(t, j.Sync())
	j.Close()
	j.Close()

	require.ErrorIs(t, j.Deliver(types.Event{}), ErrClosed)

	events, err := Read(path)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, types.EventSchemaDefined, events[0].Type)
	assert.True(t, events[0].Timestamp.Equal(ts))
	assert.Equal(t, "0xab", events[1].ContentHash)

	// Reopening appends rather than truncates.
	j, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Deliver(types.Event{ID: "3", Type: types.EventRoleAdded}))
	j.Close()
	events, err = Read(path)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestReadSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := `{"id":"1","type":"schema.defined","actor":"a"}` + "\n" +
		"not json\n" +
		"\n" +
		`{"id":"2","type":"role.added","actor":"a"}` + "\n" +
		`{"id":"3","ty`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	events, err := Read(path)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "2", events[1].ID)
}

func TestReadMissing(t *testing.T) {
	events, err := Read(filepath.Join(t.TempDir(), "none.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFilter(t *testing.T) {
	events := []types.Event{
		{ID: "1", Name: "a"},
		{ID: "2", Name: "b"},
		{ID: "3", Name: "a"},
		{ID: "4", Name: "a"},
	}
	assert.Len(t, Filter(events, "", 0), 4)
	got := Filter(events, "a", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, "4", got[1].ID)
}

func TestCompact(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	j, err := Open(path)
	require.NoError(t, err)
	for _, id := range []string{"1", "2", "3", "4"} {
		require.NoError(t, j.Deliver(types.Event{ID: id, Type: types.EventRoleAdded}))
	}
	j.Close()

	n, err := Compact(path, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	events, err := Read(path)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "3", events[0].ID)
}

func TestJournalAsBusSubscriber(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	j, err := Open(path)
	require.NoError(t, err)

	bus := event.NewBus()
	bus.Register(event.AllTypes, j)
	bus.Publish(types.Event{ID: "1", Type: types.EventSchemaDefined, Name: "price"})
	bus.Publish(types.Event{ID: "2", Type: types.EventSchemaDeprecated, Name: "price"})
	bus.Stop()

	events, err := Read(path)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, types.EventSchemaDeprecated, events[1].Type)
}
