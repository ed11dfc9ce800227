package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/nameward/internal/engine"
	"github.com/mesh-intelligence/nameward/internal/event"
	"github.com/mesh-intelligence/nameward/internal/records"
	"github.com/mesh-intelligence/nameward/internal/scheduler"
	"github.com/mesh-intelligence/nameward/internal/schema"
	"github.com/mesh-intelligence/nameward/internal/sqlite"
	"github.com/mesh-intelligence/nameward/internal/validator"
	"github.com/mesh-intelligence/nameward/pkg/types"
)

const owner = "owner"

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// memSnapshots is an in-memory snapshot store that can be told to fail.
type memSnapshots struct {
	snap  types.Snapshot
	saved bool
	fail  error
}

func (m *memSnapshots) Load(context.Context) (types.Snapshot, bool, error) {
	return m.snap, m.saved, nil
}

func (m *memSnapshots) Save(_ context.Context, snap types.Snapshot) error {
	if m.fail != nil {
		return m.fail
	}
	m.snap = snap
	m.saved = true
	return nil
}

func newEngine(t *testing.T, opts ...engine.Option) (*engine.Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: t0}
	base := []engine.Option{
		engine.WithClock(clock.Now),
		engine.WithBlobStore(records.NewMemoryStore()),
	}
	e, err := engine.New(context.Background(), types.Config{Owner: owner}, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e, clock
}

func priceFeed(version string) schema.DefineRequest {
	return schema.DefineRequest{
		Name:     "price-feed",
		Tier:     types.PriorityHigh,
		Category: "oracle",
		Version:  version,
		Fields: []types.SchemaField{
			{FieldName: "pair", DataType: types.DataTypeString, Required: true},
			{FieldName: "price", DataType: types.DataTypeUint, Required: true},
		},
	}
}

func encode(t *testing.T, dt types.DataType, s string) []byte {
	t.Helper()
	b, err := records.EncodeValue(dt, s)
	require.NoError(t, err)
	return b
}

func priceSubmission(t *testing.T, price string) records.SubmitRequest {
	return records.SubmitRequest{
		Name:          "price-feed",
		SchemaVersion: "1.0.0",
		FieldNames:    []string{"pair", "price"},
		FieldValues: [][]byte{
			encode(t, types.DataTypeString, "ETH/USD"),
			encode(t, types.DataTypeUint, price),
		},
	}
}

func TestNewRequiresOwner(t *testing.T) {
	_, err := engine.New(context.Background(), types.Config{}, engine.WithBlobStore(records.NewMemoryStore()))
	assert.ErrorIs(t, err, types.ErrOwnerEmpty)
}

func TestValidateScenario(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	res := e.Validate(ctx, "admin", "")
	assert.False(t, res.IsValid)
	assert.True(t, res.IsReserved)
	assert.Equal(t, types.PriorityCritical, res.Priority)

	res = e.Validate(ctx, "my-dao-1", "")
	assert.True(t, res.IsValid)
	assert.Equal(t, types.PriorityLow, res.Priority)

	res = e.Validate(ctx, "-bad-", "")
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], "start with a hyphen")
	assert.Contains(t, res.Errors[1], "end with a hyphen")

	res = e.Validate(ctx, "governance", "")
	assert.True(t, res.IsReserved)
	assert.Equal(t, types.PriorityCritical, res.Priority)
	assert.NotEmpty(t, res.Errors)
}

func TestValidateUsesResolver(t *testing.T) {
	r := validator.NewStaticResolver(map[string]string{"taken.dao.eth": "0xabc"})
	e, _ := newEngine(t, engine.WithResolver(r))

	out := e.ValidateBatch(context.Background(), []string{"taken", "free"}, "dao.eth")
	require.Len(t, out, 2)
	assert.True(t, out[0].HasIssue(types.IssueAlreadyExists))
	assert.True(t, out[1].IsValid)
}

func TestReservedWordsAffectValidation(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	require.NoError(t, e.AddReserved(ctx, owner, types.ReservedWord{
		Word:     "Treasury-Ops",
		Tier:     types.PriorityHigh,
		Category: "finance",
	}))
	assert.True(t, e.IsReserved("treasury-ops"))
	p, ok := e.PriorityOf("treasury-ops")
	require.True(t, ok)
	assert.Equal(t, types.PriorityHigh, p)
	assert.False(t, e.Validate(ctx, "treasury-ops", "").IsValid)

	require.NoError(t, e.RemoveReserved(ctx, owner, "treasury-ops", types.MatchExact))
	assert.True(t, e.Validate(ctx, "treasury-ops", "").IsValid)

	err := e.RemoveReserved(ctx, owner, "admin", types.MatchExact)
	assert.ErrorIs(t, err, types.ErrProtectedEntry)
}

func TestSchemaLifecycle(t *testing.T) {
	e, clock := newEngine(t)
	ctx := context.Background()

	def, err := e.DefineSchema(ctx, owner, priceFeed("1.0.0"))
	require.NoError(t, err)
	assert.True(t, def.Active)
	assert.Equal(t, t0, def.CreatedAt)

	_, err = e.DefineSchema(ctx, owner, priceFeed("1.0.0"))
	assert.ErrorIs(t, err, types.ErrAlreadyDefined)

	got, err := e.GetSchema("price-feed")
	require.NoError(t, err)
	assert.Equal(t, def, got)

	stats := e.Statistics()
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.High)

	clock.Advance(time.Minute)
	updated, err := e.UpdateSchema(ctx, owner, priceFeed("1.1.0"))
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", updated.Version)
	assert.Equal(t, t0, updated.CreatedAt)
	assert.Equal(t, t0.Add(time.Minute), updated.UpdatedAt)
	assert.Equal(t, 1, e.Statistics().Total)

	_, err = e.UpdateSchema(ctx, owner, schema.DefineRequest{Name: "missing", Version: "1", Tier: types.PriorityLow,
		Fields: []types.SchemaField{{FieldName: "x", DataType: types.DataTypeBool}}})
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, e.RemoveSchema(ctx, owner, "missing"), types.ErrNotFound)

	require.NoError(t, e.RemoveSchema(ctx, owner, "price-feed"))
	assert.Equal(t, 0, e.Statistics().Total)
	assert.Empty(t, e.ListByCategory("oracle"))

	_, err = e.DefineSchema(ctx, owner, priceFeed("2.0.0"))
	require.NoError(t, err)
	assert.Equal(t, 1, e.Statistics().Total)
	assert.Equal(t, []string{"price-feed"}, e.SchemaNames())
}

func TestTextRecordsAndENS(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	_, err := e.DefineSchema(ctx, owner, priceFeed("1.0.0"))
	require.NoError(t, err)

	require.NoError(t, e.SetTextRecord(ctx, owner, "price-feed", "url", "https://example.org"))
	v, err := e.GetTextRecord("price-feed", "url")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", v)

	assert.ErrorIs(t, e.SetTextRecord(ctx, owner, "price-feed", "", "x"), types.ErrInvalidTextRecord)

	require.NoError(t, e.SetENSEnabled(ctx, owner, "price-feed", true))
	def, err := e.GetSchema("price-feed")
	require.NoError(t, err)
	assert.True(t, def.ENSEnabled)
}

func TestAuthorization(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	_, err := e.DefineSchema(ctx, "stranger", priceFeed("1.0.0"))
	assert.ErrorIs(t, err, types.ErrUnauthorized)
	assert.Equal(t, 0, e.Statistics().Total)

	require.NoError(t, e.AddRole(ctx, owner, "alice", types.RoleAdministrator))
	require.NoError(t, e.AddRole(ctx, "alice", "mod", types.RoleModerator))
	assert.Equal(t, types.RoleModerator, e.RoleOf("mod"))

	// administrators cannot appoint administrators
	err = e.AddRole(ctx, "alice", "bob", types.RoleAdministrator)
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = e.DefineSchema(ctx, "mod", priceFeed("1.0.0"))
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = e.DefineSchema(ctx, "alice", priceFeed("1.0.0"))
	require.NoError(t, err)

	assert.ErrorIs(t, e.RemoveRole(ctx, owner, owner, types.RoleAdministrator), types.ErrCannotRemoveOwner)
	require.NoError(t, e.RemoveRole(ctx, "alice", "mod", types.RoleModerator))
	assert.Equal(t, types.RoleNone, e.RoleOf("mod"))

	assert.ErrorIs(t, e.TransferOwnership(ctx, "alice", "alice"), types.ErrUnauthorized)
	require.NoError(t, e.TransferOwnership(ctx, owner, "alice"))
	assert.Equal(t, "alice", e.Owner())
	assert.Equal(t, types.RoleAdministrator, e.RoleOf(owner))
}

func TestSubmitAndInvalidate(t *testing.T) {
	e, clock := newEngine(t)
	ctx := context.Background()
	_, err := e.DefineSchema(ctx, owner, priceFeed("1.0.0"))
	require.NoError(t, err)
	require.NoError(t, e.AddRole(ctx, owner, "feeder", types.RoleDataProvider))
	require.NoError(t, e.AddRole(ctx, owner, "mod", types.RoleModerator))

	_, err = e.Submit(ctx, "stranger", priceSubmission(t, "3000"))
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	first, err := e.Submit(ctx, "feeder", priceSubmission(t, "3000"))
	require.NoError(t, err)
	assert.True(t, first.Valid)
	assert.Equal(t, "feeder", first.SubmittedBy)

	clock.Advance(time.Second)
	second, err := e.Submit(ctx, "feeder", priceSubmission(t, "3000"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ContentHash, second.ContentHash)

	hashes, err := e.ListHashes("price-feed")
	require.NoError(t, err)
	assert.Equal(t, []types.Hash{first.ContentHash, second.ContentHash}, hashes)

	latest, err := e.LatestRecord("price-feed")
	require.NoError(t, err)
	assert.Equal(t, second.ContentHash, latest.ContentHash)

	req := priceSubmission(t, "1")
	req.FieldValues = req.FieldValues[:1]
	_, err = e.Submit(ctx, "feeder", req)
	assert.ErrorIs(t, err, types.ErrFieldMismatch)

	assert.ErrorIs(t, e.Invalidate(ctx, "feeder", "price-feed", first.ContentHash), types.ErrUnauthorized)
	require.NoError(t, e.Invalidate(ctx, "mod", "price-feed", first.ContentHash))
	rec, err := e.GetRecord("price-feed", first.ContentHash)
	require.NoError(t, err)
	assert.False(t, rec.Valid)
}

func TestDailyAutoUpdate(t *testing.T) {
	var refreshed []string
	strategies := scheduler.LogStrategies(nil)
	strategies.TimeBased = scheduler.RefreshFunc(func(_ context.Context, req scheduler.RefreshRequest) error {
		refreshed = append(refreshed, req.Name)
		return nil
	})
	e, clock := newEngine(t, engine.WithStrategies(strategies))
	ctx := context.Background()
	_, err := e.DefineSchema(ctx, owner, priceFeed("1.0.0"))
	require.NoError(t, err)

	require.NoError(t, e.ConfigureAutoUpdate(ctx, owner, "price-feed", scheduler.ConfigureRequest{
		Enabled:   true,
		Trigger:   types.TriggerTimeBased,
		Frequency: types.FrequencyDaily,
	}))
	cfg, err := e.AutoUpdate("price-feed")
	require.NoError(t, err)
	assert.Equal(t, cfg.LastUpdateTime.Add(24*time.Hour), cfg.NextUpdateTime)

	due, err := e.NeedsUpdate("price-feed")
	require.NoError(t, err)
	assert.False(t, due)
	assert.ErrorIs(t, e.Trigger(ctx, owner, "price-feed"), types.ErrNotDue)

	clock.Advance(24 * time.Hour)
	assert.Equal(t, []string{"price-feed"}, e.DueSchemas())
	require.NoError(t, e.Trigger(ctx, owner, "price-feed"))
	assert.Equal(t, []string{"price-feed"}, refreshed)

	cfg, err = e.AutoUpdate("price-feed")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(24*time.Hour), cfg.LastUpdateTime)
	due, err = e.NeedsUpdate("price-feed")
	require.NoError(t, err)
	assert.False(t, due)
}

func TestReportedTrigger(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	_, err := e.DefineSchema(ctx, owner, priceFeed("1.0.0"))
	require.NoError(t, err)
	require.NoError(t, e.ConfigureAutoUpdate(ctx, owner, "price-feed", scheduler.ConfigureRequest{
		Enabled:   true,
		Trigger:   types.TriggerEventBased,
		Frequency: types.FrequencyNever,
	}))
	assert.Empty(t, e.DueSchemas())

	require.NoError(t, e.ReportTrigger(ctx, owner, "price-feed"))
	assert.Equal(t, []string{"price-feed"}, e.DueSchemas())
	require.NoError(t, e.Trigger(ctx, owner, "price-feed"))
	assert.Empty(t, e.DueSchemas())
}

func TestFailedTriggerLeavesStateUnchanged(t *testing.T) {
	strategies := scheduler.LogStrategies(nil)
	strategies.EventBased = scheduler.RefreshFunc(func(context.Context, scheduler.RefreshRequest) error {
		return errors.New("upstream down")
	})
	e, _ := newEngine(t, engine.WithStrategies(strategies))
	ctx := context.Background()
	_, err := e.DefineSchema(ctx, owner, priceFeed("1.0.0"))
	require.NoError(t, err)
	require.NoError(t, e.ConfigureAutoUpdate(ctx, owner, "price-feed", scheduler.ConfigureRequest{
		Enabled:   true,
		Trigger:   types.TriggerEventBased,
		Frequency: types.FrequencyNever,
	}))
	require.NoError(t, e.ReportTrigger(ctx, owner, "price-feed"))
	before := e.State()

	require.Error(t, e.Trigger(ctx, owner, "price-feed"))
	assert.Same(t, before, e.State())
	assert.Equal(t, []string{"price-feed"}, e.DueSchemas())
}

func TestStrategyRunsOutsideWriterLock(t *testing.T) {
	var e *engine.Engine
	strategies := scheduler.LogStrategies(nil)
	strategies.EventBased = scheduler.RefreshFunc(func(ctx context.Context, _ scheduler.RefreshRequest) error {
		// A mutation from inside the refresh must not wait on the trigger.
		return e.AddRole(ctx, owner, "feeder", types.RoleDataProvider)
	})
	e, _ = newEngine(t, engine.WithStrategies(strategies))
	ctx := context.Background()
	_, err := e.DefineSchema(ctx, owner, priceFeed("1.0.0"))
	require.NoError(t, err)
	require.NoError(t, e.ConfigureAutoUpdate(ctx, owner, "price-feed", scheduler.ConfigureRequest{
		Enabled:   true,
		Trigger:   types.TriggerEventBased,
		Frequency: types.FrequencyNever,
	}))
	require.NoError(t, e.ReportTrigger(ctx, owner, "price-feed"))

	done := make(chan error, 1)
	go func() { done <- e.Trigger(ctx, owner, "price-feed") }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("trigger blocked on the writer lock")
	}
	assert.Equal(t, types.RoleDataProvider, e.RoleOf("feeder"))
	assert.Empty(t, e.DueSchemas())
}

func TestTriggerNotRecordedWhenScheduleMoves(t *testing.T) {
	var e *engine.Engine
	strategies := scheduler.LogStrategies(nil)
	strategies.EventBased = scheduler.RefreshFunc(func(ctx context.Context, _ scheduler.RefreshRequest) error {
		return e.ConfigureAutoUpdate(ctx, owner, "price-feed", scheduler.ConfigureRequest{
			Enabled:   false,
			Trigger:   types.TriggerEventBased,
			Frequency: types.FrequencyNever,
		})
	})
	e, _ = newEngine(t, engine.WithStrategies(strategies))
	ctx := context.Background()
	_, err := e.DefineSchema(ctx, owner, priceFeed("1.0.0"))
	require.NoError(t, err)
	require.NoError(t, e.ConfigureAutoUpdate(ctx, owner, "price-feed", scheduler.ConfigureRequest{
		Enabled:   true,
		Trigger:   types.TriggerEventBased,
		Frequency: types.FrequencyNever,
	}))
	require.NoError(t, e.ReportTrigger(ctx, owner, "price-feed"))

	assert.ErrorIs(t, e.Trigger(ctx, owner, "price-feed"), types.ErrNotDue)
	cfg, err := e.AutoUpdate("price-feed")
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
}

func TestTriggerUnauthorizedSkipsStrategy(t *testing.T) {
	called := false
	strategies := scheduler.LogStrategies(nil)
	strategies.EventBased = scheduler.RefreshFunc(func(context.Context, scheduler.RefreshRequest) error {
		called = true
		return nil
	})
	e, _ := newEngine(t, engine.WithStrategies(strategies))
	ctx := context.Background()
	_, err := e.DefineSchema(ctx, owner, priceFeed("1.0.0"))
	require.NoError(t, err)
	require.NoError(t, e.ConfigureAutoUpdate(ctx, owner, "price-feed", scheduler.ConfigureRequest{
		Enabled:   true,
		Trigger:   types.TriggerEventBased,
		Frequency: types.FrequencyNever,
	}))
	require.NoError(t, e.ReportTrigger(ctx, owner, "price-feed"))

	assert.ErrorIs(t, e.Trigger(ctx, "stranger", "price-feed"), types.ErrUnauthorized)
	assert.False(t, called)
}

func TestEventsPublishedAfterCommit(t *testing.T) {
	bus := event.NewBus()
	t.Cleanup(bus.Stop)
	_, ch := bus.Subscribe(event.AllTypes)
	e, _ := newEngine(t, engine.WithBus(bus))
	ctx := context.Background()

	_, err := e.DefineSchema(ctx, owner, priceFeed("1.0.0"))
	require.NoError(t, err)
	_, err = e.DefineSchema(ctx, owner, priceFeed("1.0.0"))
	require.Error(t, err)

	require.Len(t, ch, 1)
	evt := <-ch
	assert.Equal(t, types.EventSchemaDefined, evt.Type)
	assert.Equal(t, owner, evt.Actor)
	assert.Equal(t, "price-feed", evt.Name)
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, t0, evt.Timestamp)
}

func TestSnapshotSaveFailureAborts(t *testing.T) {
	store := &memSnapshots{}
	e, _ := newEngine(t, engine.WithSnapshotStore(store))
	ctx := context.Background()

	store.fail = errors.New("disk full")
	_, err := e.DefineSchema(ctx, owner, priceFeed("1.0.0"))
	require.Error(t, err)
	assert.Equal(t, 0, e.Statistics().Total)
	_, err = e.GetSchema("price-feed")
	assert.ErrorIs(t, err, types.ErrNotFound)

	store.fail = nil
	_, err = e.DefineSchema(ctx, owner, priceFeed("1.0.0"))
	require.NoError(t, err)
	require.True(t, store.saved)
	assert.Len(t, store.snap.Schemas, 1)
}

func TestSnapshotReload(t *testing.T) {
	store := &memSnapshots{}
	e, _ := newEngine(t, engine.WithSnapshotStore(store))
	ctx := context.Background()
	_, err := e.DefineSchema(ctx, owner, priceFeed("1.0.0"))
	require.NoError(t, err)
	require.NoError(t, e.AddRole(ctx, owner, "feeder", types.RoleDataProvider))
	require.NoError(t, e.AddReserved(ctx, owner, types.ReservedWord{Word: "oracle-hub", Tier: types.PriorityMedium}))

	reloaded, _ := newEngine(t, engine.WithSnapshotStore(store))
	assert.Equal(t, e.ListSchemas(), reloaded.ListSchemas())
	assert.Equal(t, types.RoleDataProvider, reloaded.RoleOf("feeder"))
	assert.True(t, reloaded.IsReserved("oracle-hub"))
}

func TestSQLiteReloadKeepsReservedDetails(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	entry := types.ReservedWord{
		Word:         "oracle-hub",
		Tier:         types.PriorityHigh,
		Category:     "oracle",
		AllowedRoles: []string{"administrator"},
		Restrictions: []string{"kyc-required"},
	}

	store, err := sqlite.Open(dir)
	require.NoError(t, err)
	e, _ := newEngine(t, engine.WithSnapshotStore(store))
	require.NoError(t, e.AddReserved(ctx, owner, entry))
	require.NoError(t, e.Close())
	require.NoError(t, store.Close())

	store, err = sqlite.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	reloaded, _ := newEngine(t, engine.WithSnapshotStore(store))

	var got types.ReservedWord
	for _, w := range reloaded.ReservedEntries(types.MatchExact) {
		if w.Word == "oracle-hub" {
			got = w
		}
	}
	assert.Equal(t, []string{"kyc-required"}, got.Restrictions)
	assert.Equal(t, []string{"administrator"}, got.AllowedRoles)
	assert.Equal(t, "oracle", got.Category)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	e, _ := newEngine(t, engine.WithRegisterer(reg))
	ctx := context.Background()

	_, err := e.DefineSchema(ctx, owner, priceFeed("1.0.0"))
	require.NoError(t, err)
	_, err = e.DefineSchema(ctx, "stranger", priceFeed("1.0.0"))
	require.Error(t, err)
	e.Validate(ctx, "admin", "")

	n, err := testutil.GatherAndCount(reg, "nameward_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = testutil.GatherAndCount(reg, "nameward_validations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = testutil.GatherAndCount(reg, "nameward_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConcurrentReadersSeeWholeCommits(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			st := e.Statistics()
			assert.Equal(t, st.Total, st.Critical+st.High+st.Medium+st.Low)
		}
	}()

	for _, name := range []string{"a-feed", "b-feed", "c-feed", "d-feed"} {
		req := priceFeed("1.0.0")
		req.Name = name
		_, err := e.DefineSchema(ctx, owner, req)
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
	assert.Equal(t, 4, e.Statistics().Total)
}
