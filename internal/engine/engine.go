// Package engine composes the reserved-word registry, validator, schema
// registry, attached-data store, scheduler and access control into one
// serialized mutation log over an immutable state snapshot.
//
// Readers load the current snapshot and never block. Writers take a single
// lock, authorize the caller, apply the mutation to a clone and swap the
// clone in only on success. Committed events are published after the lock
// is released.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/nameward/internal/event"
	"github.com/mesh-intelligence/nameward/internal/records"
	"github.com/mesh-intelligence/nameward/internal/scheduler"
	"github.com/mesh-intelligence/nameward/internal/validator"
	"github.com/mesh-intelligence/nameward/pkg/types"
)

// BlobDir is the badger directory inside the data directory.
const BlobDir = "blobs"

// SnapshotStore persists committed state. Save runs under the writer lock,
// before the new state becomes visible; a failed save aborts the mutation.
type SnapshotStore interface {
	Load(ctx context.Context) (types.Snapshot, bool, error)
	Save(ctx context.Context, snap types.Snapshot) error
}

// Engine is the reserved-namespace engine. It is safe for concurrent use.
type Engine struct {
	cfg types.Config

	state atomic.Pointer[State]
	mu    sync.Mutex

	records   *records.Store
	validator *validator.Validator
	scheduler *scheduler.Scheduler
	bus       *event.Bus
	ownsBus   bool
	snapshots SnapshotStore

	clock   func() time.Time
	logger  *slog.Logger
	metrics *metrics

	// collected from options before construction
	reg        prometheus.Registerer
	resolver   validator.Resolver
	heights    scheduler.HeightSource
	strategies *scheduler.Strategies
	blobs      records.BlobStore
	initial    *State
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source for timestamps and scheduling.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRegisterer registers engine and event bus metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		if reg != nil {
			e.reg = reg
			e.metrics = newMetrics(reg)
		}
	}
}

// WithResolver sets the external name-resolution collaborator.
func WithResolver(r validator.Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithHeightSource sets the block height source for block-based triggers.
func WithHeightSource(h scheduler.HeightSource) Option {
	return func(e *Engine) {
		e.heights = h
	}
}

// WithStrategies sets the refresh strategies fired by Trigger.
func WithStrategies(st scheduler.Strategies) Option {
	return func(e *Engine) {
		e.strategies = &st
	}
}

// WithBus publishes committed events to b. The caller owns b.
func WithBus(b *event.Bus) Option {
	return func(e *Engine) {
		e.bus = b
	}
}

// WithBlobStore overrides the blob backend selected by the config.
func WithBlobStore(b records.BlobStore) Option {
	return func(e *Engine) {
		e.blobs = b
	}
}

// WithSnapshotStore loads the initial state from s and saves every commit.
func WithSnapshotStore(s SnapshotStore) Option {
	return func(e *Engine) {
		e.snapshots = s
	}
}

// WithState starts the engine from st instead of a fresh or loaded state.
func WithState(st *State) Option {
	return func(e *Engine) {
		e.initial = st
	}
}

// New builds an engine from cfg.
func New(ctx context.Context, cfg types.Config, opts ...Option) (*Engine, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	e := &Engine{
		cfg:    cfg,
		clock:  time.Now,
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}

	st, err := e.initialState(ctx)
	if err != nil {
		return nil, err
	}
	e.state.Store(st)

	if e.blobs == nil {
		e.blobs, err = openBlobs(cfg, e.logger)
		if err != nil {
			return nil, err
		}
	}
	e.records = records.NewStore(e.blobs)

	vopts := []validator.Option{
		validator.WithTimeout(cfg.ResolverTimeout),
		validator.WithLogger(e.logger),
	}
	if e.resolver != nil {
		vopts = append(vopts, validator.WithResolver(e.resolver))
	}
	e.validator = validator.New(vopts...)

	sopts := []scheduler.Option{
		scheduler.WithClock(e.clock),
		scheduler.WithBlockInterval(cfg.BlockInterval),
		scheduler.WithLogger(e.logger),
	}
	if e.heights != nil {
		sopts = append(sopts, scheduler.WithHeightSource(e.heights))
	}
	if e.strategies != nil {
		sopts = append(sopts, scheduler.WithStrategies(*e.strategies))
	}
	e.scheduler = scheduler.New(sopts...)

	if e.bus == nil {
		e.bus = event.NewBus(event.WithLogger(e.logger), event.WithRegisterer(e.reg))
		e.ownsBus = true
	}
	e.metrics.observeSchemas(st.Schemas.Statistics())
	return e, nil
}

func (e *Engine) initialState(ctx context.Context) (*State, error) {
	if e.initial != nil {
		return e.initial, nil
	}
	if e.snapshots != nil {
		snap, ok, err := e.snapshots.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		if ok {
			return StateFromSnapshot(snap)
		}
	}
	st, err := NewState(e.cfg.Owner)
	if err != nil {
		return nil, err
	}
	if e.cfg.ReservedFile != "" {
		n, err := st.Reserved.LoadFile(e.cfg.ReservedFile)
		if err != nil {
			return nil, fmt.Errorf("load reserved file: %w", err)
		}
		e.logger.Debug("reserved entries loaded",
			"component", "engine",
			"file", e.cfg.ReservedFile,
			"count", n,
		)
	}
	return st, nil
}

func openBlobs(cfg types.Config, logger *slog.Logger) (records.BlobStore, error) {
	switch cfg.BlobBackend {
	case types.BlobBackendMemory:
		return records.NewMemoryStore(), nil
	case types.BlobBackendBadger:
		dir := ""
		if cfg.DataDir != "" {
			dir = filepath.Join(cfg.DataDir, BlobDir)
		}
		return records.OpenBadger(dir, records.WithBadgerLogger(logger))
	}
	return nil, fmt.Errorf("%w: %s", types.ErrBlobBackendUnknown, cfg.BlobBackend)
}

// Bus returns the event bus committed events are published to.
func (e *Engine) Bus() *event.Bus {
	return e.bus
}

// Config returns the effective configuration.
func (e *Engine) Config() types.Config {
	return e.cfg
}

// State returns the current committed snapshot. Callers must not mutate it.
func (e *Engine) State() *State {
	return e.state.Load()
}

// Close releases the blob store and, if the engine created it, the bus.
func (e *Engine) Close() error {
	if e.ownsBus {
		e.bus.Stop()
	}
	return e.records.Close()
}

// commit authorizes caller against the current state, runs fn on a clone
// and installs the clone if fn succeeds. fn may return no events to signal
// a no-op, in which case the state is left as is.
func (e *Engine) commit(ctx context.Context, op, caller string, minimum types.Role, fn func(*State) ([]types.Event, error)) (err error) {
	var events []types.Event
	defer func() {
		e.metrics.observeOp(op, err)
		if err != nil {
			e.logger.Debug("operation rejected",
				"component", "engine",
				"op", op,
				"actor", caller,
				"err", err,
			)
			return
		}
		e.bus.PublishAll(events)
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.state.Load()
	if err := cur.Roles.Authorize(caller, minimum); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	next := cur.clone()
	events, err = fn(next)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	if e.snapshots != nil {
		snap := next.Snapshot()
		snap.SavedAt = e.clock()
		if err := e.snapshots.Save(ctx, snap); err != nil {
			events = nil
			return fmt.Errorf("%s: save snapshot: %w", op, err)
		}
	}
	e.state.Store(next)
	e.stamp(events)
	e.metrics.observeSchemas(next.Schemas.Statistics())
	e.logger.Info("committed",
		"component", "engine",
		"op", op,
		"actor", caller,
		"events", len(events),
	)
	return nil
}

// external runs fn under the writer lock without cloning state, for
// mutations that only touch the blob store.
func (e *Engine) external(op, caller string, minimum types.Role, fn func(*State) ([]types.Event, error)) (err error) {
	var events []types.Event
	defer func() {
		e.metrics.observeOp(op, err)
		if err == nil {
			e.bus.PublishAll(events)
		}
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.state.Load()
	if err := cur.Roles.Authorize(caller, minimum); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	events, err = fn(cur)
	if err != nil {
		return err
	}
	e.stamp(events)
	return nil
}

func (e *Engine) stamp(events []types.Event) {
	now := e.clock()
	for i := range events {
		id, err := uuid.NewV7()
		if err != nil {
			id = uuid.New()
		}
		events[i].ID = id.String()
		events[i].Timestamp = now
	}
}

// SaveSnapshot writes the current state to the snapshot store. Commits save
// on their own; this is for persisting a freshly created state.
func (e *Engine) SaveSnapshot(ctx context.Context) error {
	if e.snapshots == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.state.Load().Snapshot()
	snap.SavedAt = e.clock()
	if err := e.snapshots.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
