// Package scheduler decides when a schema's attached data is due for refresh
// and records completed refreshes.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// Schedules is the schema-side state the scheduler reads and writes.
type Schedules interface {
	Get(name string) (types.SchemaDefinition, error)
	Names() []string
	AutoUpdate(name string) (types.AutoUpdateConfig, error)
	PutAutoUpdate(name string, cfg types.AutoUpdateConfig, touched time.Time) error
}

// ConfigureRequest sets a schema's refresh schedule.
type ConfigureRequest struct {
	Enabled               bool
	Trigger               types.Trigger
	Frequency             types.Frequency
	CustomIntervalSeconds int64
	UpdateFields          []string
	TriggerConditions     []string
	ExternalTarget        string
	RequireDataChange     bool
	MaxUpdateAge          time.Duration
}

// Scheduler evaluates and fires refresh schedules. It keeps no schedule
// state of its own.
type Scheduler struct {
	clock         func() time.Time
	heights       HeightSource
	blockInterval uint64
	strategies    *Strategies
	logger        *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithHeightSource sets the block height source for BLOCK_BASED triggers.
func WithHeightSource(h HeightSource) Option {
	return func(s *Scheduler) {
		s.heights = h
	}
}

// WithBlockInterval sets the BLOCK_BASED period in blocks.
func WithBlockInterval(n uint64) Option {
	return func(s *Scheduler) {
		s.blockInterval = n
	}
}

// WithStrategies sets the refresh strategies.
func WithStrategies(st Strategies) Option {
	return func(s *Scheduler) {
		s.strategies = &st
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// New returns a Scheduler. Without options it uses the wall clock, a height
// stuck at zero and logging strategies.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:         time.Now,
		heights:       &ManualHeight{},
		blockInterval: types.DefaultBlockInterval,
		logger:        slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.strategies == nil {
		st := LogStrategies(s.logger)
		s.strategies = &st
	}
	return s
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock()
}

// Next returns when a schedule last refreshed at from is next due. It is
// the zero time for FrequencyNever, which never falls due on the clock.
func Next(f types.Frequency, from time.Time, custom time.Duration) time.Time {
	d := f.Interval(custom)
	if d <= 0 {
		return time.Time{}
	}
	return from.Add(d)
}

// Configure replaces the schedule of name. A schedule that becomes enabled
// starts its clock now; one that stays enabled keeps its last refresh time.
func (s *Scheduler) Configure(actor string, sched Schedules, name string, req ConfigureRequest) ([]types.Event, error) {
	if !req.Trigger.Valid() {
		return nil, fmt.Errorf("configure %s: %w: %q", name, types.ErrUnknownTrigger, req.Trigger)
	}
	if !req.Frequency.Valid() {
		return nil, fmt.Errorf("configure %s: %w: %q", name, types.ErrUnknownFrequency, req.Frequency)
	}
	if req.Frequency == types.FrequencyCustom &&
		(req.CustomIntervalSeconds <= 0 || req.CustomIntervalSeconds > types.MaxCustomIntervalSeconds) {
		return nil, fmt.Errorf("configure %s: %w: %d seconds", name, types.ErrInvalidInterval, req.CustomIntervalSeconds)
	}
	if req.MaxUpdateAge < 0 {
		return nil, fmt.Errorf("configure %s: %w: max update age %s", name, types.ErrInvalidInterval, req.MaxUpdateAge)
	}
	cur, err := sched.AutoUpdate(name)
	if err != nil {
		return nil, fmt.Errorf("configure: %w", err)
	}

	cfg := types.AutoUpdateConfig{
		Enabled:               req.Enabled,
		Trigger:               req.Trigger,
		Frequency:             req.Frequency,
		LastUpdateTime:        cur.LastUpdateTime,
		CustomIntervalSeconds: req.CustomIntervalSeconds,
		UpdateFields:          append([]string(nil), req.UpdateFields...),
		TriggerConditions:     append([]string(nil), req.TriggerConditions...),
		ExternalTarget:        req.ExternalTarget,
		RequireDataChange:     req.RequireDataChange,
		MaxUpdateAge:          req.MaxUpdateAge,
		LastBlock:             cur.LastBlock,
	}
	if req.Frequency != types.FrequencyCustom {
		cfg.CustomIntervalSeconds = 0
	}
	switch {
	case req.Enabled && !cur.Enabled:
		now := s.clock()
		cfg.LastUpdateTime = now
		cfg.NextUpdateTime = Next(cfg.Frequency, now, cfg.CustomInterval())
		cfg.LastBlock = s.heights.CurrentHeight()
	case req.Enabled:
		cfg.NextUpdateTime = Next(cfg.Frequency, cfg.LastUpdateTime, cfg.CustomInterval())
		cfg.ReportedAt = cur.ReportedAt
	}

	if err := sched.PutAutoUpdate(name, cfg, time.Time{}); err != nil {
		return nil, fmt.Errorf("configure: %w", err)
	}
	return []types.Event{{
		Type:    types.EventAutoUpdateConfigured,
		Actor:   actor,
		Name:    types.Normalize(name),
		Key:     string(cfg.Trigger),
		Subject: string(cfg.Frequency),
	}}, nil
}

// due reports whether cfg is due at now and the given block height.
func (s *Scheduler) due(cfg types.AutoUpdateConfig, now time.Time, height uint64) bool {
	if !cfg.Enabled {
		return false
	}
	if cfg.MaxUpdateAge > 0 && !cfg.LastUpdateTime.IsZero() && now.Sub(cfg.LastUpdateTime) >= cfg.MaxUpdateAge {
		return true
	}
	switch cfg.Trigger {
	case types.TriggerTimeBased:
		return !cfg.NextUpdateTime.IsZero() && !now.Before(cfg.NextUpdateTime)
	case types.TriggerBlockBased:
		return s.blockInterval > 0 && height > 0 && height%s.blockInterval == 0 && height != cfg.LastBlock
	case types.TriggerManual, types.TriggerEventBased, types.TriggerConditional, types.TriggerExternalCall:
		return !cfg.ReportedAt.IsZero()
	}
	return false
}

// NeedsUpdate reports whether the schedule of name is due now.
func (s *Scheduler) NeedsUpdate(sched Schedules, name string) (bool, error) {
	cfg, err := sched.AutoUpdate(name)
	if err != nil {
		return false, err
	}
	return s.due(cfg, s.clock(), s.heights.CurrentHeight()), nil
}

// DueSchemas lists every name whose schedule is due now, sorted.
func (s *Scheduler) DueSchemas(sched Schedules) []string {
	now := s.clock()
	height := s.heights.CurrentHeight()
	var out []string
	for _, name := range sched.Names() {
		cfg, err := sched.AutoUpdate(name)
		if err != nil {
			continue
		}
		if s.due(cfg, now, height) {
			out = append(out, name)
		}
	}
	return out
}

// ReportTrigger records that an external collaborator saw the trigger of
// name fire. Only externally evaluated trigger kinds accept reports.
func (s *Scheduler) ReportTrigger(actor string, sched Schedules, name string) ([]types.Event, error) {
	cfg, err := sched.AutoUpdate(name)
	if err != nil {
		return nil, fmt.Errorf("report trigger: %w", err)
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("report trigger %s: %w", name, types.ErrAutoUpdateDisabled)
	}
	if !cfg.Trigger.Reported() {
		return nil, fmt.Errorf("report trigger %s: %w: %s", name, types.ErrNotReported, cfg.Trigger)
	}
	cfg.ReportedAt = s.clock()
	if err := sched.PutAutoUpdate(name, cfg, time.Time{}); err != nil {
		return nil, fmt.Errorf("report trigger: %w", err)
	}
	return []types.Event{{
		Type:  types.EventAutoUpdateReported,
		Actor: actor,
		Name:  types.Normalize(name),
		Key:   string(cfg.Trigger),
	}}, nil
}

// Firing is a due refresh resolved against one state. Run executes its
// strategy without any engine lock held; Complete advances the schedule.
type Firing struct {
	Name     string
	schema   types.SchemaDefinition
	config   types.AutoUpdateConfig
	strategy RefreshStrategy
	at       time.Time
	height   uint64
}

// Prepare checks that name is enabled and due and resolves its strategy.
// It reads sched only.
func (s *Scheduler) Prepare(sched Schedules, name string) (*Firing, error) {
	cfg, err := sched.AutoUpdate(name)
	if err != nil {
		return nil, fmt.Errorf("trigger: %w", err)
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("trigger %s: %w", name, types.ErrAutoUpdateDisabled)
	}
	now := s.clock()
	height := s.heights.CurrentHeight()
	if !s.due(cfg, now, height) {
		return nil, fmt.Errorf("trigger %s: %w", name, types.ErrNotDue)
	}
	strategy, err := s.strategies.For(cfg.Trigger)
	if err != nil {
		return nil, fmt.Errorf("trigger %s: %w", name, err)
	}
	def, err := sched.Get(name)
	if err != nil {
		return nil, fmt.Errorf("trigger: %w", err)
	}
	return &Firing{
		Name:     def.Name,
		schema:   def,
		config:   cfg.Clone(),
		strategy: strategy,
		at:       now,
		height:   height,
	}, nil
}

// Run calls the refresh strategy of f.
func (s *Scheduler) Run(ctx context.Context, f *Firing) error {
	err := f.strategy.Refresh(ctx, RefreshRequest{
		Name:   f.Name,
		Schema: f.schema,
		Config: f.config.Clone(),
		At:     f.at,
		Height: f.height,
	})
	if err != nil {
		s.logger.Warn("refresh failed",
			"component", "scheduler",
			"name", f.Name,
			"trigger", string(f.config.Trigger),
			"err", err,
		)
		return fmt.Errorf("trigger %s: refresh: %w", f.Name, err)
	}
	return nil
}

// Complete advances the schedule of a firing whose strategy succeeded. It
// fails with ErrNotDue when the schedule was refreshed or reconfigured
// after Prepare.
func (s *Scheduler) Complete(actor string, sched Schedules, f *Firing) ([]types.Event, error) {
	cfg, err := sched.AutoUpdate(f.Name)
	if err != nil {
		return nil, fmt.Errorf("trigger: %w", err)
	}
	if !sameSchedule(cfg, f.config) {
		return nil, fmt.Errorf("trigger %s: %w: schedule changed during refresh", f.Name, types.ErrNotDue)
	}

	cfg.LastUpdateTime = f.at
	cfg.NextUpdateTime = Next(cfg.Frequency, f.at, cfg.CustomInterval())
	cfg.ReportedAt = time.Time{}
	if cfg.Trigger == types.TriggerBlockBased {
		cfg.LastBlock = f.height
	}
	if err := sched.PutAutoUpdate(f.Name, cfg, f.at); err != nil {
		return nil, fmt.Errorf("trigger: %w", err)
	}
	return []types.Event{{
		Type:  types.EventAutoUpdateTriggered,
		Actor: actor,
		Name:  f.Name,
		Key:   string(cfg.Trigger),
	}}, nil
}

// sameSchedule reports whether nothing that decides due-ness moved between
// a and b.
func sameSchedule(a, b types.AutoUpdateConfig) bool {
	return a.Enabled == b.Enabled &&
		a.Trigger == b.Trigger &&
		a.Frequency == b.Frequency &&
		a.LastUpdateTime.Equal(b.LastUpdateTime) &&
		a.ReportedAt.Equal(b.ReportedAt) &&
		a.LastBlock == b.LastBlock
}

// Trigger fires the refresh of name if it is due. The strategy for the
// trigger kind runs first; the schedule advances only if it succeeds.
func (s *Scheduler) Trigger(ctx context.Context, actor string, sched Schedules, name string) ([]types.Event, error) {
	f, err := s.Prepare(sched, name)
	if err != nil {
		return nil, err
	}
	if err := s.Run(ctx, f); err != nil {
		return nil, err
	}
	return s.Complete(actor, sched, f)
}
