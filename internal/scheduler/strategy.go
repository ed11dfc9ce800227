package scheduler

//go:generate mockgen -source=strategy.go -destination=mocks/mocks.go -package=mocks RefreshStrategy,HeightSource

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// RefreshRequest is what a strategy receives when a refresh fires.
type RefreshRequest struct {
	Name   string
	Schema types.SchemaDefinition
	Config types.AutoUpdateConfig
	At     time.Time
	Height uint64
}

// RefreshStrategy performs the refresh for one trigger kind. A returned
// error leaves the schedule untouched.
type RefreshStrategy interface {
	Refresh(ctx context.Context, req RefreshRequest) error
}

// RefreshFunc adapts a function to RefreshStrategy.
type RefreshFunc func(ctx context.Context, req RefreshRequest) error

// Refresh implements RefreshStrategy.
func (f RefreshFunc) Refresh(ctx context.Context, req RefreshRequest) error {
	return f(ctx, req)
}

// Strategies holds one strategy per trigger kind.
type Strategies struct {
	Manual       RefreshStrategy
	TimeBased    RefreshStrategy
	EventBased   RefreshStrategy
	BlockBased   RefreshStrategy
	Conditional  RefreshStrategy
	ExternalCall RefreshStrategy
}

// For returns the strategy registered for t.
func (s Strategies) For(t types.Trigger) (RefreshStrategy, error) {
	var st RefreshStrategy
	switch t {
	case types.TriggerManual:
		st = s.Manual
	case types.TriggerTimeBased:
		st = s.TimeBased
	case types.TriggerEventBased:
		st = s.EventBased
	case types.TriggerBlockBased:
		st = s.BlockBased
	case types.TriggerConditional:
		st = s.Conditional
	case types.TriggerExternalCall:
		st = s.ExternalCall
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownTrigger, t)
	}
	if st == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrNoStrategy, t)
	}
	return st, nil
}

// LogStrategies returns strategies that only log the refresh. The engine
// uses them when the caller wires nothing else.
func LogStrategies(logger *slog.Logger) Strategies {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	st := logStrategy{logger: logger}
	return Strategies{
		Manual:       st,
		TimeBased:    st,
		EventBased:   st,
		BlockBased:   st,
		Conditional:  st,
		ExternalCall: st,
	}
}

type logStrategy struct {
	logger *slog.Logger
}

func (l logStrategy) Refresh(_ context.Context, req RefreshRequest) error {
	l.logger.Info("refresh fired",
		"component", "scheduler",
		"name", req.Name,
		"trigger", string(req.Config.Trigger),
		"fields", req.Config.UpdateFields,
		"target", req.Config.ExternalTarget,
	)
	return nil
}

// HeightSource reports the current block height for block-based triggers.
type HeightSource interface {
	CurrentHeight() uint64
}

// ManualHeight is a HeightSource advanced by hand.
type ManualHeight struct {
	h atomic.Uint64
}

// CurrentHeight implements HeightSource.
func (m *ManualHeight) CurrentHeight() uint64 {
	return m.h.Load()
}

// Set moves the height to h.
func (m *ManualHeight) Set(h uint64) {
	m.h.Store(h)
}

// Advance adds n blocks and returns the new height.
func (m *ManualHeight) Advance(n uint64) uint64 {
	return m.h.Add(n)
}
