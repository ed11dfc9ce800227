package types

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Trigger is the condition kind that makes a schema's attached data due
// for refresh.
type Trigger string

// Trigger kinds.
const (
	TriggerManual       Trigger = "MANUAL"
	TriggerTimeBased    Trigger = "TIME_BASED"
	TriggerEventBased   Trigger = "EVENT_BASED"
	TriggerBlockBased   Trigger = "BLOCK_BASED"
	TriggerConditional  Trigger = "CONDITIONAL"
	TriggerExternalCall Trigger = "EXTERNAL_CALL"
)

// Triggers lists every trigger kind.
var Triggers = []Trigger{
	TriggerManual,
	TriggerTimeBased,
	TriggerEventBased,
	TriggerBlockBased,
	TriggerConditional,
	TriggerExternalCall,
}

// Valid reports whether t is a known trigger kind.
func (t Trigger) Valid() bool {
	for _, k := range Triggers {
		if t == k {
			return true
		}
	}
	return false
}

// Reported reports whether due-ness for t is decided outside the engine
// and reported in, rather than computed from the clock or block height.
func (t Trigger) Reported() bool {
	switch t {
	case TriggerManual, TriggerEventBased, TriggerConditional, TriggerExternalCall:
		return true
	}
	return false
}

// ParseTrigger accepts a trigger name in any case, with '-' or '_'.
func ParseTrigger(s string) (Trigger, error) {
	t := Trigger(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_"))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTrigger, s)
	}
	return t, nil
}

// Frequency is how often a time-scheduled refresh falls due.
type Frequency string

// Frequencies.
const (
	FrequencyNever   Frequency = "NEVER"
	FrequencyHourly  Frequency = "HOURLY"
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyCustom  Frequency = "CUSTOM"
)

var frequencyIntervals = map[Frequency]time.Duration{
	FrequencyNever:   0,
	FrequencyHourly:  time.Hour,
	FrequencyDaily:   24 * time.Hour,
	FrequencyWeekly:  7 * 24 * time.Hour,
	FrequencyMonthly: 30 * 24 * time.Hour,
}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	if f == FrequencyCustom {
		return true
	}
	_, ok := frequencyIntervals[f]
	return ok
}

// Interval returns the refresh period for f. custom is only consulted for
// FrequencyCustom. A zero interval means the schedule never falls due.
func (f Frequency) Interval(custom time.Duration) time.Duration {
	if f == FrequencyCustom {
		return custom
	}
	return frequencyIntervals[f]
}

// ParseFrequency accepts a frequency name in any case.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFrequency, s)
	}
	return f, nil
}

// AutoUpdateConfig is the refresh schedule attached to a schema.
type AutoUpdateConfig struct {
	Enabled               bool          `json:"enabled"`
	Trigger               Trigger       `json:"trigger"`
	Frequency             Frequency     `json:"frequency"`
	LastUpdateTime        time.Time     `json:"last_update_time"`
	NextUpdateTime        time.Time     `json:"next_update_time"`
	CustomIntervalSeconds int64         `json:"custom_interval_seconds,omitempty"`
	UpdateFields          []string      `json:"update_fields,omitempty"`
	TriggerConditions     []string      `json:"trigger_conditions,omitempty"`
	ExternalTarget        string        `json:"external_target,omitempty"`
	RequireDataChange     bool          `json:"require_data_change"`
	MaxUpdateAge          time.Duration `json:"max_update_age,omitempty"`

	// ReportedAt is when an external collaborator last reported the trigger
	// as fired. Zero when nothing is pending.
	ReportedAt time.Time `json:"reported_at"`
	// LastBlock is the block height consumed by the last block-based refresh.
	LastBlock uint64 `json:"last_block,omitempty"`
}

// DefaultAutoUpdate is the schedule a newly defined schema starts with.
func DefaultAutoUpdate() AutoUpdateConfig {
	return AutoUpdateConfig{
		Trigger:   TriggerManual,
		Frequency: FrequencyNever,
	}
}

// MaxCustomIntervalSeconds is the longest custom interval a time.Duration
// can hold, about 292 years.
const MaxCustomIntervalSeconds = math.MaxInt64 / int64(time.Second)

// CustomInterval returns CustomIntervalSeconds as a duration, saturating at
// the longest representable duration.
func (c AutoUpdateConfig) CustomInterval() time.Duration {
	if c.CustomIntervalSeconds > MaxCustomIntervalSeconds {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(c.CustomIntervalSeconds) * time.Second
}

// Clone returns a deep copy of c.
func (c AutoUpdateConfig) Clone() AutoUpdateConfig {
	out := c
	out.UpdateFields = append([]string(nil), c.UpdateFields...)
	out.TriggerConditions = append([]string(nil), c.TriggerConditions...)
	return out
}
