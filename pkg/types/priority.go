package types

import (
	"fmt"
	"strings"
)

// Priority is the severity tier of a governed name. Lower values are more
// restrictive; PriorityCritical is the most restrictive tier.
type Priority int

// Priority tiers.
const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityMedium   Priority = 3
	PriorityLow      Priority = 4
)

// NumPriorities is the number of priority tiers.
const NumPriorities = 4

var priorityNames = map[Priority]string{
	PriorityCritical: "critical",
	PriorityHigh:     "high",
	PriorityMedium:   "medium",
	PriorityLow:      "low",
}

// Valid reports whether p is one of the four tiers.
func (p Priority) Valid() bool {
	return p >= PriorityCritical && p <= PriorityLow
}

// String returns the lower-case tier name.
func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// Index returns the zero-based index of p for per-tier arrays.
func (p Priority) Index() int {
	return int(p) - 1
}

// ParsePriority accepts a tier name ("critical") or number ("1").
// Returns ErrInvalidTier if s names no tier.
func ParsePriority(s string) (Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, name := range priorityNames {
		if s == name || s == fmt.Sprint(int(p)) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTier, s)
}

// MarshalText encodes the tier by name.
func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTier, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a tier name or number.
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
