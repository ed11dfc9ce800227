// Package reserved implements the reserved-word registry: exact words,
// prefixes and suffixes withheld from registration, each tagged with a
// priority tier. Lookups are case-insensitive.
package reserved

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// table is one reserved set. order keeps insertion order so that "first
// matching prefix" is deterministic.
type table struct {
	entries map[string]types.ReservedWord
	order   []string
}

func newTable() *table {
	return &table{entries: make(map[string]types.ReservedWord)}
}

func (t *table) clone() *table {
	c := &table{
		entries: make(map[string]types.ReservedWord, len(t.entries)),
		order:   slices.Clone(t.order),
	}
	for k, v := range t.entries {
		c.entries[k] = v.Clone()
	}
	return c
}

// Registry holds the three reserved sets. A Registry inside an engine
// snapshot is never mutated in place; mutate a Clone.
type Registry struct {
	tables map[types.MatchKind]*table
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{tables: map[types.MatchKind]*table{
		types.MatchExact:  newTable(),
		types.MatchPrefix: newTable(),
		types.MatchSuffix: newTable(),
	}}
}

// NewSeeded returns a registry holding the built-in entries.
func NewSeeded() *Registry {
	r := New()
	for _, e := range builtInEntries {
		// Built-ins are unique and well-formed.
		_ = r.put(e)
	}
	return r
}

// FromEntries rebuilds a registry from persisted entries, keeping their
// order.
func FromEntries(entries []types.ReservedWord) (*Registry, error) {
	r := New()
	for _, e := range entries {
		e.Word = types.Normalize(e.Word)
		if err := r.put(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	c := &Registry{tables: make(map[types.MatchKind]*table, len(r.tables))}
	for k, t := range r.tables {
		c.tables[k] = t.clone()
	}
	return c
}

// IsReserved reports whether word is an exact reserved word.
func (r *Registry) IsReserved(word string) bool {
	_, ok := r.tables[types.MatchExact].entries[types.Normalize(word)]
	return ok
}

// Lookup returns the exact reserved entry for word.
func (r *Registry) Lookup(word string) (types.ReservedWord, bool) {
	e, ok := r.tables[types.MatchExact].entries[types.Normalize(word)]
	return e, ok
}

// PriorityOf returns the tier of an exact reserved word.
func (r *Registry) PriorityOf(word string) (types.Priority, bool) {
	e, ok := r.Lookup(word)
	if !ok {
		return 0, false
	}
	return e.Tier, true
}

// MatchesPrefix returns the first reserved prefix that word starts with.
func (r *Registry) MatchesPrefix(word string) (types.ReservedWord, bool) {
	return r.firstMatch(types.MatchPrefix, word, strings.HasPrefix)
}

// MatchesSuffix returns the first reserved suffix that word ends with.
func (r *Registry) MatchesSuffix(word string) (types.ReservedWord, bool) {
	return r.firstMatch(types.MatchSuffix, word, strings.HasSuffix)
}

func (r *Registry) firstMatch(kind types.MatchKind, word string, match func(s, affix string) bool) (types.ReservedWord, bool) {
	word = types.Normalize(word)
	t := r.tables[kind]
	for _, affix := range t.order {
		if match(word, affix) {
			return t.entries[affix], true
		}
	}
	return types.ReservedWord{}, false
}

// Add inserts a reserved entry. The word is normalized before insertion.
func (r *Registry) Add(actor string, entry types.ReservedWord) ([]types.Event, error) {
	entry.Word = types.Normalize(entry.Word)
	if entry.Protected() {
		return nil, fmt.Errorf("add reserved %q: %w: category %s is built in", entry.Word, types.ErrProtectedEntry, entry.Category)
	}
	if entry.Kind == "" {
		entry.Kind = types.MatchExact
	}
	if err := r.put(entry); err != nil {
		return nil, err
	}
	return []types.Event{{
		Type:     types.EventReservedWordAdded,
		Actor:    actor,
		Name:     entry.Word,
		Tier:     entry.Tier,
		Category: entry.Category,
		Key:      string(entry.Kind),
	}}, nil
}

func (r *Registry) put(entry types.ReservedWord) error {
	if entry.Word == "" {
		return fmt.Errorf("reserved entry: %w", types.ErrInvalidName)
	}
	if !entry.Tier.Valid() {
		return fmt.Errorf("reserved entry %q: %w", entry.Word, types.ErrInvalidTier)
	}
	if entry.Kind == "" {
		entry.Kind = types.MatchExact
	}
	t, ok := r.tables[entry.Kind]
	if !ok {
		return fmt.Errorf("reserved entry %q: %w: %s", entry.Word, types.ErrInvalidMatchKind, entry.Kind)
	}
	roles, err := canonicalRoles(entry.AllowedRoles)
	if err != nil {
		return fmt.Errorf("reserved entry %q: %w", entry.Word, err)
	}
	entry.AllowedRoles = roles
	if _, exists := t.entries[entry.Word]; exists {
		return fmt.Errorf("%w: %s %q", types.ErrReservedDuplicate, entry.Kind, entry.Word)
	}
	t.entries[entry.Word] = entry
	t.order = append(t.order, entry.Word)
	return nil
}

// canonicalRoles rewrites role names in their canonical spelling.
func canonicalRoles(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		role, err := types.ParseRole(n)
		if err != nil {
			return nil, err
		}
		if role == types.RoleNone {
			return nil, fmt.Errorf("%w %q", types.ErrUnknownRole, n)
		}
		out = append(out, role.String())
	}
	return out, nil
}

// Remove deletes a reserved entry. Owner-category entries are protected.
func (r *Registry) Remove(actor, word string, kind types.MatchKind) ([]types.Event, error) {
	t, ok := r.tables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidMatchKind, kind)
	}
	word = types.Normalize(word)
	entry, exists := t.entries[word]
	if !exists {
		return nil, fmt.Errorf("%w: %s %q", types.ErrReservedNotFound, kind, word)
	}
	if entry.Protected() {
		return nil, fmt.Errorf("%w: %q", types.ErrProtectedEntry, word)
	}
	delete(t.entries, word)
	if i := slices.Index(t.order, word); i >= 0 {
		t.order = slices.Delete(t.order, i, i+1)
	}
	return []types.Event{{
		Type:     types.EventReservedWordRemoved,
		Actor:    actor,
		Name:     word,
		Tier:     entry.Tier,
		Category: entry.Category,
		Key:      string(kind),
	}}, nil
}

// List returns the entries of one table in insertion order.
func (r *Registry) List(kind types.MatchKind) []types.ReservedWord {
	t, ok := r.tables[kind]
	if !ok {
		return nil
	}
	out := make([]types.ReservedWord, 0, len(t.order))
	for _, w := range t.order {
		out = append(out, t.entries[w].Clone())
	}
	return out
}

// All returns every entry, exact words first, then prefixes, then suffixes.
func (r *Registry) All() []types.ReservedWord {
	var out []types.ReservedWord
	for _, kind := range []types.MatchKind{types.MatchExact, types.MatchPrefix, types.MatchSuffix} {
		out = append(out, r.List(kind)...)
	}
	return out
}

// Len returns the total number of entries.
func (r *Registry) Len() int {
	n := 0
	for _, t := range r.tables {
		n += len(t.entries)
	}
	return n
}
