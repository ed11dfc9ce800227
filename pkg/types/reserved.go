package types

import "strings"

// MatchKind selects which reserved table an entry belongs to.
type MatchKind string

// Reserved tables. A name can be rejected by each table independently.
const (
	MatchExact  MatchKind = "exact"
	MatchPrefix MatchKind = "prefix"
	MatchSuffix MatchKind = "suffix"
)

// Valid reports whether k is a known table.
func (k MatchKind) Valid() bool {
	switch k {
	case MatchExact, MatchPrefix, MatchSuffix:
		return true
	}
	return false
}

// CategoryOwner marks entries that protect the namespace owner. They cannot
// be removed through the administrative interface.
const CategoryOwner = "owner"

// ReservedWord is an exact word, prefix or suffix withheld from
// registration at a given tier.
type ReservedWord struct {
	Word         string    `json:"word" yaml:"word"`
	Kind         MatchKind `json:"kind" yaml:"kind"`
	Tier         Priority  `json:"tier" yaml:"tier"`
	Category     string    `json:"category" yaml:"category"`
	AllowedRoles []string  `json:"allowed_roles,omitempty" yaml:"allowed_roles,omitempty"`
	Restrictions []string  `json:"restrictions,omitempty" yaml:"restrictions,omitempty"`
}

// Normalize lower-cases the word and trims surrounding whitespace. All
// registry comparisons use the normalized form.
func Normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// Protected reports whether the entry may not be removed.
func (w ReservedWord) Protected() bool {
	return w.Category == CategoryOwner
}

// Clone returns a deep copy of w.
func (w ReservedWord) Clone() ReservedWord {
	c := w
	c.AllowedRoles = append([]string(nil), w.AllowedRoles...)
	c.Restrictions = append([]string(nil), w.Restrictions...)
	return c
}
