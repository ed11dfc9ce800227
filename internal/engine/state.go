package engine

import (
	"fmt"

	"github.com/mesh-intelligence/nameward/internal/access"
	"github.com/mesh-intelligence/nameward/internal/reserved"
	"github.com/mesh-intelligence/nameward/internal/schema"
	"github.com/mesh-intelligence/nameward/pkg/types"
)

// State is one committed snapshot of the registry state. A State reachable
// from the engine is never mutated; writers work on a clone.
type State struct {
	Roles    *access.Roles
	Reserved *reserved.Registry
	Schemas  *schema.Registry
}

// NewState returns the initial state for a fresh engine: owner as the only
// role holder, the built-in reserved entries and no schemas.
func NewState(owner string) (*State, error) {
	roles, err := access.New(owner)
	if err != nil {
		return nil, err
	}
	return &State{
		Roles:    roles,
		Reserved: reserved.NewSeeded(),
		Schemas:  schema.New(),
	}, nil
}

func (s *State) clone() *State {
	return &State{
		Roles:    s.Roles.Clone(),
		Reserved: s.Reserved.Clone(),
		Schemas:  s.Schemas.Clone(),
	}
}

// Snapshot returns the persistable form of s.
func (s *State) Snapshot() types.Snapshot {
	return types.Snapshot{
		Roles:    s.Roles.Holders(),
		Reserved: s.Reserved.All(),
		Schemas:  s.Schemas.List(),
	}
}

// StateFromSnapshot rebuilds a State from its persisted form.
func StateFromSnapshot(snap types.Snapshot) (*State, error) {
	roles, err := access.FromHolders(snap.Roles)
	if err != nil {
		return nil, fmt.Errorf("restore roles: %w", err)
	}
	res, err := reserved.FromEntries(snap.Reserved)
	if err != nil {
		return nil, fmt.Errorf("restore reserved entries: %w", err)
	}
	schemas := schema.New()
	for _, def := range snap.Schemas {
		if err := schemas.Restore(def); err != nil {
			return nil, err
		}
	}
	return &State{Roles: roles, Reserved: res, Schemas: schemas}, nil
}
