package validator

import (
	"context"
	"sync"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// StaticResolver is a map-backed Resolver for tests and offline use.
type StaticResolver struct {
	mu     sync.RWMutex
	owners map[string]string
}

// NewStaticResolver returns a resolver that knows the given names, mapped to
// their owners.
func NewStaticResolver(known map[string]string) *StaticResolver {
	r := &StaticResolver{owners: make(map[string]string, len(known))}
	for name, owner := range known {
		r.owners[types.Normalize(name)] = owner
	}
	return r
}

// Set records fqdn as registered to owner.
func (r *StaticResolver) Set(fqdn, owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[types.Normalize(fqdn)] = owner
}

// ResolveExists implements Resolver.
func (r *StaticResolver) ResolveExists(ctx context.Context, fqdn string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.owners[types.Normalize(fqdn)]
	return owner, ok, nil
}
