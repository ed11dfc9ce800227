// Package access implements the tiered role model that gates every mutating
// engine operation: owner, administrators, moderators and data providers.
// Each tier holds the capabilities of the tiers below it.
package access

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// Roles holds the role assignments of one engine instance. A Roles value is
// never shared between snapshots; mutate a Clone.
type Roles struct {
	owner   string
	members map[types.Role]map[string]struct{}
}

// Holders is the serializable form of Roles.
type Holders = types.RoleHolders

// New creates the role table with owner as its single owner. The owner is
// always an administrator.
func New(owner string) (*Roles, error) {
	if owner == "" {
		return nil, types.ErrInvalidIdentity
	}
	r := &Roles{
		owner:   owner,
		members: emptyMembers(),
	}
	r.members[types.RoleAdministrator][owner] = struct{}{}
	return r, nil
}

// FromHolders rebuilds a role table from its serialized form.
func FromHolders(h Holders) (*Roles, error) {
	r, err := New(h.Owner)
	if err != nil {
		return nil, err
	}
	for _, id := range h.Administrators {
		r.members[types.RoleAdministrator][id] = struct{}{}
	}
	for _, id := range h.Moderators {
		r.members[types.RoleModerator][id] = struct{}{}
	}
	for _, id := range h.DataProviders {
		r.members[types.RoleDataProvider][id] = struct{}{}
	}
	return r, nil
}

func emptyMembers() map[types.Role]map[string]struct{} {
	return map[types.Role]map[string]struct{}{
		types.RoleAdministrator: {},
		types.RoleModerator:     {},
		types.RoleDataProvider:  {},
	}
}

// Clone returns an independent copy of r.
func (r *Roles) Clone() *Roles {
	c := &Roles{owner: r.owner, members: emptyMembers()}
	for role, set := range r.members {
		for id := range set {
			c.members[role][id] = struct{}{}
		}
	}
	return c
}

// Owner returns the current owner identity.
func (r *Roles) Owner() string {
	return r.owner
}

// RoleOf returns the highest role held by id, or RoleNone.
func (r *Roles) RoleOf(id string) types.Role {
	if id == "" {
		return types.RoleNone
	}
	if id == r.owner {
		return types.RoleOwner
	}
	for _, role := range []types.Role{types.RoleAdministrator, types.RoleModerator, types.RoleDataProvider} {
		if _, ok := r.members[role][id]; ok {
			return role
		}
	}
	return types.RoleNone
}

// Authorize returns nil when caller holds minimum or a higher role. The
// role is looked up on every call.
func (r *Roles) Authorize(caller string, minimum types.Role) error {
	if caller == "" {
		return fmt.Errorf("%w: %w", types.ErrUnauthorized, types.ErrInvalidIdentity)
	}
	if held := r.RoleOf(caller); !held.Includes(minimum) {
		return fmt.Errorf("%w: %s holds %s, requires %s", types.ErrUnauthorized, caller, held, minimum)
	}
	return nil
}

// Members returns the sorted identities explicitly assigned role. The owner
// is listed among administrators.
func (r *Roles) Members(role types.Role) []string {
	if role == types.RoleOwner {
		return []string{r.owner}
	}
	set := r.members[role]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Holders returns the serializable form of r.
func (r *Roles) Holders() Holders {
	return Holders{
		Owner:          r.owner,
		Administrators: r.Members(types.RoleAdministrator),
		Moderators:     r.Members(types.RoleModerator),
		DataProviders:  r.Members(types.RoleDataProvider),
	}
}

// minimumToManage is the role required to grant or revoke each role.
var minimumToManage = map[types.Role]types.Role{
	types.RoleAdministrator: types.RoleOwner,
	types.RoleModerator:     types.RoleAdministrator,
	types.RoleDataProvider:  types.RoleAdministrator,
}

// MinimumToManage returns the role a caller needs to grant or revoke role.
func MinimumToManage(role types.Role) (types.Role, bool) {
	m, ok := minimumToManage[role]
	return m, ok
}

// Grant adds subject to role on behalf of caller. Administrators are granted
// by the owner; moderators and data providers by administrators. Granting a
// role already held emits no event.
func (r *Roles) Grant(caller, subject string, role types.Role) ([]types.Event, error) {
	minimum, ok := minimumToManage[role]
	if !ok {
		return nil, fmt.Errorf("role %s cannot be granted", role)
	}
	if err := r.Authorize(caller, minimum); err != nil {
		return nil, err
	}
	if subject == "" {
		return nil, types.ErrInvalidIdentity
	}
	if _, held := r.members[role][subject]; held {
		return nil, nil
	}
	r.members[role][subject] = struct{}{}
	return []types.Event{{
		Type:    types.EventRoleAdded,
		Actor:   caller,
		Subject: subject,
		Role:    role.String(),
	}}, nil
}

// Revoke removes subject from role on behalf of caller. The owner can never
// be removed from the administrators.
func (r *Roles) Revoke(caller, subject string, role types.Role) ([]types.Event, error) {
	minimum, ok := minimumToManage[role]
	if !ok {
		return nil, fmt.Errorf("role %s cannot be revoked", role)
	}
	if err := r.Authorize(caller, minimum); err != nil {
		return nil, err
	}
	if role == types.RoleAdministrator && subject == r.owner {
		return nil, types.ErrCannotRemoveOwner
	}
	if _, held := r.members[role][subject]; !held {
		return nil, nil
	}
	delete(r.members[role], subject)
	return []types.Event{{
		Type:    types.EventRoleRemoved,
		Actor:   caller,
		Subject: subject,
		Role:    role.String(),
	}}, nil
}

// TransferOwnership makes newOwner the owner. The previous owner keeps its
// administrator seat.
func (r *Roles) TransferOwnership(caller, newOwner string) ([]types.Event, error) {
	if err := r.Authorize(caller, types.RoleOwner); err != nil {
		return nil, err
	}
	if newOwner == "" {
		return nil, types.ErrInvalidIdentity
	}
	if newOwner == r.owner {
		return nil, nil
	}
	r.owner = newOwner
	r.members[types.RoleAdministrator][newOwner] = struct{}{}
	return []types.Event{{
		Type:    types.EventOwnershipTransferred,
		Actor:   caller,
		Subject: newOwner,
		Role:    types.RoleOwner.String(),
	}}, nil
}
