package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

func newRoles(t *testing.T) *Roles {
	t.Helper()
	r, err := New("owner")
	require.NoError(t, err)
	_, err = r.Grant("owner", "admin", types.RoleAdministrator)
	require.NoError(t, err)
	_, err = r.Grant("admin", "mod", types.RoleModerator)
	require.NoError(t, err)
	_, err = r.Grant("admin", "provider", types.RoleDataProvider)
	require.NoError(t, err)
	return r
}

func TestNewRequiresOwner(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, types.ErrInvalidIdentity)
}

func TestAuthorizeTiers(t *testing.T) {
	r := newRoles(t)

	tests := []struct {
		caller  string
		minimum types.Role
		allowed bool
	}{
		{"owner", types.RoleOwner, true},
		{"owner", types.RoleDataProvider, true},
		{"admin", types.RoleOwner, false},
		{"admin", types.RoleAdministrator, true},
		{"admin", types.RoleModerator, true},
		{"mod", types.RoleAdministrator, false},
		{"mod", types.RoleModerator, true},
		{"mod", types.RoleDataProvider, true},
		{"provider", types.RoleModerator, false},
		{"provider", types.RoleDataProvider, true},
		{"stranger", types.RoleDataProvider, false},
		{"", types.RoleDataProvider, false},
	}

	for _, tt := range tests {
		t.Run(tt.caller+"/"+tt.minimum.String(), func(t *testing.T) {
			err := r.Authorize(tt.caller, tt.minimum)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, types.ErrUnauthorized)
			}
		})
	}
}

func TestGrantRequiresTier(t *testing.T) {
	r := newRoles(t)

	_, err := r.Grant("admin", "other", types.RoleAdministrator)
	assert.ErrorIs(t, err, types.ErrUnauthorized, "only the owner adds administrators")

	_, err = r.Grant("mod", "other", types.RoleModerator)
	assert.ErrorIs(t, err, types.ErrUnauthorized, "moderators cannot add moderators")

	events, err := r.Grant("owner", "other", types.RoleDataProvider)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventRoleAdded, events[0].Type)
	assert.Equal(t, "other", events[0].Subject)
	assert.Equal(t, types.RoleDataProvider, r.RoleOf("other"))
}

func TestGrantIsIdempotent(t *testing.T) {
	r := newRoles(t)
	events, err := r.Grant("admin", "mod", types.RoleModerator)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRevokeOwnerFromAdministrators(t *testing.T) {
	r := newRoles(t)
	_, err := r.Revoke("owner", "owner", types.RoleAdministrator)
	assert.ErrorIs(t, err, types.ErrCannotRemoveOwner)
	assert.Contains(t, r.Members(types.RoleAdministrator), "owner")
}

func TestRevoke(t *testing.T) {
	r := newRoles(t)

	_, err := r.Revoke("admin", "admin", types.RoleAdministrator)
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	events, err := r.Revoke("owner", "admin", types.RoleAdministrator)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventRoleRemoved, events[0].Type)
	assert.Equal(t, types.RoleNone, r.RoleOf("admin"))

	events, err = r.Revoke("owner", "admin", types.RoleAdministrator)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestTransferOwnership(t *testing.T) {
	r := newRoles(t)

	_, err := r.TransferOwnership("admin", "admin")
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	events, err := r.TransferOwnership("owner", "admin")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "admin", r.Owner())
	assert.Equal(t, types.RoleOwner, r.RoleOf("admin"))
	assert.Equal(t, types.RoleAdministrator, r.RoleOf("owner"))

	_, err = r.Revoke("admin", "admin", types.RoleAdministrator)
	assert.ErrorIs(t, err, types.ErrCannotRemoveOwner)
}

func TestCloneIsIndependent(t *testing.T) {
	r := newRoles(t)
	c := r.Clone()
	_, err := c.Grant("owner", "late", types.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, types.RoleNone, r.RoleOf("late"))
	assert.Equal(t, types.RoleModerator, c.RoleOf("late"))
}

func TestHoldersRoundTrip(t *testing.T) {
	r := newRoles(t)
	h := r.Holders()
	assert.Equal(t, []string{"admin", "owner"}, h.Administrators)

	back, err := FromHolders(h)
	require.NoError(t, err)
	assert.Equal(t, h, back.Holders())
}
