package types

import (
	"fmt"
	"strings"
)

// Role is a caller's access tier. Roles are ordered: each role holds every
// capability of the roles below it.
type Role int

// Roles from least to most privileged.
const (
	RoleNone Role = iota
	RoleDataProvider
	RoleModerator
	RoleAdministrator
	RoleOwner
)

var roleNames = map[Role]string{
	RoleNone:          "none",
	RoleDataProvider:  "data-provider",
	RoleModerator:     "moderator",
	RoleAdministrator: "administrator",
	RoleOwner:         "owner",
}

// String returns the role name.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Includes reports whether r grants at least the capabilities of min.
func (r Role) Includes(min Role) bool {
	return r >= min
}

// ParseRole accepts a role name. "admin" and "provider" are accepted as
// short forms.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "owner":
		return RoleOwner, nil
	case "administrator", "admin":
		return RoleAdministrator, nil
	case "moderator":
		return RoleModerator, nil
	case "data-provider", "dataprovider", "provider":
		return RoleDataProvider, nil
	case "none", "":
		return RoleNone, nil
	}
	return RoleNone, fmt.Errorf("%w %q", ErrUnknownRole, s)
}
