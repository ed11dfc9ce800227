package types

import "time"

// RoleHolders lists the identities holding each role.
type RoleHolders struct {
	Owner          string   `json:"owner"`
	Administrators []string `json:"administrators"`
	Moderators     []string `json:"moderators"`
	DataProviders  []string `json:"data_providers"`
}

// Snapshot is the persistable registry state of an engine: roles, reserved
// entries and active schemas. Attached-data records live in the blob store
// and are not part of it.
type Snapshot struct {
	Roles    RoleHolders        `json:"roles"`
	Reserved []ReservedWord     `json:"reserved"`
	Schemas  []SchemaDefinition `json:"schemas"`
	SavedAt  time.Time          `json:"saved_at"`
}
