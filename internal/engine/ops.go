package engine

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/nameward/internal/access"
	"github.com/mesh-intelligence/nameward/internal/records"
	"github.com/mesh-intelligence/nameward/internal/scheduler"
	"github.com/mesh-intelligence/nameward/internal/schema"
	"github.com/mesh-intelligence/nameward/pkg/types"
)

// Operation names, used in errors, logs and metrics.
const (
	OpAddReserved         = "add_reserved"
	OpRemoveReserved      = "remove_reserved"
	OpDefineSchema        = "define_schema"
	OpUpdateSchema        = "update_schema"
	OpRemoveSchema        = "remove_schema"
	OpSetTextRecord       = "set_text_record"
	OpSetENSEnabled       = "set_ens_enabled"
	OpSubmit              = "submit"
	OpInvalidate          = "invalidate"
	OpConfigureAutoUpdate = "configure_auto_update"
	OpReportTrigger       = "report_trigger"
	OpTrigger             = "trigger"
	OpAddRole             = "add_role"
	OpRemoveRole          = "remove_role"
	OpTransferOwnership   = "transfer_ownership"
)

// Validation.

// Validate checks one candidate label against the current reserved words.
// parent, when set, enables the external existence check for name.parent.
func (e *Engine) Validate(ctx context.Context, name, parent string) types.ValidationResult {
	res := e.validator.Validate(ctx, e.State().Reserved, name, parent)
	e.metrics.observeValidation(res)
	return res
}

// ValidateBatch validates names concurrently; results keep input order.
func (e *Engine) ValidateBatch(ctx context.Context, names []string, parent string) []types.ValidationResult {
	out := e.validator.ValidateBatch(ctx, e.State().Reserved, names, parent)
	for _, res := range out {
		e.metrics.observeValidation(res)
	}
	return out
}

// Reserved words.

// IsReserved reports whether word is an exact reserved entry.
func (e *Engine) IsReserved(word string) bool {
	return e.State().Reserved.IsReserved(word)
}

// PriorityOf returns the tier of an exact reserved entry.
func (e *Engine) PriorityOf(word string) (types.Priority, bool) {
	return e.State().Reserved.PriorityOf(word)
}

// ReservedEntries lists the entries of one match table.
func (e *Engine) ReservedEntries(kind types.MatchKind) []types.ReservedWord {
	return e.State().Reserved.List(kind)
}

// AddReserved adds a reserved entry. Requires Administrator.
func (e *Engine) AddReserved(ctx context.Context, caller string, entry types.ReservedWord) error {
	return e.commit(ctx, OpAddReserved, caller, types.RoleAdministrator, func(st *State) ([]types.Event, error) {
		return st.Reserved.Add(caller, entry)
	})
}

// RemoveReserved removes a reserved entry. Requires Administrator.
func (e *Engine) RemoveReserved(ctx context.Context, caller, word string, kind types.MatchKind) error {
	return e.commit(ctx, OpRemoveReserved, caller, types.RoleAdministrator, func(st *State) ([]types.Event, error) {
		return st.Reserved.Remove(caller, word, kind)
	})
}

// Schemas.

// DefineSchema registers a new schema. Requires Administrator.
func (e *Engine) DefineSchema(ctx context.Context, caller string, req schema.DefineRequest) (types.SchemaDefinition, error) {
	var def types.SchemaDefinition
	err := e.commit(ctx, OpDefineSchema, caller, types.RoleAdministrator, func(st *State) ([]types.Event, error) {
		var (
			events []types.Event
			err    error
		)
		def, events, err = st.Schemas.Define(caller, req, e.clock())
		return events, err
	})
	return def, err
}

// UpdateSchema replaces the active schema of a name with a new version.
// Requires Administrator.
func (e *Engine) UpdateSchema(ctx context.Context, caller string, req schema.DefineRequest) (types.SchemaDefinition, error) {
	var def types.SchemaDefinition
	err := e.commit(ctx, OpUpdateSchema, caller, types.RoleAdministrator, func(st *State) ([]types.Event, error) {
		var (
			events []types.Event
			err    error
		)
		def, events, err = st.Schemas.Update(caller, req, e.clock())
		return events, err
	})
	return def, err
}

// RemoveSchema deprecates the schema of a name. Attached records stay
// readable. Requires Administrator.
func (e *Engine) RemoveSchema(ctx context.Context, caller, name string) error {
	return e.commit(ctx, OpRemoveSchema, caller, types.RoleAdministrator, func(st *State) ([]types.Event, error) {
		return st.Schemas.Remove(caller, name)
	})
}

// GetSchema returns the active schema of name.
func (e *Engine) GetSchema(name string) (types.SchemaDefinition, error) {
	return e.State().Schemas.Get(name)
}

// FieldByName returns one field of the active schema of name.
func (e *Engine) FieldByName(name, field string) (types.SchemaField, error) {
	return e.State().Schemas.FieldByName(name, field)
}

// ListSchemas returns every active schema, sorted by name.
func (e *Engine) ListSchemas() []types.SchemaDefinition {
	return e.State().Schemas.List()
}

// ListByCategory returns the names of active schemas in category.
func (e *Engine) ListByCategory(category string) []string {
	return e.State().Schemas.ListByCategory(category)
}

// SchemaNames returns the names of all active schemas, sorted.
func (e *Engine) SchemaNames() []string {
	return e.State().Schemas.Names()
}

// Statistics returns schema counts by tier and category.
func (e *Engine) Statistics() types.Statistics {
	return e.State().Schemas.Statistics()
}

// SetTextRecord sets a text record on a schema. Requires Administrator.
func (e *Engine) SetTextRecord(ctx context.Context, caller, name, key, value string) error {
	return e.commit(ctx, OpSetTextRecord, caller, types.RoleAdministrator, func(st *State) ([]types.Event, error) {
		return st.Schemas.SetTextRecord(caller, name, key, value)
	})
}

// GetTextRecord returns one text record of a schema.
func (e *Engine) GetTextRecord(name, key string) (string, error) {
	return e.State().Schemas.GetTextRecord(name, key)
}

// TextRecords returns every text record of a schema.
func (e *Engine) TextRecords(name string) (map[string]string, error) {
	return e.State().Schemas.TextRecords(name)
}

// SetENSEnabled toggles name-service publication of a schema. Requires
// Administrator.
func (e *Engine) SetENSEnabled(ctx context.Context, caller, name string, enabled bool) error {
	return e.commit(ctx, OpSetENSEnabled, caller, types.RoleAdministrator, func(st *State) ([]types.Event, error) {
		return st.Schemas.SetENSEnabled(caller, name, enabled, e.clock())
	})
}

// Attached data.

// Submit stores a data record against the active schema of req.Name.
// Requires DataProvider.
func (e *Engine) Submit(ctx context.Context, caller string, req records.SubmitRequest) (types.AttachedDataRecord, error) {
	var rec types.AttachedDataRecord
	err := e.external(OpSubmit, caller, types.RoleDataProvider, func(st *State) ([]types.Event, error) {
		var (
			events []types.Event
			err    error
		)
		rec, events, err = e.records.Submit(caller, st.Schemas, req, e.clock())
		return events, err
	})
	return rec, err
}

// Invalidate marks a record invalid. Requires Moderator.
func (e *Engine) Invalidate(ctx context.Context, caller, name string, h types.Hash) error {
	return e.external(OpInvalidate, caller, types.RoleModerator, func(*State) ([]types.Event, error) {
		return e.records.Invalidate(caller, name, h)
	})
}

// GetRecord returns one record by name and content hash.
func (e *Engine) GetRecord(name string, h types.Hash) (types.AttachedDataRecord, error) {
	return e.records.GetRecord(name, h)
}

// ListHashes returns the content hashes of name's records in submission
// order.
func (e *Engine) ListHashes(name string) ([]types.Hash, error) {
	return e.records.ListHashes(name)
}

// LatestRecord returns the most recent record of name.
func (e *Engine) LatestRecord(name string) (types.AttachedDataRecord, error) {
	return e.records.LatestRecord(name)
}

// Auto-update.

// ConfigureAutoUpdate sets the refresh schedule of a schema. Requires
// Administrator.
func (e *Engine) ConfigureAutoUpdate(ctx context.Context, caller, name string, req scheduler.ConfigureRequest) error {
	return e.commit(ctx, OpConfigureAutoUpdate, caller, types.RoleAdministrator, func(st *State) ([]types.Event, error) {
		return e.scheduler.Configure(caller, st.Schemas, name, req)
	})
}

// AutoUpdate returns the refresh schedule of a schema.
func (e *Engine) AutoUpdate(name string) (types.AutoUpdateConfig, error) {
	return e.State().Schemas.AutoUpdate(name)
}

// NeedsUpdate reports whether name's attached data is due for refresh.
func (e *Engine) NeedsUpdate(name string) (bool, error) {
	return e.scheduler.NeedsUpdate(e.State().Schemas, name)
}

// DueSchemas lists the schemas currently due for refresh.
func (e *Engine) DueSchemas() []string {
	return e.scheduler.DueSchemas(e.State().Schemas)
}

// ReportTrigger records that an externally observed trigger fired for name.
// Requires DataProvider.
func (e *Engine) ReportTrigger(ctx context.Context, caller, name string) error {
	return e.commit(ctx, OpReportTrigger, caller, types.RoleDataProvider, func(st *State) ([]types.Event, error) {
		return e.scheduler.ReportTrigger(caller, st.Schemas, name)
	})
}

// Trigger runs the refresh strategy of a due schema and records the refresh.
// Requires DataProvider. The strategy runs outside the writer lock; if the
// schedule moved while it ran, the refresh is not recorded and ErrNotDue is
// returned.
func (e *Engine) Trigger(ctx context.Context, caller, name string) error {
	st := e.State()
	if err := st.Roles.Authorize(caller, types.RoleDataProvider); err != nil {
		err = fmt.Errorf("%s: %w", OpTrigger, err)
		e.metrics.observeOp(OpTrigger, err)
		return err
	}
	f, err := e.scheduler.Prepare(st.Schemas, name)
	if err == nil {
		err = e.scheduler.Run(ctx, f)
	}
	if err != nil {
		e.metrics.observeOp(OpTrigger, err)
		return err
	}
	return e.commit(ctx, OpTrigger, caller, types.RoleDataProvider, func(st *State) ([]types.Event, error) {
		return e.scheduler.Complete(caller, st.Schemas, f)
	})
}

// Roles.

// RoleOf returns the highest role id holds.
func (e *Engine) RoleOf(id string) types.Role {
	return e.State().Roles.RoleOf(id)
}

// Members lists the holders of role.
func (e *Engine) Members(role types.Role) []string {
	return e.State().Roles.Members(role)
}

// Owner returns the current owner.
func (e *Engine) Owner() string {
	return e.State().Roles.Owner()
}

// AddRole grants role to subject. Administrators are added by the owner,
// other roles by administrators.
func (e *Engine) AddRole(ctx context.Context, caller, subject string, role types.Role) error {
	minimum, ok := access.MinimumToManage(role)
	if !ok {
		return fmt.Errorf("%s: role %s cannot be granted", OpAddRole, role)
	}
	return e.commit(ctx, OpAddRole, caller, minimum, func(st *State) ([]types.Event, error) {
		return st.Roles.Grant(caller, subject, role)
	})
}

// RemoveRole revokes role from subject.
func (e *Engine) RemoveRole(ctx context.Context, caller, subject string, role types.Role) error {
	minimum, ok := access.MinimumToManage(role)
	if !ok {
		return fmt.Errorf("%s: role %s cannot be revoked", OpRemoveRole, role)
	}
	return e.commit(ctx, OpRemoveRole, caller, minimum, func(st *State) ([]types.Event, error) {
		return st.Roles.Revoke(caller, subject, role)
	})
}

// TransferOwnership hands the owner role to newOwner. Requires Owner.
func (e *Engine) TransferOwnership(ctx context.Context, caller, newOwner string) error {
	return e.commit(ctx, OpTransferOwnership, caller, types.RoleOwner, func(st *State) ([]types.Event, error) {
		return st.Roles.TransferOwnership(caller, newOwner)
	})
}

// Snapshot returns the persistable form of the current state.
func (e *Engine) Snapshot() types.Snapshot {
	return e.State().Snapshot()
}
