package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// Save replaces the stored snapshot with snap in one transaction.
func (s *Store) Save(ctx context.Context, snap types.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range snapshotTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := saveRoles(ctx, tx, snap.Roles); err != nil {
		return err
	}
	if err := saveReserved(ctx, tx, snap.Reserved); err != nil {
		return err
	}
	for i := range snap.Schemas {
		if err := saveSchema(ctx, tx, &snap.Schemas[i]); err != nil {
			return err
		}
	}
	savedAt := snap.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaSavedAt, formatTime(savedAt)); err != nil {
		return fmt.Errorf("write saved_at: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	s.logger.Debug("snapshot saved",
		"component", "sqlite",
		"schemas", len(snap.Schemas),
		"reserved", len(snap.Reserved),
	)
	return nil
}

func saveRoles(ctx context.Context, tx *sql.Tx, h types.RoleHolders) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO roles (identity, role) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare roles: %w", err)
	}
	defer stmt.Close()

	insert := func(role types.Role, ids ...string) error {
		for _, id := range ids {
			if _, err := stmt.ExecContext(ctx, id, role.String()); err != nil {
				return fmt.Errorf("insert role %s %s: %w", role, id, err)
			}
		}
		return nil
	}
	if err := insert(types.RoleOwner, h.Owner); err != nil {
		return err
	}
	if err := insert(types.RoleAdministrator, h.Administrators...); err != nil {
		return err
	}
	if err := insert(types.RoleModerator, h.Moderators...); err != nil {
		return err
	}
	return insert(types.RoleDataProvider, h.DataProviders...)
}

func saveReserved(ctx context.Context, tx *sql.Tx, entries []types.ReservedWord) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO reserved_words (word, match_kind, tier, category, allowed_roles, restrictions, ordinal)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare reserved_words: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		roles, err := encodeList(e.AllowedRoles)
		if err != nil {
			return err
		}
		restrictions, err := encodeList(e.Restrictions)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, e.Word, string(e.Kind), int(e.Tier), e.Category,
			roles, restrictions, i); err != nil {
			return fmt.Errorf("insert reserved word %q: %w", e.Word, err)
		}
	}
	return nil
}

func saveSchema(ctx context.Context, tx *sql.Tx, def *types.SchemaDefinition) error {
	roles, err := encodeList(def.AllowedRoles)
	if err != nil {
		return err
	}
	restrictions, err := encodeList(def.Restrictions)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO schemas (
    name, tier, category, description, version, interface_tag, allowed_roles, restrictions,
    active, created_at, updated_at, api_endpoint, docs_url, ens_enabled
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.Name, int(def.Tier), def.Category, def.Description, def.Version, def.InterfaceTag,
		roles, restrictions, boolInt(def.Active), formatTime(def.CreatedAt), formatTime(def.UpdatedAt),
		def.APIEndpoint, def.DocsURL, boolInt(def.ENSEnabled))
	if err != nil {
		return fmt.Errorf("insert schema %s: %w", def.Name, err)
	}

	for i, f := range def.Fields {
		_, err := tx.ExecContext(ctx, `INSERT INTO schema_fields (
    schema_name, ordinal, field_name, data_type, required, description, validation_rule, default_value
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			def.Name, i, f.FieldName, string(f.DataType), boolInt(f.Required),
			f.Description, f.ValidationRule, f.DefaultValue)
		if err != nil {
			return fmt.Errorf("insert field %s.%s: %w", def.Name, f.FieldName, err)
		}
	}

	for k, v := range def.TextRecords {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO text_records (schema_name, key, value) VALUES (?, ?, ?)`, def.Name, k, v)
		if err != nil {
			return fmt.Errorf("insert text record %s/%s: %w", def.Name, k, err)
		}
	}

	a := def.AutoUpdate
	fields, err := encodeList(a.UpdateFields)
	if err != nil {
		return err
	}
	conditions, err := encodeList(a.TriggerConditions)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO auto_update (
    schema_name, enabled, trigger_kind, frequency, last_update_time, next_update_time,
    custom_interval_seconds, update_fields, trigger_conditions, external_target,
    require_data_change, max_update_age, reported_at, last_block
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.Name, boolInt(a.Enabled), string(a.Trigger), string(a.Frequency),
		formatTime(a.LastUpdateTime), formatTime(a.NextUpdateTime), a.CustomIntervalSeconds,
		fields, conditions, a.ExternalTarget, boolInt(a.RequireDataChange),
		int64(a.MaxUpdateAge), formatTime(a.ReportedAt), int64(a.LastBlock))
	if err != nil {
		return fmt.Errorf("insert auto_update %s: %w", def.Name, err)
	}
	return nil
}

// Load reads the stored snapshot. ok is false when nothing has been saved.
func (s *Store) Load(ctx context.Context) (snap types.Snapshot, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return snap, false, err
	}

	var savedAt string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaSavedAt).Scan(&savedAt)
	if err == sql.ErrNoRows {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, fmt.Errorf("read saved_at: %w", err)
	}
	if snap.SavedAt, err = parseTime(savedAt); err != nil {
		return snap, false, fmt.Errorf("parse saved_at: %w", err)
	}

	if snap.Roles, err = s.loadRoles(ctx); err != nil {
		return snap, false, err
	}
	if snap.Reserved, err = s.loadReserved(ctx); err != nil {
		return snap, false, err
	}
	if snap.Schemas, err = s.loadSchemas(ctx); err != nil {
		return snap, false, err
	}
	return snap, true, nil
}

func (s *Store) loadRoles(ctx context.Context) (types.RoleHolders, error) {
	var h types.RoleHolders
	rows, err := s.db.QueryContext(ctx, `SELECT identity, role FROM roles ORDER BY identity`)
	if err != nil {
		return h, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return h, fmt.Errorf("scan role: %w", err)
		}
		role, err := types.ParseRole(name)
		if err != nil {
			return h, err
		}
		switch role {
		case types.RoleOwner:
			h.Owner = id
		case types.RoleAdministrator:
			h.Administrators = append(h.Administrators, id)
		case types.RoleModerator:
			h.Moderators = append(h.Moderators, id)
		case types.RoleDataProvider:
			h.DataProviders = append(h.DataProviders, id)
		}
	}
	return h, rows.Err()
}

func (s *Store) loadReserved(ctx context.Context) ([]types.ReservedWord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT word, match_kind, tier, category, allowed_roles, restrictions FROM reserved_words ORDER BY ordinal`)
	if err != nil {
		return nil, fmt.Errorf("query reserved_words: %w", err)
	}
	defer rows.Close()

	var out []types.ReservedWord
	for rows.Next() {
		var (
			e            types.ReservedWord
			kind         string
			tier         int
			roles        string
			restrictions string
		)
		if err := rows.Scan(&e.Word, &kind, &tier, &e.Category, &roles, &restrictions); err != nil {
			return nil, fmt.Errorf("scan reserved word: %w", err)
		}
		e.Kind = types.MatchKind(kind)
		e.Tier = types.Priority(tier)
		if e.AllowedRoles, err = decodeList(roles); err != nil {
			return nil, fmt.Errorf("reserved word %q: %w", e.Word, err)
		}
		if e.Restrictions, err = decodeList(restrictions); err != nil {
			return nil, fmt.Errorf("reserved word %q: %w", e.Word, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) loadSchemas(ctx context.Context) ([]types.SchemaDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
    s.name, s.tier, s.category, s.description, s.version, s.interface_tag, s.allowed_roles,
    s.restrictions, s.active, s.created_at, s.updated_at, s.api_endpoint, s.docs_url, s.ens_enabled,
    a.enabled, a.trigger_kind, a.frequency, a.last_update_time, a.next_update_time,
    a.custom_interval_seconds, a.update_fields, a.trigger_conditions, a.external_target,
    a.require_data_change, a.max_update_age, a.reported_at, a.last_block
FROM schemas s JOIN auto_update a ON a.schema_name = s.name
ORDER BY s.name`)
	if err != nil {
		return nil, fmt.Errorf("query schemas: %w", err)
	}

	byName := make(map[string]*types.SchemaDefinition)
	var out []types.SchemaDefinition
	for rows.Next() {
		def, err := scanSchema(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, def)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		byName[out[i].Name] = &out[i]
	}
	if err := s.loadFields(ctx, byName); err != nil {
		return nil, err
	}
	if err := s.loadTextRecords(ctx, byName); err != nil {
		return nil, err
	}
	return out, nil
}

func scanSchema(rows *sql.Rows) (types.SchemaDefinition, error) {
	var (
		def                    types.SchemaDefinition
		tier                   int
		roles, restrictions    string
		active, ens            int
		created, updated       string
		enabled, requireChange int
		trigger, freq          string
		last, next, reported   string
		fields, conditions     string
		maxAge, lastBlock      int64
	)
	a := &def.AutoUpdate
	err := rows.Scan(
		&def.Name, &tier, &def.Category, &def.Description, &def.Version, &def.InterfaceTag, &roles,
		&restrictions, &active, &created, &updated, &def.APIEndpoint, &def.DocsURL, &ens,
		&enabled, &trigger, &freq, &last, &next,
		&a.CustomIntervalSeconds, &fields, &conditions, &a.ExternalTarget,
		&requireChange, &maxAge, &reported, &lastBlock,
	)
	if err != nil {
		return def, fmt.Errorf("scan schema: %w", err)
	}
	def.Tier = types.Priority(tier)
	def.Active = active != 0
	def.ENSEnabled = ens != 0
	a.Enabled = enabled != 0
	a.RequireDataChange = requireChange != 0
	a.Trigger = types.Trigger(trigger)
	a.Frequency = types.Frequency(freq)
	a.MaxUpdateAge = time.Duration(maxAge)
	a.LastBlock = uint64(lastBlock)

	if def.AllowedRoles, err = decodeList(roles); err != nil {
		return def, err
	}
	if def.Restrictions, err = decodeList(restrictions); err != nil {
		return def, err
	}
	if a.UpdateFields, err = decodeList(fields); err != nil {
		return def, err
	}
	if a.TriggerConditions, err = decodeList(conditions); err != nil {
		return def, err
	}
	for _, p := range []struct {
		dst *time.Time
		src string
	}{
		{&def.CreatedAt, created},
		{&def.UpdatedAt, updated},
		{&a.LastUpdateTime, last},
		{&a.NextUpdateTime, next},
		{&a.ReportedAt, reported},
	} {
		if *p.dst, err = parseTime(p.src); err != nil {
			return def, fmt.Errorf("schema %s: %w", def.Name, err)
		}
	}
	return def, nil
}

func (s *Store) loadFields(ctx context.Context, byName map[string]*types.SchemaDefinition) error {
	rows, err := s.db.QueryContext(ctx, `SELECT schema_name, field_name, data_type, required,
    description, validation_rule, default_value
FROM schema_fields ORDER BY schema_name, ordinal`)
	if err != nil {
		return fmt.Errorf("query schema_fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name     string
			f        types.SchemaField
			dt       string
			required int
		)
		if err := rows.Scan(&name, &f.FieldName, &dt, &required,
			&f.Description, &f.ValidationRule, &f.DefaultValue); err != nil {
			return fmt.Errorf("scan field: %w", err)
		}
		f.DataType = types.DataType(dt)
		f.Required = required != 0
		if def, ok := byName[name]; ok {
			def.Fields = append(def.Fields, f)
		}
	}
	return rows.Err()
}

func (s *Store) loadTextRecords(ctx context.Context, byName map[string]*types.SchemaDefinition) error {
	rows, err := s.db.QueryContext(ctx, `SELECT schema_name, key, value FROM text_records`)
	if err != nil {
		return fmt.Errorf("query text_records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, key, value string
		if err := rows.Scan(&name, &key, &value); err != nil {
			return fmt.Errorf("scan text record: %w", err)
		}
		def, ok := byName[name]
		if !ok {
			continue
		}
		if def.TextRecords == nil {
			def.TextRecords = make(map[string]string)
		}
		def.TextRecords[key] = value
	}
	return rows.Err()
}

// encodeList stores a string list as a JSON array column.
func encodeList(items []string) (string, error) {
	if len(items) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}

func decodeList(s string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}
