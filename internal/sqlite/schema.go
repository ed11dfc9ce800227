package sqlite

// Schema DDL for the snapshot tables. Every statement is idempotent so Open
// can run them against an existing database.
const (
	createMeta = `CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

	createRoles = `CREATE TABLE IF NOT EXISTS roles (
    identity TEXT NOT NULL,
    role TEXT NOT NULL,
    PRIMARY KEY (identity, role)
);`

	createReservedWords = `CREATE TABLE IF NOT EXISTS reserved_words (
    word TEXT NOT NULL,
    match_kind TEXT NOT NULL,
    tier INTEGER NOT NULL,
    category TEXT NOT NULL,
    allowed_roles TEXT NOT NULL,
    restrictions TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (match_kind, word)
);`

	createSchemas = `CREATE TABLE IF NOT EXISTS schemas (
    name TEXT PRIMARY KEY,
    tier INTEGER NOT NULL,
    category TEXT NOT NULL,
    description TEXT NOT NULL,
    version TEXT NOT NULL,
    interface_tag TEXT NOT NULL,
    allowed_roles TEXT NOT NULL,
    restrictions TEXT NOT NULL,
    active INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    api_endpoint TEXT NOT NULL,
    docs_url TEXT NOT NULL,
    ens_enabled INTEGER NOT NULL
);`

	createSchemaFields = `CREATE TABLE IF NOT EXISTS schema_fields (
    schema_name TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    field_name TEXT NOT NULL,
    data_type TEXT NOT NULL,
    required INTEGER NOT NULL,
    description TEXT NOT NULL,
    validation_rule TEXT NOT NULL,
    default_value TEXT NOT NULL,
    PRIMARY KEY (schema_name, field_name),
    FOREIGN KEY (schema_name) REFERENCES schemas(name) ON DELETE CASCADE
);`

	createTextRecords = `CREATE TABLE IF NOT EXISTS text_records (
    schema_name TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (schema_name, key),
    FOREIGN KEY (schema_name) REFERENCES schemas(name) ON DELETE CASCADE
);`

	createAutoUpdate = `CREATE TABLE IF NOT EXISTS auto_update (
    schema_name TEXT PRIMARY KEY,
    enabled INTEGER NOT NULL,
    trigger_kind TEXT NOT NULL,
    frequency TEXT NOT NULL,
    last_update_time TEXT NOT NULL,
    next_update_time TEXT NOT NULL,
    custom_interval_seconds INTEGER NOT NULL,
    update_fields TEXT NOT NULL,
    trigger_conditions TEXT NOT NULL,
    external_target TEXT NOT NULL,
    require_data_change INTEGER NOT NULL,
    max_update_age INTEGER NOT NULL,
    reported_at TEXT NOT NULL,
    last_block INTEGER NOT NULL,
    FOREIGN KEY (schema_name) REFERENCES schemas(name) ON DELETE CASCADE
);`
)

// Index DDL for common queries.
const (
	idxSchemasCategory = `CREATE INDEX IF NOT EXISTS idx_schemas_category ON schemas(category);`
	idxSchemasTier     = `CREATE INDEX IF NOT EXISTS idx_schemas_tier ON schemas(tier);`
	idxReservedOrdinal = `CREATE INDEX IF NOT EXISTS idx_reserved_ordinal ON reserved_words(match_kind, ordinal);`
	idxFieldsOrdinal   = `CREATE INDEX IF NOT EXISTS idx_schema_fields_ordinal ON schema_fields(schema_name, ordinal);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createMeta,
	createRoles,
	createReservedWords,
	createSchemas,
	createSchemaFields,
	createTextRecords,
	createAutoUpdate,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxSchemasCategory,
	idxSchemasTier,
	idxReservedOrdinal,
	idxFieldsOrdinal,
}

// snapshotTables lists the tables Save rewrites, children first.
var snapshotTables = []string{
	"auto_update",
	"text_records",
	"schema_fields",
	"schemas",
	"reserved_words",
	"roles",
}
