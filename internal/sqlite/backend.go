// Package sqlite persists engine snapshots in a SQLite database. The
// database is the durable copy of the registry state between process runs:
// roles, reserved words, schemas with their fields, text records and
// auto-update schedules. Attached-data records live in the blob store.
package sqlite

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DBFile is the database file name inside the data directory.
const DBFile = "nameward.db"

// Meta keys.
const (
	metaSavedAt       = "saved_at"
	metaSchemaVersion = "schema_version"
)

// storeSchemaVersion is bumped whenever the DDL changes incompatibly.
const storeSchemaVersion = "2"

// Store is a SQLite snapshot store. Load and Save are safe for concurrent
// use; Save replaces the whole snapshot in one transaction.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	logger *slog.Logger
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// Open opens or creates the snapshot database in dataDir. An empty dataDir
// opens a private in-memory database.
func Open(dataDir string, opts ...Option) (*Store, error) {
	s := &Store{
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	dsn := ":memory:"
	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		s.path = filepath.Join(dataDir, DBFile)
		dsn = s.path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	s.db = db
	s.logger.Debug("snapshot store opened",
		"component", "sqlite",
		"path", s.path,
	)
	return s, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	var version string
	err := db.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaSchemaVersion).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		_, err = db.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, metaSchemaVersion, storeSchemaVersion)
		if err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version != storeSchemaVersion:
		return fmt.Errorf("%w: database has %s, want %s", ErrSchemaVersion, version, storeSchemaVersion)
	}
	return nil
}

// Path returns the database file path, empty for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) checkOpen() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

// formatTime encodes t as RFC 3339 text; the zero time is stored as "".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
