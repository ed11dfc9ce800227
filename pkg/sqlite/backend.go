// Package sqlite exposes the SQLite snapshot store so programs embedding the
// engine can persist its state without reaching into internal packages.
package sqlite

import (
	"context"

	"github.com/mesh-intelligence/nameward/internal/sqlite"
	"github.com/mesh-intelligence/nameward/pkg/types"
)

// DBFile is the database file name inside the data directory.
const DBFile = sqlite.DBFile

// SnapshotStore loads and saves whole engine snapshots.
type SnapshotStore interface {
	Load(ctx context.Context) (types.Snapshot, bool, error)
	Save(ctx context.Context, snap types.Snapshot) error
	Close() error
}

// Open opens or creates the snapshot database in dataDir. An empty dataDir
// gives a private in-memory store.
//
// Example:
//
//	store, err := sqlite.Open(".nameward-db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func Open(dataDir string) (SnapshotStore, error) {
	s, err := sqlite.Open(dataDir)
	if err != nil {
		return nil, err
	}
	return s, nil
}
