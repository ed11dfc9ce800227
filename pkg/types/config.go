package types

import (
	"errors"
	"time"
)

// Config holds engine and storage parameters.
type Config struct {
	// DataDir holds the SQLite snapshot, the badger record store and the
	// audit journal.
	DataDir string `json:"data_dir" yaml:"data_dir"`
	// Owner is the identity made owner when the engine is first created.
	Owner string `json:"owner" yaml:"owner"`
	// BlobBackend selects the attached-data store: "badger" or "memory".
	BlobBackend string `json:"blob_backend" yaml:"blob_backend"`
	// ReservedFile optionally names a YAML file of extra reserved entries.
	ReservedFile string `json:"reserved_file" yaml:"reserved_file"`
	// ResolverTimeout bounds the validator's external existence check.
	ResolverTimeout time.Duration `json:"resolver_timeout" yaml:"resolver_timeout"`
	// BlockInterval is the block-based trigger period in blocks.
	BlockInterval uint64 `json:"block_interval" yaml:"block_interval"`
}

// Supported blob backends.
const (
	BlobBackendBadger = "badger"
	BlobBackendMemory = "memory"
)

// Config defaults.
const (
	DefaultResolverTimeout = 5 * time.Second
	DefaultBlockInterval   = 100
)

// Config validation errors.
var (
	ErrOwnerEmpty         = errors.New("owner must not be empty")
	ErrBlobBackendUnknown = errors.New("unknown blob backend")
	ErrTimeoutInvalid     = errors.New("resolver timeout must not be negative")
)

var knownBlobBackends = map[string]bool{
	BlobBackendBadger: true,
	BlobBackendMemory: true,
}

// WithDefaults returns c with zero fields replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.BlobBackend == "" {
		c.BlobBackend = BlobBackendBadger
	}
	if c.ResolverTimeout == 0 {
		c.ResolverTimeout = DefaultResolverTimeout
	}
	if c.BlockInterval == 0 {
		c.BlockInterval = DefaultBlockInterval
	}
	return c
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Owner == "" {
		return ErrOwnerEmpty
	}
	if c.BlobBackend != "" && !knownBlobBackends[c.BlobBackend] {
		return ErrBlobBackendUnknown
	}
	if c.ResolverTimeout < 0 {
		return ErrTimeoutInvalid
	}
	return nil
}
