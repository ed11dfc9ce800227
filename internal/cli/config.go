package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/nameward/internal/paths"
	"github.com/mesh-intelligence/nameward/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	envPrefix = "NAMEWARD"

	cfgKeyDataDir         = "data_dir"
	cfgKeyOwner           = "owner"
	cfgKeyIdentity        = "identity"
	cfgKeyBlobBackend     = "blob_backend"
	cfgKeyReservedFile    = "reserved_file"
	cfgKeyResolverTimeout = "resolver_timeout"
	cfgKeyBlockInterval   = "block_interval"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# nameward configuration

# Identity made owner when the data directory is first initialized.
# owner:

# Identity commands act as when --as is not given.
# identity:

# Attached-data store: badger or memory.
blob_backend: badger

# Extra reserved words loaded into a fresh registry (YAML, optional).
# reserved_file:

# Timeout of the external existence check.
resolver_timeout: 5s

# Block-based refresh period, in blocks.
block_interval: 100

# Data directory (optional; overridable by --data-dir flag)
# data_dir:
`

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run. Settings other than
// data_dir may also come from NAMEWARD_* environment variables.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBlobBackend, types.BlobBackendBadger)
	v.SetDefault(cfgKeyResolverTimeout, types.DefaultResolverTimeout)
	v.SetDefault(cfgKeyBlockInterval, types.DefaultBlockInterval)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	// data_dir has its own precedence in paths.ResolveDataDir.
	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{
		cfgKeyOwner,
		cfgKeyIdentity,
		cfgKeyBlobBackend,
		cfgKeyReservedFile,
		cfgKeyResolverTimeout,
		cfgKeyBlockInterval,
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := paths.ConfigFile(configDir)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// engineConfig builds the engine configuration from v.
func engineConfig(v *viper.Viper, dataDir, owner string) types.Config {
	reservedFile := v.GetString(cfgKeyReservedFile)
	if reservedFile != "" && !filepath.IsAbs(reservedFile) {
		reservedFile = filepath.Join(filepath.Dir(v.ConfigFileUsed()), reservedFile)
	}
	return types.Config{
		DataDir:         dataDir,
		Owner:           owner,
		BlobBackend:     v.GetString(cfgKeyBlobBackend),
		ReservedFile:    reservedFile,
		ResolverTimeout: v.GetDuration(cfgKeyResolverTimeout),
		BlockInterval:   v.GetUint64(cfgKeyBlockInterval),
	}
}
