package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/nameward/internal/audit"
	"github.com/mesh-intelligence/nameward/internal/engine"
	"github.com/mesh-intelligence/nameward/internal/event"
	"github.com/mesh-intelligence/nameward/internal/paths"
	"github.com/mesh-intelligence/nameward/internal/sqlite"
	"github.com/mesh-intelligence/nameward/internal/validator"
)

const defaultIdentity = "anonymous"

// app is one opened data directory: snapshot store, audit journal, event
// bus and the engine over them.
type app struct {
	engine  *engine.Engine
	store   *sqlite.Store
	journal *audit.Journal
	bus     *event.Bus
	logger  *slog.Logger

	caller  string
	dataDir string
}

// newLogger returns the CLI logger: JSON on w, warnings and above unless
// debug is set.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// openApp resolves directories and configuration and opens the engine.
// owner applies only when the data directory holds no snapshot yet.
func openApp(cmd *cobra.Command, owner string, opts ...engine.Option) (*app, error) {
	logger := newLogger(cmd.ErrOrStderr(), flags.debug)

	v, dataDir, err := resolveDirs()
	if err != nil {
		return nil, err
	}

	caller := identity(v.GetString(cfgKeyIdentity))
	if owner == "" {
		owner = v.GetString(cfgKeyOwner)
	}
	if owner == "" {
		owner = caller
	}

	a := &app{
		logger:  logger,
		caller:  caller,
		dataDir: dataDir,
	}
	if a.store, err = sqlite.Open(dataDir, sqlite.WithLogger(logger)); err != nil {
		return nil, sysError(err)
	}
	if a.journal, err = audit.Open(filepath.Join(dataDir, audit.FileName), audit.WithLogger(logger)); err != nil {
		a.store.Close()
		return nil, sysError(err)
	}
	a.bus = event.NewBus(event.WithLogger(logger))
	a.bus.Register(event.AllTypes, a.journal)

	base := []engine.Option{
		engine.WithLogger(logger),
		engine.WithSnapshotStore(a.store),
		engine.WithBus(a.bus),
	}
	if len(flags.known) > 0 {
		base = append(base, engine.WithResolver(knownResolver(flags.known)))
	}
	cfg := engineConfig(v, dataDir, owner)
	a.engine, err = engine.New(ctx(cmd), cfg, append(base, opts...)...)
	if err != nil {
		a.bus.Stop()
		a.store.Close()
		return nil, classify(err)
	}
	logger.Debug("engine opened",
		"component", "cli",
		"data_dir", dataDir,
		"actor", caller,
	)
	return a, nil
}

// resolveDirs loads the configuration and resolves the data directory.
func resolveDirs() (*viper.Viper, string, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, "", sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return nil, "", sysError(err)
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, "", sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	return v, dataDir, nil
}

// Close releases everything openApp opened.
func (a *app) Close() error {
	errEngine := a.engine.Close()
	a.bus.Stop()
	errStore := a.store.Close()
	return errors.Join(errEngine, errStore)
}

// ctx returns the command context, falling back to Background.
func ctx(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}

// identity picks the acting identity: --as, then the configured identity,
// then the OS user.
func identity(configured string) string {
	for _, id := range []string{flags.as, configured, os.Getenv("USER")} {
		if id != "" {
			return id
		}
	}
	return defaultIdentity
}

// knownResolver builds a static resolver from "fqdn" or "fqdn=owner" items.
func knownResolver(items []string) *validator.StaticResolver {
	known := make(map[string]string, len(items))
	for _, it := range items {
		fqdn, owner, _ := strings.Cut(it, "=")
		known[fqdn] = owner
	}
	return validator.NewStaticResolver(known)
}

// withApp opens the app, runs fn and closes the app.
func withApp(cmd *cobra.Command, fn func(a *app) error, opts ...engine.Option) error {
	a, err := openApp(cmd, "", opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Error("close failed", "component", "cli", "err", err)
		}
	}()
	return fn(a)
}
