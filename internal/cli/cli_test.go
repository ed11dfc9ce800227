package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/nameward/internal/paths"
	"github.com/mesh-intelligence/nameward/pkg/types"
)

const priceFeedYAML = `name: price-feed
tier: high
category: oracle
version: 1.0.0
fields:
  - field_name: pair
    data_type: STRING
    required: true
  - field_name: price
    data_type: UINT
    required: true
`

// testEnv is an isolated config and data directory for CLI runs.
type testEnv struct {
	t         *testing.T
	configDir string
	dataDir   string
}

// result holds the outcome of one CLI run.
type result struct {
	Code   int
	Stdout string
	Stderr string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		t:         t,
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
	t.Setenv(paths.EnvConfigDir, env.configDir)
	t.Setenv(paths.EnvDataDir, "")
	t.Setenv("NAMEWARD_IDENTITY", "")
	t.Setenv("NAMEWARD_OWNER", "")
	t.Setenv("USER", "nobody")
	return env
}

func (e *testEnv) run(args ...string) result {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(append([]string{"--data-dir", e.dataDir}, args...), &stdout, &stderr)
	return result{Code: code, Stdout: stdout.String(), Stderr: stderr.String()}
}

func (e *testEnv) mustRun(args ...string) result {
	e.t.Helper()
	res := e.run(args...)
	require.Equal(e.t, exitSuccess, res.Code, "args %v\nstdout: %s\nstderr: %s", args, res.Stdout, res.Stderr)
	return res
}

func (e *testEnv) writeFile(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.t.TempDir(), name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// initWithSchema initializes the data directory owned by alice and defines
// price-feed.
func (e *testEnv) initWithSchema() {
	e.t.Helper()
	e.mustRun("init", "--owner", "alice")
	e.mustRun("--as", "alice", "schema", "define", e.writeFile("price-feed.yaml", priceFeedYAML))
}

func parseJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), "output: %s", s)
	return v
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	res := env.mustRun("version")
	assert.Contains(t, res.Stdout, "nameward v"+Version)
	assert.Contains(t, res.Stdout, modulePath)
}

func TestInitWritesConfigAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	res := env.mustRun("init", "--owner", "alice")
	assert.Contains(t, res.Stdout, "owner alice")
	assert.FileExists(t, filepath.Join(env.configDir, paths.ConfigFileName))

	res = env.mustRun("init", "--owner", "bob")
	assert.Contains(t, res.Stdout, "owner alice", "second init must not change the owner")

	who := parseJSON[map[string]string](t, env.mustRun("--as", "alice", "--json", "role", "whoami").Stdout)
	assert.Equal(t, "owner", who["role"])
}

func TestValidateExitCodes(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init", "--owner", "alice")

	res := env.run("validate", "my-dao-1")
	assert.Equal(t, exitSuccess, res.Code, res.Stderr)

	res = env.run("--json", "validate", "my-dao-1", "admin")
	assert.Equal(t, exitUserError, res.Code)
	results := parseJSON[[]types.ValidationResult](t, res.Stdout)
	require.Len(t, results, 2)
	assert.True(t, results[0].IsValid)
	assert.False(t, results[1].IsValid)
	assert.True(t, results[1].IsReserved)
	assert.Contains(t, res.Stderr, "Error:")
}

func TestValidateKnownNames(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init", "--owner", "alice")

	res := env.run("--known", "my-dao-1.dao.eth", "validate", "my-dao-1", "--parent", "dao.eth")
	assert.Equal(t, exitUserError, res.Code)
	assert.Contains(t, res.Stdout, "my-dao-1")
}

func TestSchemaDefineAndGet(t *testing.T) {
	env := newTestEnv(t)
	env.initWithSchema()

	def := parseJSON[types.SchemaDefinition](t, env.mustRun("--json", "schema", "get", "price-feed").Stdout)
	assert.Equal(t, "1.0.0", def.Version)
	assert.Equal(t, types.PriorityHigh, def.Tier)
	require.Len(t, def.Fields, 2)

	res := env.run("--as", "alice", "schema", "define", env.writeFile("again.yaml", priceFeedYAML))
	assert.Equal(t, exitUserError, res.Code)
	assert.Contains(t, res.Stderr, "Error:")

	res = env.run("schema", "get", "missing")
	assert.Equal(t, exitUserError, res.Code)
}

func TestUnauthorizedCallerExitsWithUserError(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init", "--owner", "alice")

	res := env.run("--as", "mallory", "schema", "define", env.writeFile("s.yaml", priceFeedYAML))
	assert.Equal(t, exitUserError, res.Code)
	assert.Contains(t, strings.ToLower(res.Stderr), "unauthorized")

	res = env.run("--as", "mallory", "role", "add", "mallory", "admin")
	assert.Equal(t, exitUserError, res.Code)
}

func TestSubmitAndReadData(t *testing.T) {
	env := newTestEnv(t)
	env.initWithSchema()
	env.mustRun("--as", "alice", "role", "add", "bob", "provider")

	res := env.mustRun("--as", "bob", "--json", "data", "submit", "price-feed",
		"--field", "pair=ETH/USD", "--field", "price=3150")
	rec := parseJSON[types.AttachedDataRecord](t, res.Stdout)
	assert.Equal(t, "bob", rec.SubmittedBy)
	assert.True(t, rec.Valid)

	hashes := parseJSON[[]types.Hash](t, env.mustRun("--json", "data", "list", "price-feed").Stdout)
	require.Len(t, hashes, 1)
	assert.Equal(t, rec.ContentHash, hashes[0])

	latest := parseJSON[recordView](t, env.mustRun("--json", "data", "latest", "price-feed").Stdout)
	assert.Equal(t, "ETH/USD", latest.Values["pair"])
	assert.Equal(t, "3150", latest.Values["price"])

	res = env.run("--as", "bob", "data", "invalidate", "price-feed", rec.ContentHash.String())
	assert.Equal(t, exitUserError, res.Code, "providers cannot invalidate")

	env.mustRun("--as", "alice", "data", "invalidate", "price-feed", rec.ContentHash.String())
	got := parseJSON[recordView](t, env.mustRun("--json", "data", "get", "price-feed", rec.ContentHash.String()).Stdout)
	assert.False(t, got.Valid)
}

func TestSubmitRejectsMissingField(t *testing.T) {
	env := newTestEnv(t)
	env.initWithSchema()

	res := env.run("--as", "alice", "data", "submit", "price-feed", "--field", "pair=ETH/USD")
	assert.Equal(t, exitUserError, res.Code)

	res = env.run("--as", "alice", "data", "submit", "price-feed", "--field", "pair")
	assert.Equal(t, exitUserError, res.Code)
}

func TestTextRecords(t *testing.T) {
	env := newTestEnv(t)
	env.initWithSchema()

	env.mustRun("--as", "alice", "text", "set", "price-feed", "url", "https://example.org")
	res := env.mustRun("text", "get", "price-feed", "url")
	assert.Contains(t, res.Stdout, "https://example.org")
}

func TestReportedAutoUpdate(t *testing.T) {
	env := newTestEnv(t)
	env.initWithSchema()

	env.mustRun("--as", "alice", "autoupdate", "configure", "price-feed", "--trigger", "event-based")
	due := parseJSON[[]string](t, env.mustRun("--json", "autoupdate", "due").Stdout)
	assert.Empty(t, due)

	res := env.run("--as", "alice", "autoupdate", "trigger", "price-feed")
	assert.Equal(t, exitUserError, res.Code, "not due before a report")

	env.mustRun("--as", "alice", "autoupdate", "report", "price-feed")
	due = parseJSON[[]string](t, env.mustRun("--json", "autoupdate", "due").Stdout)
	assert.Equal(t, []string{"price-feed"}, due)

	env.mustRun("--as", "alice", "autoupdate", "trigger", "price-feed")
	due = parseJSON[[]string](t, env.mustRun("--json", "autoupdate", "due").Stdout)
	assert.Empty(t, due)
}

func TestRoleManagement(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init", "--owner", "alice")

	env.mustRun("--as", "alice", "role", "add", "carol", "admin")
	env.mustRun("--as", "carol", "role", "add", "dave", "moderator")

	members := parseJSON[map[string][]string](t, env.mustRun("--json", "role", "list").Stdout)
	assert.Equal(t, []string{"alice"}, members["owner"])
	assert.Contains(t, members["administrator"], "carol")
	assert.Contains(t, members["moderator"], "dave")

	res := env.run("--as", "alice", "role", "add", "dave", "owner")
	assert.Equal(t, exitUserError, res.Code)

	env.mustRun("--as", "alice", "role", "transfer", "carol")
	who := parseJSON[map[string]string](t, env.mustRun("--as", "carol", "--json", "role", "whoami").Stdout)
	assert.Equal(t, "owner", who["role"])
}

func TestReservedCommands(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init", "--owner", "alice")

	env.mustRun("--as", "alice", "reserved", "add", "oracle-hub", "--tier", "high",
		"--allowed-roles", "admin", "--restrictions", "kyc-required")
	res := env.run("validate", "oracle-hub")
	assert.Equal(t, exitUserError, res.Code)

	entries := parseJSON[[]types.ReservedWord](t, env.mustRun("--json", "reserved", "list", "--kind", "exact").Stdout)
	var found bool
	for _, e := range entries {
		if e.Word == "oracle-hub" {
			found = true
			assert.Equal(t, []string{"administrator"}, e.AllowedRoles)
			assert.Equal(t, []string{"kyc-required"}, e.Restrictions)
		}
	}
	assert.True(t, found, "reserved entry survives the reopen")

	res = env.run("--as", "alice", "reserved", "add", "keeper", "--category", "owner")
	assert.Equal(t, exitUserError, res.Code)

	env.mustRun("--as", "alice", "reserved", "remove", "oracle-hub")
	env.mustRun("validate", "oracle-hub")
}

func TestAuditJournal(t *testing.T) {
	env := newTestEnv(t)
	env.initWithSchema()
	env.mustRun("--as", "alice", "text", "set", "price-feed", "url", "https://example.org")

	events := parseJSON[[]types.Event](t, env.mustRun("--json", "audit", "list", "--name", "price-feed").Stdout)
	require.Len(t, events, 2)
	assert.Equal(t, types.EventSchemaDefined, events[0].Type)
	assert.Equal(t, types.EventTextRecordSet, events[1].Type)
	assert.Equal(t, "alice", events[0].Actor)

	env.mustRun("audit", "compact", "--keep", "1")
	events = parseJSON[[]types.Event](t, env.mustRun("--json", "audit", "list").Stdout)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventTextRecordSet, events[0].Type)
}

func TestUnknownCommandIsUserError(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("frobnicate")
	assert.Equal(t, exitUserError, res.Code)
	assert.Contains(t, res.Stderr, "Error:")
}
