// Package audit keeps an append-only JSONL journal of committed engine
// events. A Journal is an event.Subscriber.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// FileName is the journal file inside the data directory.
const FileName = "audit.jsonl"

// ErrClosed is returned when delivering to a closed journal.
var ErrClosed = errors.New("audit journal closed")

// Journal appends one JSON line per event.
type Journal struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
	f  *os.File
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(j *Journal) {
		j.logger = l
	}
}

// Open opens the journal at path for appending, creating it if needed.
func Open(path string, opts ...Option) (*Journal, error) {
	j := &Journal{
		path:   path,
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(j)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	j.f = f
	return j, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// Deliver appends evt as one line.
func (j *Journal) Deliver(evt types.Event) error {
	line, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return ErrClosed
	}
	if _, err := j.f.Write(line); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	j.logger.Debug("event journaled",
		"component", "audit",
		"type", string(evt.Type),
		"name", evt.Name,
	)
	return nil
}

// Sync flushes the journal to disk.
func (j *Journal) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return ErrClosed
	}
	return j.f.Sync()
}

// Close syncs and closes the journal. It is safe to call more than once.
func (j *Journal) Close() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return
	}
	if err := j.f.Sync(); err != nil {
		j.logger.Warn("journal sync failed", "component", "audit", "err", err)
	}
	if err := j.f.Close(); err != nil {
		j.logger.Warn("journal close failed", "component", "audit", "err", err)
	}
	j.f = nil
}

// Read returns every well-formed event in the journal at path, oldest
// first. A missing journal reads as empty.
func Read(path string) ([]types.Event, error) {
	raw, err := readJSONL(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]types.Event, 0, len(raw))
	for _, r := range raw {
		var evt types.Event
		if err := json.Unmarshal(r, &evt); err != nil {
			continue
		}
		out = append(out, evt)
	}
	return out, nil
}

// Filter returns the events about name, or all of them when name is empty.
// A positive limit keeps only the most recent matches.
func Filter(events []types.Event, name string, limit int) []types.Event {
	var out []types.Event
	for _, evt := range events {
		if name == "" || evt.Name == name {
			out = append(out, evt)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Compact atomically rewrites the journal at path keeping only the most
// recent keep lines. Malformed lines are dropped. No Journal may hold the
// file open while it runs.
func Compact(path string, keep int) (int, error) {
	raw, err := readJSONL(path)
	if err != nil {
		return 0, err
	}
	if keep >= 0 && len(raw) > keep {
		raw = raw[len(raw)-keep:]
	}
	if err := writeJSONL(path, raw); err != nil {
		return 0, err
	}
	return len(raw), nil
}
