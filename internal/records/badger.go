package records

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	badger "github.com/dgraph-io/badger/v4"
)

// Key prefixes inside the badger keyspace.
const (
	badgerKVPrefix    = "kv/"
	badgerListPrefix  = "list/"
	badgerCountPrefix = "count/"
)

// BadgerStore is a BlobStore backed by badger. An empty directory opens an
// in-memory database.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// BadgerOption configures a BadgerStore.
type BadgerOption func(*BadgerStore)

// WithBadgerLogger routes badger's warnings and errors to l.
func WithBadgerLogger(l *slog.Logger) BadgerOption {
	return func(s *BadgerStore) {
		s.logger = l
	}
}

// OpenBadger opens or creates the badger database in dir.
func OpenBadger(dir string, opts ...BadgerOption) (*BadgerStore, error) {
	s := &BadgerStore{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var badgerOpts badger.Options
	if dir == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create blob dir: %w", err)
		}
		badgerOpts = badger.DefaultOptions(dir)
	}
	badgerOpts = badgerOpts.
		WithLogger(badgerLogger{logger: s.logger}).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	s.db = db
	return s, nil
}

// Get implements BlobStore.
func (s *BadgerStore) Get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKVPrefix + key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrBlobNotFound
			}
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

// Put implements BlobStore.
func (s *BadgerStore) Put(key string, value []byte) error {
	var b Batch
	b.Put(key, value)
	return s.Apply(&b)
}

// Append implements BlobStore.
func (s *BadgerStore) Append(list string, item []byte) error {
	var b Batch
	b.Append(list, item)
	return s.Apply(&b)
}

// List implements BlobStore. Items come back in append order because the
// sequence suffix sorts big-endian.
func (s *BadgerStore) List(list string) ([][]byte, error) {
	var out [][]byte
	prefix := []byte(badgerListPrefix + list + "/")
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			v, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", list, err)
	}
	return out, nil
}

// Apply implements BlobStore inside one badger update transaction.
func (s *BadgerStore) Apply(b *Batch) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, op := range b.ops {
			if !op.list {
				if err := txn.Set([]byte(badgerKVPrefix+op.key), op.value); err != nil {
					return err
				}
				continue
			}
			seq, err := nextSeq(txn, op.key)
			if err != nil {
				return err
			}
			key := binary.BigEndian.AppendUint64([]byte(badgerListPrefix+op.key+"/"), seq)
			if err := txn.Set(key, op.value); err != nil {
				return err
			}
		}
		return nil
	})
}

func nextSeq(txn *badger.Txn, list string) (uint64, error) {
	countKey := []byte(badgerCountPrefix + list)
	var seq uint64
	item, err := txn.Get(countKey)
	switch {
	case err == nil:
		if err := item.Value(func(v []byte) error {
			if len(v) != 8 {
				return fmt.Errorf("corrupt list counter for %s", list)
			}
			seq = binary.BigEndian.Uint64(v)
			return nil
		}); err != nil {
			return 0, err
		}
	case !errors.Is(err, badger.ErrKeyNotFound):
		return 0, err
	}
	if err := txn.Set(countKey, binary.BigEndian.AppendUint64(nil, seq+1)); err != nil {
		return 0, err
	}
	return seq, nil
}

// Close implements BlobStore.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger adapts slog to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "blob")
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "blob")
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...), "component", "blob")
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "blob")
}
