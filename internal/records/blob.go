package records

import (
	"errors"
	"slices"
	"sync"
)

// ErrBlobNotFound is returned by BlobStore.Get for a missing key.
var ErrBlobNotFound = errors.New("blob key not found")

// BlobStore is the byte-level storage under the attached-data store. Keys are
// plain values; lists are append-only sequences addressed by a list key.
type BlobStore interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Append(list string, item []byte) error
	List(list string) ([][]byte, error)
	// Apply commits every operation in b or none of them.
	Apply(b *Batch) error
	Close() error
}

type batchOp struct {
	list  bool
	key   string
	value []byte
}

// Batch groups puts and appends for a single atomic Apply.
type Batch struct {
	ops []batchOp
}

// Put stages a key write.
func (b *Batch) Put(key string, value []byte) {
	b.ops = append(b.ops, batchOp{key: key, value: slices.Clone(value)})
}

// Append stages a list append.
func (b *Batch) Append(list string, item []byte) {
	b.ops = append(b.ops, batchOp{list: true, key: list, value: slices.Clone(item)})
}

// Len returns the number of staged operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

// MemoryStore is a BlobStore held in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	kv    map[string][]byte
	lists map[string][][]byte
}

// NewMemoryStore returns an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		kv:    make(map[string][]byte),
		lists: make(map[string][][]byte),
	}
}

// Get implements BlobStore.
func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kv[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return slices.Clone(v), nil
}

// Put implements BlobStore.
func (m *MemoryStore) Put(key string, value []byte) error {
	var b Batch
	b.Put(key, value)
	return m.Apply(&b)
}

// Append implements BlobStore.
func (m *MemoryStore) Append(list string, item []byte) error {
	var b Batch
	b.Append(list, item)
	return m.Apply(&b)
}

// List implements BlobStore.
func (m *MemoryStore) List(list string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := m.lists[list]
	out := make([][]byte, len(items))
	for i, it := range items {
		out[i] = slices.Clone(it)
	}
	return out, nil
}

// Apply implements BlobStore.
func (m *MemoryStore) Apply(b *Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range b.ops {
		if op.list {
			m.lists[op.key] = append(m.lists[op.key], op.value)
		} else {
			m.kv[op.key] = op.value
		}
	}
	return nil
}

// Close implements BlobStore.
func (m *MemoryStore) Close() error {
	return nil
}
