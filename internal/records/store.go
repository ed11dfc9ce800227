// Package records is the append-only attached-data store. Submissions are
// checked against the active schema of their governed name, content-hashed
// and written to a BlobStore.
package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// Schemas is the schema lookup Submit checks against.
type Schemas interface {
	Get(name string) (types.SchemaDefinition, error)
}

// SubmitRequest is one data submission.
type SubmitRequest struct {
	Name          string
	SchemaVersion string
	FieldNames    []string
	FieldValues   [][]byte
}

// Store reads and writes attached-data records.
type Store struct {
	blobs BlobStore
}

// NewStore returns a Store over blobs.
func NewStore(blobs BlobStore) *Store {
	return &Store{blobs: blobs}
}

func recordKey(name string, h types.Hash) string {
	return "record/" + name + "/" + h.String()
}

func hashListKey(name string) string {
	return "hashes/" + name
}

// Submit validates req against the active schema and appends a new record.
// Nothing is written unless every check passes.
func (s *Store) Submit(actor string, schemas Schemas, req SubmitRequest, now time.Time) (types.AttachedDataRecord, []types.Event, error) {
	name := types.Normalize(req.Name)
	def, err := schemas.Get(name)
	if err != nil || !def.Active {
		return types.AttachedDataRecord{}, nil, fmt.Errorf("submit %s: %w", name, types.ErrSchemaNotFound)
	}
	if len(req.FieldNames) != len(req.FieldValues) {
		return types.AttachedDataRecord{}, nil, fmt.Errorf("submit %s: %w: %d names, %d values",
			name, types.ErrFieldMismatch, len(req.FieldNames), len(req.FieldValues))
	}
	if req.SchemaVersion != def.Version {
		return types.AttachedDataRecord{}, nil, fmt.Errorf("submit %s: %w: got %s, active %s",
			name, types.ErrVersionMismatch, req.SchemaVersion, def.Version)
	}
	if err := checkFields(&def, req.FieldNames, req.FieldValues); err != nil {
		return types.AttachedDataRecord{}, nil, fmt.Errorf("submit %s: %w", name, err)
	}

	rec := types.AttachedDataRecord{
		Name:          name,
		SchemaVersion: def.Version,
		Timestamp:     now,
		SubmittedBy:   actor,
		Valid:         true,
		FieldNames:    append([]string(nil), req.FieldNames...),
		FieldValues:   make([][]byte, len(req.FieldValues)),
	}
	for i, v := range req.FieldValues {
		rec.FieldValues[i] = append([]byte(nil), v...)
	}
	rec.ContentHash = ContentHash(name, rec.SchemaVersion, rec.FieldNames, rec.FieldValues, now)

	if _, err := s.blobs.Get(recordKey(name, rec.ContentHash)); err == nil {
		return types.AttachedDataRecord{}, nil, fmt.Errorf("submit %s: %w: %s", name, types.ErrDuplicateRecord, rec.ContentHash)
	} else if !errors.Is(err, ErrBlobNotFound) {
		return types.AttachedDataRecord{}, nil, fmt.Errorf("submit %s: %w", name, err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return types.AttachedDataRecord{}, nil, fmt.Errorf("encode record: %w", err)
	}
	var b Batch
	b.Put(recordKey(name, rec.ContentHash), data)
	b.Append(hashListKey(name), rec.ContentHash[:])
	if err := s.blobs.Apply(&b); err != nil {
		return types.AttachedDataRecord{}, nil, fmt.Errorf("store record: %w", err)
	}

	return rec, []types.Event{{
		Type:        types.EventDataSubmitted,
		Actor:       actor,
		Name:        name,
		Version:     rec.SchemaVersion,
		ContentHash: rec.ContentHash.String(),
	}}, nil
}

// checkFields verifies names against the schema, required fields, and each
// value against its field's data type.
func checkFields(def *types.SchemaDefinition, names []string, values [][]byte) error {
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		f, ok := def.Field(n)
		if !ok {
			return fmt.Errorf("%w: %s", types.ErrFieldNotFound, n)
		}
		if seen[n] {
			return fmt.Errorf("%w: %s", types.ErrDuplicateField, n)
		}
		seen[n] = true
		if _, err := DecodeValue(f.DataType, values[i]); err != nil {
			return fmt.Errorf("field %s: %w", n, err)
		}
	}
	for _, f := range def.Fields {
		if f.Required && !seen[f.FieldName] {
			return fmt.Errorf("%w: %s", types.ErrMissingRequiredField, f.FieldName)
		}
	}
	return nil
}

// Invalidate marks a record as no longer valid. The record is kept.
func (s *Store) Invalidate(actor, name string, h types.Hash) ([]types.Event, error) {
	name = types.Normalize(name)
	rec, err := s.GetRecord(name, h)
	if err != nil {
		return nil, err
	}
	if !rec.Valid {
		return nil, nil
	}
	rec.Valid = false
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	if err := s.blobs.Put(recordKey(name, h), data); err != nil {
		return nil, fmt.Errorf("store record: %w", err)
	}
	return []types.Event{{
		Type:        types.EventDataInvalidated,
		Actor:       actor,
		Name:        name,
		Version:     rec.SchemaVersion,
		ContentHash: h.String(),
	}}, nil
}

// GetRecord returns the record stored under (name, h).
func (s *Store) GetRecord(name string, h types.Hash) (types.AttachedDataRecord, error) {
	name = types.Normalize(name)
	data, err := s.blobs.Get(recordKey(name, h))
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return types.AttachedDataRecord{}, fmt.Errorf("get record %s/%s: %w", name, h, types.ErrRecordNotFound)
		}
		return types.AttachedDataRecord{}, fmt.Errorf("get record %s/%s: %w", name, h, err)
	}
	var rec types.AttachedDataRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return types.AttachedDataRecord{}, fmt.Errorf("decode record %s/%s: %w", name, h, err)
	}
	return rec, nil
}

// ListHashes returns the content hashes submitted for name, oldest first.
func (s *Store) ListHashes(name string) ([]types.Hash, error) {
	items, err := s.blobs.List(hashListKey(types.Normalize(name)))
	if err != nil {
		return nil, err
	}
	out := make([]types.Hash, 0, len(items))
	for _, it := range items {
		var h types.Hash
		if len(it) != len(h) {
			return nil, fmt.Errorf("list hashes %s: corrupt entry of %d bytes", name, len(it))
		}
		copy(h[:], it)
		out = append(out, h)
	}
	return out, nil
}

// LatestRecord returns the most recently submitted record for name.
func (s *Store) LatestRecord(name string) (types.AttachedDataRecord, error) {
	hashes, err := s.ListHashes(name)
	if err != nil {
		return types.AttachedDataRecord{}, err
	}
	if len(hashes) == 0 {
		return types.AttachedDataRecord{}, fmt.Errorf("latest record %s: %w", name, types.ErrRecordNotFound)
	}
	return s.GetRecord(name, hashes[len(hashes)-1])
}

// Close closes the underlying blob store.
func (s *Store) Close() error {
	return s.blobs.Close()
}
