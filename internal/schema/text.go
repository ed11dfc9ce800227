package schema

import (
	"fmt"
	"maps"
	"time"
	"unicode/utf8"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// SetTextRecord attaches a free-form key/value to the schema for name.
func (r *Registry) SetTextRecord(actor, name, key, value string) ([]types.Event, error) {
	def, ok := r.schemas[types.Normalize(name)]
	if !ok {
		return nil, fmt.Errorf("set text record %s: %w", name, types.ErrNotFound)
	}
	if key == "" {
		return nil, fmt.Errorf("set text record %s: %w: key is empty", name, types.ErrInvalidTextRecord)
	}
	if n := utf8.RuneCountInString(value); n < 1 || n > MaxTextRecordLength {
		return nil, fmt.Errorf("set text record %s/%s: %w: value must be 1 to %d characters, got %d",
			name, key, types.ErrInvalidTextRecord, MaxTextRecordLength, n)
	}
	if def.TextRecords == nil {
		def.TextRecords = make(map[string]string)
	}
	def.TextRecords[key] = value
	return []types.Event{{
		Type:  types.EventTextRecordSet,
		Actor: actor,
		Name:  def.Name,
		Key:   key,
	}}, nil
}

// GetTextRecord returns one text record of the schema for name.
func (r *Registry) GetTextRecord(name, key string) (string, error) {
	def, ok := r.schemas[types.Normalize(name)]
	if !ok {
		return "", fmt.Errorf("get text record %s: %w", name, types.ErrNotFound)
	}
	v, ok := def.TextRecords[key]
	if !ok {
		return "", fmt.Errorf("get text record %s/%s: %w", name, key, types.ErrTextRecordUnset)
	}
	return v, nil
}

// TextRecords returns a copy of every text record of the schema for name.
func (r *Registry) TextRecords(name string) (map[string]string, error) {
	def, ok := r.schemas[types.Normalize(name)]
	if !ok {
		return nil, fmt.Errorf("list text records %s: %w", name, types.ErrNotFound)
	}
	out := maps.Clone(def.TextRecords)
	if out == nil {
		out = map[string]string{}
	}
	return out, nil
}

// SetENSEnabled flips the ENS flag of the schema for name.
func (r *Registry) SetENSEnabled(actor, name string, enabled bool, now time.Time) ([]types.Event, error) {
	def, ok := r.schemas[types.Normalize(name)]
	if !ok {
		return nil, fmt.Errorf("set ens %s: %w", name, types.ErrNotFound)
	}
	if def.ENSEnabled == enabled {
		return nil, nil
	}
	def.ENSEnabled = enabled
	def.UpdatedAt = now
	return []types.Event{{
		Type:       types.EventSchemaUpdated,
		Actor:      actor,
		Name:       def.Name,
		Tier:       def.Tier,
		Category:   def.Category,
		Version:    def.Version,
		OldVersion: def.Version,
		Key:        "ens_enabled",
	}}, nil
}

// AutoUpdate returns the refresh schedule of the schema for name.
func (r *Registry) AutoUpdate(name string) (types.AutoUpdateConfig, error) {
	def, ok := r.schemas[types.Normalize(name)]
	if !ok {
		return types.AutoUpdateConfig{}, fmt.Errorf("auto-update %s: %w", name, types.ErrNotFound)
	}
	return def.AutoUpdate.Clone(), nil
}

// PutAutoUpdate replaces the refresh schedule of the schema for name. A
// non-zero touched also stamps the schema's UpdatedAt.
func (r *Registry) PutAutoUpdate(name string, cfg types.AutoUpdateConfig, touched time.Time) error {
	def, ok := r.schemas[types.Normalize(name)]
	if !ok {
		return fmt.Errorf("auto-update %s: %w", name, types.ErrNotFound)
	}
	def.AutoUpdate = cfg.Clone()
	if !touched.IsZero() {
		def.UpdatedAt = touched
	}
	return nil
}

// Restore inserts a previously persisted definition as is. It is used when
// loading a snapshot and skips request validation but not uniqueness.
func (r *Registry) Restore(def types.SchemaDefinition) error {
	if _, ok := r.schemas[def.Name]; ok {
		return fmt.Errorf("restore schema %s: %w", def.Name, types.ErrAlreadyDefined)
	}
	if !def.Tier.Valid() {
		return fmt.Errorf("restore schema %s: %w: %d", def.Name, types.ErrInvalidTier, def.Tier)
	}
	r.insert(def.Clone())
	return nil
}
