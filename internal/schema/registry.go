// Package schema keeps the active schema definition of every governed name,
// the per-category index and the statistics derived from them.
//
// Registry methods never check roles. The engine authorizes the caller first
// and then applies the mutation to a private clone of the registry.
package schema

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// MaxTextRecordLength caps the length of a text record value.
const MaxTextRecordLength = 1000

// DefineRequest carries the caller-supplied parts of a schema. Define and
// Update both take one. It doubles as the on-disk schema file layout.
type DefineRequest struct {
	Name         string              `json:"name" yaml:"name"`
	Tier         types.Priority      `json:"tier" yaml:"tier"`
	Category     string              `json:"category" yaml:"category"`
	Description  string              `json:"description,omitempty" yaml:"description,omitempty"`
	Version      string              `json:"version" yaml:"version"`
	InterfaceTag string              `json:"interface_tag,omitempty" yaml:"interface_tag,omitempty"`
	Fields       []types.SchemaField `json:"fields" yaml:"fields"`
	AllowedRoles []string            `json:"allowed_roles,omitempty" yaml:"allowed_roles,omitempty"`
	Restrictions []string            `json:"restrictions,omitempty" yaml:"restrictions,omitempty"`
	APIEndpoint  string              `json:"api_endpoint,omitempty" yaml:"api_endpoint,omitempty"`
	DocsURL      string              `json:"docs_url,omitempty" yaml:"docs_url,omitempty"`
}

// Registry holds the active schemas. The zero value is not usable; call New.
type Registry struct {
	schemas    map[string]*types.SchemaDefinition
	byCategory map[string][]string
	tierCounts [types.NumPriorities]int
	catCounts  map[string]int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		schemas:    make(map[string]*types.SchemaDefinition),
		byCategory: make(map[string][]string),
		catCounts:  make(map[string]int),
	}
}

// Clone returns a deep copy of r.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		schemas:    make(map[string]*types.SchemaDefinition, len(r.schemas)),
		byCategory: make(map[string][]string, len(r.byCategory)),
		tierCounts: r.tierCounts,
		catCounts:  maps.Clone(r.catCounts),
	}
	for name, def := range r.schemas {
		c.schemas[name] = def.Clone()
	}
	for cat, names := range r.byCategory {
		c.byCategory[cat] = slices.Clone(names)
	}
	return c
}

func validateRequest(req DefineRequest) error {
	if req.Name == "" {
		return fmt.Errorf("define schema: %w: name is empty", types.ErrInvalidName)
	}
	if !req.Tier.Valid() {
		return fmt.Errorf("define schema %s: %w: %d", req.Name, types.ErrInvalidTier, req.Tier)
	}
	if req.Version == "" {
		return fmt.Errorf("define schema %s: %w: version is empty", req.Name, types.ErrInvalidVersion)
	}
	if len(req.Fields) == 0 {
		return fmt.Errorf("define schema %s: %w", req.Name, types.ErrEmptyFields)
	}
	seen := make(map[string]bool, len(req.Fields))
	for _, f := range req.Fields {
		if f.FieldName == "" {
			return fmt.Errorf("define schema %s: %w: field name is empty", req.Name, types.ErrInvalidName)
		}
		if seen[f.FieldName] {
			return fmt.Errorf("define schema %s: %w: %s", req.Name, types.ErrDuplicateField, f.FieldName)
		}
		seen[f.FieldName] = true
		if !f.DataType.Valid() {
			return fmt.Errorf("define schema %s: field %s: %w: %q", req.Name, f.FieldName, types.ErrInvalidDataType, f.DataType)
		}
	}
	return nil
}

func newDefinition(req DefineRequest, now time.Time) *types.SchemaDefinition {
	return &types.SchemaDefinition{
		Name:         req.Name,
		Tier:         req.Tier,
		Category:     req.Category,
		Description:  req.Description,
		Version:      req.Version,
		InterfaceTag: req.InterfaceTag,
		Fields:       slices.Clone(req.Fields),
		AllowedRoles: slices.Clone(req.AllowedRoles),
		Restrictions: slices.Clone(req.Restrictions),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
		APIEndpoint:  req.APIEndpoint,
		DocsURL:      req.DocsURL,
		AutoUpdate:   types.DefaultAutoUpdate(),
	}
}

// Define adds the first schema for req.Name.
func (r *Registry) Define(actor string, req DefineRequest, now time.Time) (types.SchemaDefinition, []types.Event, error) {
	req.Name = types.Normalize(req.Name)
	if err := validateRequest(req); err != nil {
		return types.SchemaDefinition{}, nil, err
	}
	if _, ok := r.schemas[req.Name]; ok {
		return types.SchemaDefinition{}, nil, fmt.Errorf("define schema %s: %w", req.Name, types.ErrAlreadyDefined)
	}

	def := newDefinition(req, now)
	r.insert(def)
	return *def.Clone(), []types.Event{{
		Type:     types.EventSchemaDefined,
		Actor:    actor,
		Name:     def.Name,
		Tier:     def.Tier,
		Category: def.Category,
		Version:  def.Version,
	}}, nil
}

// Update replaces the active schema for req.Name. The creation time, text
// records, auto-update schedule and ENS flag carry over. The version must
// change.
func (r *Registry) Update(actor string, req DefineRequest, now time.Time) (types.SchemaDefinition, []types.Event, error) {
	req.Name = types.Normalize(req.Name)
	old, ok := r.schemas[req.Name]
	if !ok {
		return types.SchemaDefinition{}, nil, fmt.Errorf("update schema %s: %w", req.Name, types.ErrNotFound)
	}
	if err := validateRequest(req); err != nil {
		return types.SchemaDefinition{}, nil, err
	}
	if req.Version == old.Version {
		return types.SchemaDefinition{}, nil, fmt.Errorf("update schema %s: %w: version %s is already active",
			req.Name, types.ErrInvalidVersion, req.Version)
	}

	def := newDefinition(req, now)
	def.CreatedAt = old.CreatedAt
	def.TextRecords = old.TextRecords
	def.AutoUpdate = old.AutoUpdate
	def.ENSEnabled = old.ENSEnabled

	r.delete(old)
	r.insert(def)
	return *def.Clone(), []types.Event{{
		Type:       types.EventSchemaUpdated,
		Actor:      actor,
		Name:       def.Name,
		Tier:       def.Tier,
		Category:   def.Category,
		Version:    def.Version,
		OldVersion: old.Version,
	}}, nil
}

// Remove deprecates the schema for name, dropping its fields, text records
// and schedule.
func (r *Registry) Remove(actor, name string) ([]types.Event, error) {
	name = types.Normalize(name)
	def, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("remove schema %s: %w", name, types.ErrNotFound)
	}
	r.delete(def)
	return []types.Event{{
		Type:     types.EventSchemaDeprecated,
		Actor:    actor,
		Name:     name,
		Tier:     def.Tier,
		Category: def.Category,
		Version:  def.Version,
	}}, nil
}

func (r *Registry) insert(def *types.SchemaDefinition) {
	r.schemas[def.Name] = def
	r.byCategory[def.Category] = append(r.byCategory[def.Category], def.Name)
	r.tierCounts[def.Tier.Index()]++
	r.catCounts[def.Category]++
}

func (r *Registry) delete(def *types.SchemaDefinition) {
	delete(r.schemas, def.Name)

	// Swap-remove; order within a category is not significant.
	names := r.byCategory[def.Category]
	if i := slices.Index(names, def.Name); i >= 0 {
		last := len(names) - 1
		names[i] = names[last]
		names = names[:last]
	}
	if len(names) == 0 {
		delete(r.byCategory, def.Category)
	} else {
		r.byCategory[def.Category] = names
	}

	r.tierCounts[def.Tier.Index()]--
	if r.catCounts[def.Category]--; r.catCounts[def.Category] <= 0 {
		delete(r.catCounts, def.Category)
	}
}

// Get returns a copy of the active schema for name.
func (r *Registry) Get(name string) (types.SchemaDefinition, error) {
	def, ok := r.schemas[types.Normalize(name)]
	if !ok {
		return types.SchemaDefinition{}, fmt.Errorf("get schema %s: %w", name, types.ErrNotFound)
	}
	return *def.Clone(), nil
}

// Has reports whether name has an active schema.
func (r *Registry) Has(name string) bool {
	_, ok := r.schemas[types.Normalize(name)]
	return ok
}

// FieldByName returns one field of the active schema for name.
func (r *Registry) FieldByName(name, field string) (types.SchemaField, error) {
	def, ok := r.schemas[types.Normalize(name)]
	if !ok {
		return types.SchemaField{}, fmt.Errorf("get field %s.%s: %w", name, field, types.ErrNotFound)
	}
	f, ok := def.Field(field)
	if !ok {
		return types.SchemaField{}, fmt.Errorf("get field %s.%s: %w", name, field, types.ErrFieldNotFound)
	}
	return f, nil
}

// Statistics returns the schema counts.
func (r *Registry) Statistics() types.Statistics {
	return types.Statistics{
		Total:      len(r.schemas),
		Critical:   r.tierCounts[types.PriorityCritical.Index()],
		High:       r.tierCounts[types.PriorityHigh.Index()],
		Medium:     r.tierCounts[types.PriorityMedium.Index()],
		Low:        r.tierCounts[types.PriorityLow.Index()],
		ByCategory: maps.Clone(r.catCounts),
	}
}

// Names returns every governed name with an active schema, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns copies of every active schema, sorted by name.
func (r *Registry) List() []types.SchemaDefinition {
	names := r.Names()
	out := make([]types.SchemaDefinition, 0, len(names))
	for _, name := range names {
		out = append(out, *r.schemas[name].Clone())
	}
	return out
}

// ListByCategory returns the names in category. Order is not significant.
func (r *Registry) ListByCategory(category string) []string {
	return slices.Clone(r.byCategory[category])
}

// Categories returns every category with at least one schema, sorted.
func (r *Registry) Categories() []string {
	cats := make([]string, 0, len(r.byCategory))
	for c := range r.byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}
