package types

import (
	"maps"
	"time"
)

// DataType is the declared type of a schema field. External readers decode
// submitted field values against it.
type DataType string

// Field data types.
const (
	DataTypeString       DataType = "STRING"
	DataTypeUint         DataType = "UINT"
	DataTypeAddress      DataType = "ADDRESS"
	DataTypeBool         DataType = "BOOL"
	DataTypeHash         DataType = "HASH"
	DataTypeArrayString  DataType = "ARRAY_STRING"
	DataTypeArrayUint    DataType = "ARRAY_UINT"
	DataTypeArrayAddress DataType = "ARRAY_ADDRESS"
	DataTypeStruct       DataType = "STRUCT"
	DataTypeMap          DataType = "MAP"
)

var validDataTypes = map[DataType]bool{
	DataTypeString:       true,
	DataTypeUint:         true,
	DataTypeAddress:      true,
	DataTypeBool:         true,
	DataTypeHash:         true,
	DataTypeArrayString:  true,
	DataTypeArrayUint:    true,
	DataTypeArrayAddress: true,
	DataTypeStruct:       true,
	DataTypeMap:          true,
}

// Valid reports whether d is a recognized data type.
func (d DataType) Valid() bool {
	return validDataTypes[d]
}

// SchemaField describes one typed field of a schema.
type SchemaField struct {
	FieldName      string   `json:"field_name" yaml:"field_name"`
	DataType       DataType `json:"data_type" yaml:"data_type"`
	Required       bool     `json:"required" yaml:"required"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty"`
	ValidationRule string   `json:"validation_rule,omitempty" yaml:"validation_rule,omitempty"`
	DefaultValue   string   `json:"default_value,omitempty" yaml:"default_value,omitempty"`
}

// SchemaDefinition is the active, versioned data schema of a governed name.
// Name is the stable key; Version changes on every update.
type SchemaDefinition struct {
	Name         string            `json:"name"`
	Tier         Priority          `json:"tier"`
	Category     string            `json:"category"`
	Description  string            `json:"description,omitempty"`
	Version      string            `json:"version"`
	InterfaceTag string            `json:"interface_tag,omitempty"`
	Fields       []SchemaField     `json:"fields"`
	AllowedRoles []string          `json:"allowed_roles,omitempty"`
	Restrictions []string          `json:"restrictions,omitempty"`
	Active       bool              `json:"active"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	APIEndpoint  string            `json:"api_endpoint,omitempty"`
	DocsURL      string            `json:"docs_url,omitempty"`
	AutoUpdate   AutoUpdateConfig  `json:"auto_update"`
	TextRecords  map[string]string `json:"text_records,omitempty"`
	ENSEnabled   bool              `json:"ens_enabled"`
}

// Field returns the field with the given name.
func (s *SchemaDefinition) Field(name string) (SchemaField, bool) {
	for _, f := range s.Fields {
		if f.FieldName == name {
			return f, true
		}
	}
	return SchemaField{}, false
}

// Clone returns a deep copy of s.
func (s *SchemaDefinition) Clone() *SchemaDefinition {
	c := *s
	c.Fields = append([]SchemaField(nil), s.Fields...)
	c.AllowedRoles = append([]string(nil), s.AllowedRoles...)
	c.Restrictions = append([]string(nil), s.Restrictions...)
	c.AutoUpdate = s.AutoUpdate.Clone()
	if s.TextRecords != nil {
		c.TextRecords = maps.Clone(s.TextRecords)
	}
	return &c
}
