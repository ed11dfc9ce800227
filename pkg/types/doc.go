// Package types defines the entities, enumerations and standard error values
// shared by the nameward engine: reserved words, schema definitions and
// fields, auto-update configuration, attached-data records, validation
// verdicts, roles and engine events.
//
// Components in internal/ operate on these types; nothing in this package
// holds state or performs I/O.
package types
