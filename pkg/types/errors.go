package types

import "errors"

// Schema registry errors.
var (
	ErrAlreadyDefined    = errors.New("schema already defined")
	ErrNotFound          = errors.New("schema not found")
	ErrEmptyFields       = errors.New("schema must declare at least one field")
	ErrFieldNotFound     = errors.New("field not found")
	ErrDuplicateField    = errors.New("duplicate field name")
	ErrInvalidDataType   = errors.New("invalid field data type")
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidVersion    = errors.New("invalid version")
	ErrInvalidTextRecord = errors.New("invalid text record")
	ErrTextRecordUnset   = errors.New("text record not set")
)

// Attached-data errors.
var (
	ErrSchemaNotFound       = errors.New("no active schema for name")
	ErrFieldMismatch        = errors.New("field names and values differ in length")
	ErrVersionMismatch      = errors.New("schema version does not match active schema")
	ErrMissingRequiredField = errors.New("required field missing")
	ErrInvalidFieldValue    = errors.New("field value does not match data type")
	ErrRecordNotFound       = errors.New("record not found")
	ErrDuplicateRecord      = errors.New("record with this content hash already exists")
)

// Access errors.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrCannotRemoveOwner = errors.New("owner cannot be removed from administrators")
	ErrInvalidIdentity   = errors.New("identity must not be empty")
	ErrUnknownRole       = errors.New("unknown role")
)

// Scheduling errors.
var (
	ErrAutoUpdateDisabled = errors.New("auto-update disabled")
	ErrNotDue             = errors.New("update not due")
	ErrInvalidInterval    = errors.New("custom interval must be positive")
	ErrUnknownTrigger     = errors.New("unknown trigger")
	ErrUnknownFrequency   = errors.New("unknown frequency")
	ErrNoStrategy         = errors.New("no refresh strategy for trigger")
	ErrNotReported        = errors.New("trigger kind is not reported externally")
)

// Reserved-word registry errors.
var (
	ErrProtectedEntry    = errors.New("reserved entry is protected")
	ErrReservedNotFound  = errors.New("reserved entry not found")
	ErrReservedDuplicate = errors.New("reserved entry already exists")
	ErrInvalidTier       = errors.New("invalid priority tier")
	ErrInvalidMatchKind  = errors.New("invalid match kind")
)
