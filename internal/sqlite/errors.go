package sqlite

import "errors"

// Store errors.
var (
	ErrClosed        = errors.New("snapshot store closed")
	ErrSchemaVersion = errors.New("unsupported snapshot schema version")
)
