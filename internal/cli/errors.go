package cli

import (
	"errors"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// userErrors are engine errors caused by the request rather than the system.
var userErrors = []error{
	types.ErrAlreadyDefined,
	types.ErrNotFound,
	types.ErrEmptyFields,
	types.ErrFieldNotFound,
	types.ErrDuplicateField,
	types.ErrInvalidDataType,
	types.ErrInvalidName,
	types.ErrInvalidVersion,
	types.ErrInvalidTextRecord,
	types.ErrTextRecordUnset,
	types.ErrSchemaNotFound,
	types.ErrFieldMismatch,
	types.ErrVersionMismatch,
	types.ErrMissingRequiredField,
	types.ErrInvalidFieldValue,
	types.ErrRecordNotFound,
	types.ErrDuplicateRecord,
	types.ErrUnauthorized,
	types.ErrCannotRemoveOwner,
	types.ErrInvalidIdentity,
	types.ErrUnknownRole,
	types.ErrAutoUpdateDisabled,
	types.ErrNotDue,
	types.ErrInvalidInterval,
	types.ErrUnknownTrigger,
	types.ErrUnknownFrequency,
	types.ErrNotReported,
	types.ErrProtectedEntry,
	types.ErrReservedNotFound,
	types.ErrReservedDuplicate,
	types.ErrInvalidTier,
	types.ErrInvalidMatchKind,
	types.ErrOwnerEmpty,
	types.ErrBlobBackendUnknown,
	types.ErrTimeoutInvalid,
}

// classify wraps an engine error with its exit code.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return userError(err)
		}
	}
	return sysError(err)
}
