package store

import "errors"

// Sentinel errors returned by the store. Handlers translate these into
// client-facing responses; anything else is treated as a storage fault.
var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrMachineNotFound means a referenced machine does not exist.
	ErrMachineNotFound = errors.New("machine not found")

	// ErrInvalidInput means a required field is missing or non-positive.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientQuantity means a consumption amount exceeds the
	// current quantity. This is a user error, distinct from ErrInvalidInput
	// so callers can render a specific message. No state is mutated.
	ErrInsufficientQuantity = errors.New("requested amount exceeds available quantity")

	// ErrConflict means a consumption lost the optimistic concurrency race
	// more times than we are willing to retry.
	ErrConflict = errors.New("concurrent update conflict, please retry")
)
