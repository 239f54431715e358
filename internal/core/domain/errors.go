package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not available for this backend.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown parser type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrSourceInactive indicates the source exists but is switched off.
	ErrSourceInactive = errors.New("source inactive")

	// ErrHarvestInProgress indicates another harvest owns the (source, set) log.
	ErrHarvestInProgress = errors.New("harvest in progress")
)
