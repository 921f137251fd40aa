package metadata

import "errors"

var (
	// ErrReadOnly is returned by mutations after the model was finalized.
	ErrReadOnly = errors.New("model is read-only")

	// ErrNotInModel is returned when mutating an element that was removed.
	ErrNotInModel = errors.New("element is not in the model")

	// ErrNotFound is returned when a named element does not exist.
	ErrNotFound = errors.New("element not found")

	// ErrInvalid is returned for structurally invalid requests, such as a
	// foreign key whose property count does not match the principal key.
	ErrInvalid = errors.New("invalid model operation")
)
