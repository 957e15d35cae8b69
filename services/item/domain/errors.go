package domain

import "errors"

// Sentinel errors for the item domain. Use errors.Is() to check these.
var (
	// ErrItemNotFound indicates no item exists for the requested id.
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidItemName indicates the item name violates domain constraints.
	ErrInvalidItemName = errors.New("invalid item name")

	// ErrMissingID indicates an id-scoped operation was called without an id.
	ErrMissingID = errors.New("id required")

	// ErrMethodNotAllowed indicates an operation verb the resource does not support.
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrMalformedPayload indicates a request body that could not be decoded.
	ErrMalformedPayload = errors.New("malformed payload")
)

// ValidationError carries a client-facing message for a rejected field.
// It unwraps to the sentinel describing the rule that failed.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

// NameRequired is returned when a name is missing, null or blank.
func NameRequired() *ValidationError {
	return &ValidationError{Field: "name", Message: "Name is required", Err: ErrInvalidItemName}
}
