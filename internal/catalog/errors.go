package catalog

import "errors"

var (
	// ErrNotFound indicates the referenced product id does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrValidation indicates bad or missing required input.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence indicates the store failed for infrastructural reasons.
	ErrPersistence = errors.New("persistence failure")
)
