package vehicle

import "errors"

// Sentinel kinds for vehicle lookups.
var (
	ErrIncompleteQuery = errors.New("modelYear, manufacturer and model are required")
	ErrUpstream        = errors.New("vehicle lookup failed")
	ErrMalformed       = errors.New("malformed vehicles payload")
)
