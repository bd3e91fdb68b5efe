package crash

import "errors"

// Sentinel kinds for crash lookups.
var (
	ErrMalformed = errors.New("malformed crash rating payload")
	ErrNoRating  = errors.New("no crash rating returned")
	ErrInvalidID = errors.New("vehicle id missing")
)
