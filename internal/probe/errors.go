package probe

import "errors"

// Sentinel kinds for probe failures.
var (
	ErrInvalidTarget = errors.New("target must be year/make/model")
	ErrInvalidMode   = errors.New("unknown mode")
	ErrUnhealthy     = errors.New("facade is not healthy")
	ErrShape         = errors.New("response shape violated")
	ErrChecksFailed  = errors.New("some checks failed")
)
