package nhtsa

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for upstream calls.
var (
	ErrRequest          = errors.New("upstream request failed")
	ErrDecode           = errors.New("upstream response malformed")
	ErrInvalidVehicleID = errors.New("invalid vehicle id")
)

// StatusError reports a non-2xx upstream status.
type StatusError struct {
	Call string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s call returned status %d", e.Call, e.Code)
}

// Unwrap lets errors.Is(err, ErrRequest) match status failures too.
func (e *StatusError) Unwrap() error { return ErrRequest }
