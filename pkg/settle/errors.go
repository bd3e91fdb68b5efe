package settle

import "errors"

// ErrPanicked marks a task that panicked instead of returning.
var ErrPanicked = errors.New("task panicked")
