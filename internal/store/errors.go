package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the task id is not tracked by this store.
	ErrNotFound = errors.New("task not found")

	// ErrInvalidTransition indicates the requested status change is not
	// permitted by the state machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrRetryExhausted indicates the task has reached its retry ceiling.
	ErrRetryExhausted = errors.New("retry limit reached")

	// ErrCorrupted indicates neither the primary state file nor its backup
	// could be decoded.
	ErrCorrupted = errors.New("state file corrupted")
)

// CycleError reports an attempt to start a task that participates in a
// dependency cycle.
type CycleError struct {
	TaskID string
	Path   []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("task %s is part of a dependency cycle: %s",
		e.TaskID, strings.Join(e.Path, " -> "))
}
