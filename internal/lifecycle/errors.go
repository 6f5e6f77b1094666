package lifecycle

import (
	"fmt"

	"github.com/skorokithakis/dock/internal/runtime"
)

// ConflictError reports an existing container that blocks a fresh launch.
type ConflictError struct {
	Name   string
	Status runtime.Status
	// Declined is set when the user was asked and did not agree.
	Declined bool
	// Hint names the command or flag that resolves the conflict.
	Hint string
}

func (e *ConflictError) Error() string {
	if e.Declined {
		return fmt.Sprintf("container %s is %s; not proceeding (%s)", e.Name, e.Status, e.Hint)
	}
	return fmt.Sprintf("container %s already exists and is %s: %s", e.Name, e.Status, e.Hint)
}

// LaunchError reports a runtime process that exited non-zero.
type LaunchError struct {
	Stage string
	Code  int
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Stage, e.Code)
}
