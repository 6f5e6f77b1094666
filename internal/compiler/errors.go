package compiler

import (
	"errors"
	"fmt"
)

// ErrNoImageSource is returned when neither an image nor a dockerfile is configured.
var ErrNoImageSource = errors.New("no image or dockerfile configured")

// MissingRequiredEnvError reports a required variable absent from the environment.
type MissingRequiredEnvError struct {
	Name string
}

func (e *MissingRequiredEnvError) Error() string {
	return fmt.Sprintf("required environment variable %s is not set", e.Name)
}

// InvalidPortSpecError reports a port specification that cannot be classified.
type InvalidPortSpecError struct {
	Spec   string
	Reason string
}

func (e *InvalidPortSpecError) Error() string {
	return fmt.Sprintf("invalid port specification %q: %s", e.Spec, e.Reason)
}
