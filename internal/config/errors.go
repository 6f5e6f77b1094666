package config

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingArgument is returned when a primitive that needs an argument got none.
	ErrMissingArgument = errors.New("missing argument")
	// ErrEmptyValue is returned when an empty string is not a meaningful value.
	ErrEmptyValue = errors.New("empty value")
	// ErrInvalidValue is returned when an argument fails validation.
	ErrInvalidValue = errors.New("invalid value")
	// ErrUnknownPrimitive is returned for statements naming no known primitive.
	ErrUnknownPrimitive = errors.New("unknown primitive")
	// ErrConfigNotFound is returned when an explicitly requested config file is missing.
	ErrConfigNotFound = errors.New("config file not found")
)

// ValidationError reports a bad invocation of a configuration primitive.
type ValidationError struct {
	Primitive string
	Detail    string
	Err       error
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Primitive, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Primitive, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(primitive string, err error, format string, args ...any) *ValidationError {
	return &ValidationError{
		Primitive: primitive,
		Detail:    fmt.Sprintf(format, args...),
		Err:       err,
	}
}

// StatementError attaches a file position to an evaluation failure.
type StatementError struct {
	File string
	Line int
	Err  error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}
