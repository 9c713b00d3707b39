package config

import (
	"errors"
	"fmt"
	"strings"
)

// LoadError reports an unreadable or malformed configuration source.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// FormatError reports an instance that cannot be expanded.
type FormatError struct {
	Stack    string
	Instance string
	Field    string
	Reason   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("stack %q instance %q: invalid %s: %s", e.Stack, e.Instance, e.Field, e.Reason)
}

// ValidationError reports a semantic problem in an expanded stack.
type ValidationError struct {
	Stack   string
	Kind    string // "ha_group" or "instance"
	Name    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("stack %q %s %q: %s %s", e.Stack, e.Kind, e.Name, e.Field, e.Message)
}

// UnknownStackError is returned when a stack is not defined in the document.
type UnknownStackError struct {
	Name  string
	Known []string
}

func (e *UnknownStackError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("stack %q not found: no stacks defined", e.Name)
	}
	return fmt.Sprintf("stack %q not found (defined: %s)", e.Name, strings.Join(e.Known, ", "))
}

// IsConfigError reports whether err comes from loading, expanding or
// validating configuration, as opposed to a remote failure.
func IsConfigError(err error) bool {
	var (
		loadErr    *LoadError
		formatErr  *FormatError
		validErr   *ValidationError
		unknownErr *UnknownStackError
	)
	return errors.As(err, &loadErr) ||
		errors.As(err, &formatErr) ||
		errors.As(err, &validErr) ||
		errors.As(err, &unknownErr)
}
