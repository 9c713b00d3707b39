package orchestration

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoPlan is returned by Apply when no plan is stored for the stack.
	ErrNoPlan = errors.New("no plan found, run 'proxcli stack plan' first")

	// ErrStalePlan is returned by Apply when the stored plan no longer
	// matches the difference between the applied and the desired state.
	ErrStalePlan = errors.New("stored plan is stale, run 'proxcli stack plan' again")

	// ErrUnknownStack is returned by Destroy when the stack is neither
	// configured nor recorded in the applied state.
	ErrUnknownStack = errors.New("stack is neither configured nor applied")
)

// ApplyError aggregates the entities that failed during an apply or destroy.
type ApplyError struct {
	Stack     string
	Operation string
	Failures  []Outcome
}

func (e *ApplyError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s %s: %v", f.Kind, f.Name, f.Err))
	}
	return fmt.Sprintf("%s of stack %s failed for %d entities: %s",
		e.Operation, e.Stack, len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes the individual entity errors to errors.Is and errors.As.
func (e *ApplyError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// entityError prefixes an entity sub-step failure with the step name.
func entityError(step string, err error) error {
	return fmt.Errorf("%s: %w", step, err)
}
