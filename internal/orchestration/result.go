package orchestration

import "time"

// Kind is the type of a stack entity.
type Kind string

const (
	KindHaGroup  Kind = "ha_group"
	KindInstance Kind = "instance"
)

// Action is what the reconciler did to an entity.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
	ActionUpdate Action = "update"
)

// Outcome is the result of reconciling one entity.
type Outcome struct {
	Kind   Kind
	Name   string
	Action Action
	// Skipped is set when there was nothing to do remotely, e.g. removing
	// an instance that no longer exists.
	Skipped bool
	Err     error
}

// Failed reports whether the entity failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Result summarizes an apply or destroy.
type Result struct {
	Stack    string
	Outcomes []Outcome
	Duration time.Duration
}

// Failures returns the failed outcomes in execution order.
func (r *Result) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			out = append(out, o)
		}
	}
	return out
}

// Counts returns how many entities succeeded, were skipped and failed.
func (r *Result) Counts() (succeeded, skipped, failed int) {
	for _, o := range r.Outcomes {
		switch {
		case o.Failed():
			failed++
		case o.Skipped:
			skipped++
		default:
			succeeded++
		}
	}
	return succeeded, skipped, failed
}

// failed reports whether the entity of the given kind and name failed.
func (r *Result) failed(kind Kind, name string) bool {
	for _, o := range r.Outcomes {
		if o.Kind == kind && o.Name == name && o.Failed() {
			return true
		}
	}
	return false
}
