package orchestration

import (
	"github.com/imamik/proxcli/internal/config"
	"github.com/imamik/proxcli/internal/stack"
)

// convergedState is the state to persist after an apply: the desired stack
// with every failed entity put back to what old recorded for it.
func convergedState(old, desired *config.Stack, plan *stack.Plan, result *Result) *config.Stack {
	state := desired.DeepCopy()

	for _, name := range plan.HaGroups.Added {
		if result.failed(KindHaGroup, name) {
			state.HaGroups.Delete(name)
		}
	}
	revertGroup := func(name string) {
		if !result.failed(KindHaGroup, name) {
			return
		}
		if spec, ok := old.HaGroups.Get(name); ok {
			state.HaGroups.Set(name, spec.DeepCopy())
		}
	}
	for _, name := range plan.HaGroups.Removed {
		revertGroup(name)
	}
	for _, name := range plan.HaGroups.Updated.Keys() {
		revertGroup(name)
	}

	for _, name := range plan.Instances.Added {
		if result.failed(KindInstance, name) {
			state.Instances.Delete(name)
		}
	}
	revertInstance := func(name string) {
		if !result.failed(KindInstance, name) {
			return
		}
		if spec, ok := old.Instances.Get(name); ok {
			state.Instances.Set(name, spec.DeepCopy())
		}
	}
	for _, name := range plan.Instances.Removed {
		revertInstance(name)
	}
	for _, name := range plan.Instances.Updated.Keys() {
		revertInstance(name)
	}
	return state
}
