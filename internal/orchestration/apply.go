package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/imamik/proxcli/internal/config"
	"github.com/imamik/proxcli/internal/metrics"
	"github.com/imamik/proxcli/internal/platform/proxmox"
	"github.com/imamik/proxcli/internal/stack"
	"github.com/imamik/proxcli/internal/util/naming"
)

// applier carries one apply run.
type applier struct {
	r       *Reconciler
	stack   string
	desired *config.Stack
	plan    *stack.Plan
	result  *Result
	logger  zerolog.Logger
}

// Apply executes the stored plan of stackName. desired must be the stack
// the plan was computed for; if the plan no longer matches it, Apply fails
// with ErrStalePlan before touching the cluster.
//
// Entity failures do not stop the run. They are returned in the Result and
// as an *ApplyError after the state has been written and the plan deleted.
func (r *Reconciler) Apply(ctx context.Context, stackName string, desired *config.Stack) (*Result, error) {
	start := time.Now()
	logger := r.logger.With().Str("component", "apply").Str("stack", stackName).Logger()

	plan, ok, err := r.store.LoadPlan(ctx, stackName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("stack %s: %w", stackName, ErrNoPlan)
	}

	old, err := r.store.LoadState(ctx, stackName)
	if err != nil {
		return nil, err
	}
	if desired == nil {
		desired = config.NewStack()
	}
	fresh := stack.Diff(old, desired)
	fresh.DesiredDigest = stack.Digest(desired)
	if !fresh.Equal(plan) {
		return nil, fmt.Errorf("stack %s: %w", stackName, ErrStalePlan)
	}

	a := &applier{
		r:       r,
		stack:   stackName,
		desired: desired,
		plan:    plan,
		result:  &Result{Stack: stackName},
		logger:  logger,
	}

	logger.Info().Msg(plan.Summary())
	phases := []struct {
		name string
		run  func(context.Context)
	}{
		{"ha-group-remove", a.removeGroups},
		{"ha-group-add", a.addGroups},
		{"ha-group-update", a.updateGroups},
		{"instance-remove", a.removeInstances},
		{"instance-add", a.addInstances},
		{"instance-update", a.updateInstances},
	}
	for _, p := range phases {
		p.run(ctx)
		r.metrics.RecordPhase(stackName, p.name)
	}

	// Persist even when the context was cancelled: entities that did
	// converge must not be planned again.
	persistCtx := context.WithoutCancel(ctx)
	state := convergedState(old, desired, plan, a.result)
	if err := r.store.WriteState(persistCtx, stackName, state); err != nil {
		return a.result, fmt.Errorf("failed to write state: %w", err)
	}
	if err := r.store.DeletePlan(persistCtx, stackName); err != nil {
		return a.result, fmt.Errorf("failed to delete plan: %w", err)
	}

	a.result.Duration = time.Since(start)
	failures := a.result.Failures()
	r.metrics.RecordRun(stackName, "apply", a.result.Duration, len(failures))

	succeeded, skipped, failed := a.result.Counts()
	logger.Info().
		Int("succeeded", succeeded).Int("skipped", skipped).Int("failed", failed).
		Dur("duration", a.result.Duration.Round(time.Millisecond)).
		Msg("Apply finished")

	if len(failures) > 0 {
		return a.result, &ApplyError{Stack: stackName, Operation: "apply", Failures: failures}
	}
	return a.result, nil
}

// do runs one entity's steps and records the outcome. fn reports whether
// the entity was skipped.
func (a *applier) do(ctx context.Context, kind Kind, name string, action Action, fn func(context.Context) (bool, error)) {
	out := Outcome{Kind: kind, Name: name, Action: action}
	if err := ctx.Err(); err != nil {
		out.Err = err
	} else {
		out.Skipped, out.Err = fn(ctx)
	}
	a.result.Outcomes = append(a.result.Outcomes, out)

	result := metrics.ResultSuccess
	switch {
	case out.Failed():
		result = metrics.ResultFailed
		a.logger.Error().Err(out.Err).Str(string(kind), name).Str("action", string(action)).Msg("Entity failed")
	case out.Skipped:
		result = metrics.ResultSkipped
	}
	a.r.metrics.RecordEntity(a.stack, string(kind), string(action), result)
}

func (a *applier) removeGroups(ctx context.Context) {
	for _, name := range a.plan.HaGroups.Removed {
		a.do(ctx, KindHaGroup, name, ActionRemove, func(ctx context.Context) (bool, error) {
			return a.removeGroup(ctx, name)
		})
	}
}

func (a *applier) removeGroup(ctx context.Context, name string) (bool, error) {
	c := a.r.client
	remote := naming.HaGroup(a.stack, name)
	log := a.logger.With().Str("ha_group", remote).Logger()

	exists, err := c.GroupExists(ctx, remote)
	if err != nil {
		return false, entityError("check ha group", err)
	}
	if !exists {
		log.Warn().Msg("HA group does not exist, skipping")
		return true, nil
	}

	resources, err := c.ListHaResources(ctx, remote)
	if err != nil {
		return false, entityError("list ha resources", err)
	}
	for _, res := range resources {
		log.Info().Str("sid", res.SID).Msg("Removing HA resource")
		if err := c.DeleteHaResource(ctx, res.VMID); err != nil && !proxmox.IsNotFound(err) {
			log.Warn().Err(err).Str("sid", res.SID).Msg("Failed to remove HA resource")
		}
	}

	log.Info().Msg("Removing HA group")
	if err := c.DeleteHaGroup(ctx, remote); err != nil {
		if proxmox.IsNotFound(err) {
			return true, nil
		}
		return false, entityError("delete ha group", err)
	}
	return false, nil
}

func (a *applier) addGroups(ctx context.Context) {
	for _, name := range a.plan.HaGroups.Added {
		a.do(ctx, KindHaGroup, name, ActionAdd, func(ctx context.Context) (bool, error) {
			return a.addGroup(ctx, name)
		})
	}
}

func (a *applier) addGroup(ctx context.Context, name string) (bool, error) {
	spec, ok := a.desired.HaGroups.Get(name)
	if !ok {
		return false, fmt.Errorf("ha group %s is not part of the desired state", name)
	}
	remote := naming.HaGroup(a.stack, name)

	exists, err := a.r.client.GroupExists(ctx, remote)
	if err != nil {
		return false, entityError("check ha group", err)
	}
	if exists {
		a.logger.Info().Str("ha_group", remote).Msg("HA group already exists")
		return true, nil
	}

	a.logger.Info().Str("ha_group", remote).Strs("nodes", spec.Nodes).Msg("Creating HA group")
	if err := a.r.client.CreateHaGroup(ctx, a.remoteGroup(remote, spec)); err != nil {
		return false, entityError("create ha group", err)
	}
	return false, nil
}

func (a *applier) updateGroups(ctx context.Context) {
	for name, changes := range a.plan.HaGroups.Updated.All() {
		a.do(ctx, KindHaGroup, name, ActionUpdate, func(ctx context.Context) (bool, error) {
			return false, a.updateGroup(ctx, name, changes)
		})
	}
}

func (a *applier) updateGroup(ctx context.Context, name string, changes stack.PropertyChanges) error {
	spec, ok := a.desired.HaGroups.Get(name)
	if !ok {
		return fmt.Errorf("ha group %s is not part of the desired state", name)
	}
	c := a.r.client
	remote := naming.HaGroup(a.stack, name)

	if changes.Has("nodes") || changes.Has("restricted") || changes.Has("nofailback") {
		a.logger.Info().Str("ha_group", remote).Msg("Updating HA group")
		if err := c.UpdateHaGroup(ctx, a.remoteGroup(remote, spec)); err != nil {
			return entityError("update ha group", err)
		}
	}

	restart, relocate := changes.Has("max_restart"), changes.Has("max_relocate")
	if !restart && !relocate {
		return nil
	}
	resources, err := c.ListHaResources(ctx, remote)
	if err != nil {
		return entityError("list ha resources", err)
	}
	for _, res := range resources {
		if restart {
			res.MaxRestart = spec.MaxRestart
		}
		if relocate {
			res.MaxRelocate = spec.MaxRelocate
		}
		a.logger.Info().Str("sid", res.SID).
			Int("max_restart", res.MaxRestart).Int("max_relocate", res.MaxRelocate).
			Msg("Updating HA resource")
		if err := c.UpdateHaResource(ctx, res); err != nil {
			return entityError("update ha resource "+res.SID, err)
		}
	}
	return nil
}

func (a *applier) remoteGroup(remote string, spec config.HaGroupSpec) proxmox.HaGroup {
	return proxmox.HaGroup{
		Name:       remote,
		Nodes:      spec.Nodes,
		Restricted: spec.Restricted,
		NoFailback: spec.NoFailback,
		Comment:    naming.ManagedComment(a.stack),
	}
}
