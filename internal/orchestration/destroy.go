package orchestration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/imamik/proxcli/internal/config"
	"github.com/imamik/proxcli/internal/platform/proxmox"
	"github.com/imamik/proxcli/internal/util/naming"
)

// Destroy removes every remote entity of stackName: HA resources of the
// stack's VMs, the configured HA groups and the configured instances.
// Entities recorded in the applied state are included even if they are no
// longer configured. Absent entities are skipped, so Destroy can be re-run
// after a partial failure. State and plan are deleted only when every
// entity was removed. A stack that is neither configured nor applied is
// rejected with ErrUnknownStack before anything remote is touched.
func (r *Reconciler) Destroy(ctx context.Context, stackName string, desired *config.Stack) (*Result, error) {
	start := time.Now()
	logger := r.logger.With().Str("component", "destroy").Str("stack", stackName).Logger()

	state, err := r.store.LoadState(ctx, stackName)
	if err != nil {
		return nil, err
	}
	if desired == nil && state.IsEmpty() {
		return nil, fmt.Errorf("stack %s: %w", stackName, ErrUnknownStack)
	}
	groups, instances := destroyTargets(desired, state)

	a := &applier{
		r:       r,
		stack:   stackName,
		desired: desired,
		result:  &Result{Stack: stackName},
		logger:  logger,
	}
	if err := a.removeHaResources(ctx, groups, instances); err != nil {
		return nil, err
	}

	for _, name := range groups {
		a.do(ctx, KindHaGroup, name, ActionRemove, func(ctx context.Context) (bool, error) {
			return a.removeGroup(ctx, name)
		})
	}
	for _, name := range instances {
		a.do(ctx, KindInstance, name, ActionRemove, func(ctx context.Context) (bool, error) {
			return a.removeInstance(ctx, name)
		})
	}

	a.result.Duration = time.Since(start)
	failures := a.result.Failures()
	r.metrics.RecordRun(stackName, "destroy", a.result.Duration, len(failures))
	if len(failures) > 0 {
		return a.result, &ApplyError{Stack: stackName, Operation: "destroy", Failures: failures}
	}

	persistCtx := context.WithoutCancel(ctx)
	if err := r.store.DeleteState(persistCtx, stackName); err != nil {
		return a.result, err
	}
	if err := r.store.DeletePlan(persistCtx, stackName); err != nil {
		return a.result, err
	}
	logger.Info().Dur("duration", a.result.Duration.Round(time.Millisecond)).Msg("Stack destroyed")
	return a.result, nil
}

// removeHaResources unbinds the HA resources that belong to the stack: those
// of its instances, those bound into its groups and those of VMs carrying
// the stack's managed description. A shared name prefix alone is not enough,
// since stack "lab" must leave "lab-b" alone.
func (a *applier) removeHaResources(ctx context.Context, groups, instances []string) error {
	c := a.r.client
	resources, err := c.ListHaResources(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list ha resources: %w", err)
	}

	owned := map[string]bool{}
	for _, name := range instances {
		owned[naming.Instance(a.stack, name)] = true
	}
	ownedGroups := map[string]bool{}
	for _, name := range groups {
		ownedGroups[naming.HaGroup(a.stack, name)] = true
	}

	for _, res := range resources {
		if !owned[res.Name] && !ownedGroups[res.Group] && !a.managedVM(ctx, res) {
			continue
		}
		a.logger.Info().Str("sid", res.SID).Str("instance", res.Name).Msg("Removing HA resource")
		if err := c.DeleteHaResource(ctx, res.VMID); err != nil && !proxmox.IsNotFound(err) {
			a.logger.Warn().Err(err).Str("sid", res.SID).Msg("Failed to remove HA resource")
		}
	}
	return nil
}

// managedVM reports whether the resource's VM was created by this stack.
func (a *applier) managedVM(ctx context.Context, res proxmox.HaResource) bool {
	if !strings.HasPrefix(res.Name, naming.Prefix(a.stack)) {
		return false
	}
	cfg, err := a.r.client.GetVMConfig(ctx, res.VMID)
	if err != nil {
		a.logger.Debug().Err(err).Int("vmid", res.VMID).Msg("Failed to read vm config")
		return false
	}
	desc, _ := cfg["description"].(string)
	return strings.TrimSpace(desc) == naming.ManagedComment(a.stack)
}

// destroyTargets returns the group and instance names of desired followed
// by those only found in state.
func destroyTargets(desired, state *config.Stack) (groups, instances []string) {
	seenGroups := map[string]bool{}
	seenInstances := map[string]bool{}
	for _, s := range []*config.Stack{desired, state} {
		if s == nil {
			continue
		}
		for _, name := range s.HaGroups.Keys() {
			if !seenGroups[name] {
				seenGroups[name] = true
				groups = append(groups, name)
			}
		}
		for _, name := range s.Instances.Keys() {
			if !seenInstances[name] {
				seenInstances[name] = true
				instances = append(instances, name)
			}
		}
	}
	return groups, instances
}
