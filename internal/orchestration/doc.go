// Package orchestration drives the remote cluster towards a stack's desired state.
//
// The Reconciler plans by diffing the last applied state against the
// desired stack, and applies a stored plan by mutating the cluster through a
// proxmox.ClusterClient. Apply runs six phases in a fixed order, because HA
// resources reference groups and destructive VM operations need a stopped VM:
//
//  1. HA group removal (bound resources first, best effort)
//  2. HA group addition (only if absent)
//  3. HA group update (group settings, then max_restart/max_relocate on bound resources)
//  4. Instance removal (stop, wait, unbind, delete)
//  5. Instance addition (clone, settings, resize, tags, HA binding)
//  6. Instance update (stop, tags, settings, HA rebind, resize, start)
//
// A failure aborts the remaining steps of that entity only. The written
// state keeps the old entry of every failed entity, so the next plan
// contains exactly what did not converge. Existence is rechecked on every
// run, which makes re-applying after an interruption safe.
//
// # Usage
//
//	r := orchestration.NewReconciler(client, store, orchestration.WithLogger(logger))
//	plan, err := r.Plan(ctx, "lab", desired)
//	result, err := r.Apply(ctx, "lab", desired)
package orchestration
