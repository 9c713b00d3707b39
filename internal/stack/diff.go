package stack

import (
	"github.com/imamik/proxcli/internal/config"
	"github.com/imamik/proxcli/internal/util/tags"
)

// Property is one comparable field of an entity spec.
type Property struct {
	Name  string
	Value any
}

// GroupProperties lists the compared fields of an HA group. Nodes are
// compared in their comma separated remote form.
func GroupProperties(g config.HaGroupSpec) []Property {
	return []Property{
		{"nodes", g.Nodes.String()},
		{"restricted", g.Restricted},
		{"nofailback", g.NoFailback},
		{"max_restart", g.MaxRestart},
		{"max_relocate", g.MaxRelocate},
	}
}

// InstanceProperties lists the compared scalar fields of an instance.
// Tags are handled separately as a set delta.
func InstanceProperties(s config.InstanceSpec) []Property {
	return []Property{
		{"clone", s.Clone},
		{"full_clone", s.FullClone},
		{"disk_storage", s.DiskStorage},
		{"target", s.Target},
		{"cores", s.Cores},
		{"memory", s.Memory},
		{"ipconfig", s.IPConfig},
		{"password", s.Password},
		{"user", s.User},
		{"sshkey", s.SSHKey},
		{"disk_size", s.DiskSize},
		{"disk_device", s.DiskDevice},
		{"ha_group", s.HaGroup},
		{"ipsequence", s.IPSequence},
		{"count", s.Count},
	}
}

func diffProperties(old, desired []Property) PropertyChanges {
	var changes PropertyChanges
	for i, p := range desired {
		if old[i].Value != p.Value {
			changes.Set(p.Name, Change{Old: old[i].Value, New: p.Value})
		}
	}
	return changes
}

// Diff computes the plan that turns old into desired. Added names follow
// desired order, removed names follow old order and updated names follow
// desired order. A nil stack is treated as empty. Diff(s, s) is empty.
func Diff(old, desired *config.Stack) *Plan {
	if old == nil {
		old = config.NewStack()
	}
	if desired == nil {
		desired = config.NewStack()
	}
	plan := NewPlan()

	for name, g := range desired.HaGroups.All() {
		prev, ok := old.HaGroups.Get(name)
		if !ok {
			plan.HaGroups.Added = append(plan.HaGroups.Added, name)
			continue
		}
		if changes := diffProperties(GroupProperties(prev), GroupProperties(g)); changes.Len() > 0 {
			plan.HaGroups.Updated.Set(name, changes)
		}
	}
	for name := range old.HaGroups.All() {
		if !desired.HaGroups.Has(name) {
			plan.HaGroups.Removed = append(plan.HaGroups.Removed, name)
		}
	}

	for name, inst := range desired.Instances.All() {
		prev, ok := old.Instances.Get(name)
		if !ok {
			plan.Instances.Added = append(plan.Instances.Added, name)
			continue
		}
		update := InstanceUpdate{
			Properties: diffProperties(InstanceProperties(prev), InstanceProperties(inst)),
		}
		if added, removed := tags.Delta(prev.Tags, inst.Tags); len(added) > 0 || len(removed) > 0 {
			update.Tags = &TagDelta{Added: nonNil(added), Removed: nonNil(removed)}
		}
		if update.Properties.Len() > 0 || update.Tags != nil {
			plan.Instances.Updated.Set(name, update)
		}
	}
	for name := range old.Instances.All() {
		if !desired.Instances.Has(name) {
			plan.Instances.Removed = append(plan.Instances.Removed, name)
		}
	}

	return plan
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
