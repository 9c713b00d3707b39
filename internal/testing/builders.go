package testing

import (
	"github.com/imamik/proxcli/internal/config"
)

// StackBuilder provides a fluent interface for constructing stack states.
// Each method returns a new builder (immutable) for chaining.
type StackBuilder struct {
	stack *config.Stack
}

// NewStackBuilder creates an empty StackBuilder.
func NewStackBuilder() *StackBuilder {
	return &StackBuilder{stack: config.NewStack()}
}

// WithHaGroup adds a group with max_restart and max_relocate of 1.
func (b *StackBuilder) WithHaGroup(name string, nodes ...string) *StackBuilder {
	return b.WithHaGroupSpec(name, config.HaGroupSpec{
		Nodes:       append(config.NodeList(nil), nodes...),
		MaxRestart:  1,
		MaxRelocate: 1,
	})
}

// WithHaGroupSpec adds a group with the given spec.
func (b *StackBuilder) WithHaGroupSpec(name string, spec config.HaGroupSpec) *StackBuilder {
	nb := b.clone()
	nb.stack.HaGroups.Set(name, spec.DeepCopy())
	return nb
}

// WithInstance adds an instance.
func (b *StackBuilder) WithInstance(name string, spec config.InstanceSpec) *StackBuilder {
	nb := b.clone()
	nb.stack.Instances.Set(name, spec.DeepCopy())
	return nb
}

// WithoutInstance removes an instance.
func (b *StackBuilder) WithoutInstance(name string) *StackBuilder {
	nb := b.clone()
	nb.stack.Instances.Delete(name)
	return nb
}

// WithoutHaGroup removes a group.
func (b *StackBuilder) WithoutHaGroup(name string) *StackBuilder {
	nb := b.clone()
	nb.stack.HaGroups.Delete(name)
	return nb
}

// Build returns a copy of the built stack.
func (b *StackBuilder) Build() *config.Stack {
	return b.stack.DeepCopy()
}

func (b *StackBuilder) clone() *StackBuilder {
	return &StackBuilder{stack: b.stack.DeepCopy()}
}

// Instance returns a linked clone of template with small defaults.
func Instance(template int) config.InstanceSpec {
	return config.InstanceSpec{
		Clone:      template,
		Target:     "pve1",
		Cores:      1,
		Memory:     1024,
		DiskDevice: "scsi0",
		DiskSize:   "10G",
		Count:      1,
	}
}

// InstanceIn returns Instance(template) bound to an HA group and tagged.
func InstanceIn(template int, group string, tags ...string) config.InstanceSpec {
	spec := Instance(template)
	spec.HaGroup = group
	spec.Tags = tags
	return spec
}

// MinimalStack returns one group with one bound instance.
func MinimalStack() *config.Stack {
	return NewStackBuilder().
		WithHaGroup("prod", "pve1", "pve2").
		WithInstance("web", InstanceIn(9000, "prod", "web")).
		Build()
}
