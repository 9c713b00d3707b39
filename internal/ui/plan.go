package ui

import (
	"fmt"
	"strings"

	"github.com/imamik/proxcli/internal/config"
	"github.com/imamik/proxcli/internal/stack"
	"github.com/imamik/proxcli/internal/util/naming"
	"github.com/imamik/proxcli/internal/util/tags"
)

const maskedPassword = "**********"

// PlanView is a pending plan together with the context needed to show it.
type PlanView struct {
	Stack   string
	Plan    *stack.Plan
	Desired *config.Stack
	// GroupResources holds the names of the HA resources currently bound
	// to each removed group, keyed by local group name.
	GroupResources map[string][]string
}

// Plan renders a pending plan: removals ("--"), additions ("++") with their
// properties, and updates ("==") with old and new values. Changes of
// max_restart or max_relocate are shown on the group's HA resources, which
// is where apply writes them.
func (p *Printer) Plan(v PlanView) {
	s := p.styles
	p.line(s.Remove, "-- remove [ha resource | ha group | instance ]")
	p.line(s.Add, "++ add [ha group | instance ]")
	p.line(s.Update, "== update [ha resource | ha group | instance ]")
	p.Println()

	plan := v.Plan
	desired := v.Desired
	if desired == nil {
		desired = config.NewStack()
	}

	for _, name := range plan.HaGroups.Removed {
		for _, res := range v.GroupResources[name] {
			p.line(s.Remove, "-- ha resource: %s", res)
		}
		p.line(s.Remove, "-- ha group %s", naming.HaGroup(v.Stack, name))
	}

	for _, name := range plan.HaGroups.Added {
		p.line(s.Add, "++ ha group %s", naming.HaGroup(v.Stack, name))
		if spec, ok := desired.HaGroups.Get(name); ok {
			for _, prop := range stack.GroupProperties(spec) {
				p.line(s.Add, "    %s = %s", prop.Name, stack.AsString(prop.Value))
			}
		}
	}

	for name, changes := range plan.HaGroups.Updated.All() {
		remote := naming.HaGroup(v.Stack, name)
		p.line(s.Update, "== ha group %s", remote)
		var resourceChanges []string
		for prop, c := range changes.All() {
			if prop == "max_restart" || prop == "max_relocate" {
				resourceChanges = append(resourceChanges, changeLine(prop, c))
				continue
			}
			p.line(s.Update, "%s", changeLine(prop, c))
		}
		if len(resourceChanges) > 0 {
			p.line(s.Update, "== ha resource %s", remote)
			for _, l := range resourceChanges {
				p.line(s.Update, "%s", l)
			}
		}
	}

	for _, name := range plan.Instances.Removed {
		p.line(s.Remove, "-- instance %s", naming.Instance(v.Stack, name))
	}

	for _, name := range plan.Instances.Added {
		p.line(s.Add, "++ instance %s", naming.Instance(v.Stack, name))
		spec, ok := desired.Instances.Get(name)
		if !ok {
			continue
		}
		for _, prop := range stack.InstanceProperties(spec) {
			value := stack.AsString(prop.Value)
			if prop.Name == "password" && value != "" {
				value = maskedPassword
			}
			p.line(s.Add, "    %s = %s", prop.Name, value)
		}
		p.line(s.Add, "    tags = %s", tags.Join(spec.Tags))
	}

	for name, update := range plan.Instances.Updated.All() {
		p.line(s.Update, "== instance %s", naming.Instance(v.Stack, name))
		for prop, c := range update.Properties.All() {
			if prop == "password" {
				c = stack.Change{Old: mask(c.Old), New: mask(c.New)}
			}
			p.line(s.Update, "%s", changeLine(prop, c))
		}
		if !update.Tags.IsEmpty() {
			p.line(s.Update, "    tags:")
			for _, t := range update.Tags.Removed {
				p.line(s.Remove, "        -- %s", t)
			}
			for _, t := range update.Tags.Added {
				p.line(s.Add, "        ++ %s", t)
			}
		}
	}

	p.Println()
	p.Println(plan.Summary())
}

func changeLine(prop string, c stack.Change) string {
	return fmt.Sprintf("    %s: %s -> %s", prop, display(c.Old), display(c.New))
}

func display(v any) string {
	if s := stack.AsString(v); strings.TrimSpace(s) != "" {
		return s
	}
	return `""`
}

func mask(v any) any {
	if stack.AsString(v) == "" {
		return ""
	}
	return maskedPassword
}
