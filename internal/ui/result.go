package ui

import (
	"time"

	"github.com/imamik/proxcli/internal/orchestration"
	"github.com/imamik/proxcli/internal/util/naming"
)

var pastTense = map[orchestration.Action]string{
	orchestration.ActionAdd:    "added",
	orchestration.ActionRemove: "removed",
	orchestration.ActionUpdate: "updated",
}

// Result renders the per-entity outcomes of an apply or destroy.
func (p *Printer) Result(r *orchestration.Result) {
	s := p.styles
	for _, o := range r.Outcomes {
		name := naming.Instance(r.Stack, o.Name)
		kind := "instance"
		if o.Kind == orchestration.KindHaGroup {
			name = naming.HaGroup(r.Stack, o.Name)
			kind = "ha group"
		}
		switch {
		case o.Failed():
			p.line(s.Remove, "%s %s %s: %v", crossMark, kind, name, o.Err)
		case o.Skipped:
			p.line(s.Dim, "%s %s %s: nothing to do", skipMark, kind, name)
		default:
			p.line(s.Add, "%s %s %s %s", checkMark, kind, name, pastTense[o.Action])
		}
	}
	succeeded, skipped, failed := r.Counts()
	style := s.Add
	if failed > 0 {
		style = s.Remove
	}
	p.Println()
	p.line(style, "%d succeeded, %d skipped, %d failed in %s",
		succeeded, skipped, failed, r.Duration.Round(time.Millisecond))
}
