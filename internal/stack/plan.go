package stack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/imamik/proxcli/internal/config"
)

// Change is the old and new value of one property.
// After a JSON round trip numbers decode as float64; use AsInt to read them.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// PropertyChanges maps property names to their change, in declaration order.
type PropertyChanges = config.OrderedMap[Change]

// TagDelta lists tags to add and to remove.
type TagDelta struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// IsEmpty reports whether the delta changes nothing.
func (d *TagDelta) IsEmpty() bool {
	return d == nil || (len(d.Added) == 0 && len(d.Removed) == 0)
}

// InstanceUpdate is the set of changes to an existing instance.
// It serializes flat: {"<prop>": {"old":..,"new":..}, ..., "tags": {...}}.
type InstanceUpdate struct {
	Properties PropertyChanges
	Tags       *TagDelta
}

const tagsKey = "tags"

// MarshalJSON writes properties followed by the tag delta.
func (u InstanceUpdate) MarshalJSON() ([]byte, error) {
	props, err := json.Marshal(u.Properties)
	if err != nil {
		return nil, err
	}
	if u.Tags == nil {
		return props, nil
	}
	tagsJSON, err := json.Marshal(u.Tags)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(props[:len(props)-1])
	if u.Properties.Len() > 0 {
		buf.WriteByte(',')
	}
	buf.WriteString(`"` + tagsKey + `":`)
	buf.Write(tagsJSON)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the flat form written by MarshalJSON.
func (u *InstanceUpdate) UnmarshalJSON(data []byte) error {
	var raw config.OrderedMap[json.RawMessage]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = InstanceUpdate{}
	for key, value := range raw.All() {
		if key == tagsKey {
			u.Tags = &TagDelta{}
			if err := json.Unmarshal(value, u.Tags); err != nil {
				return fmt.Errorf("tags: %w", err)
			}
			continue
		}
		var c Change
		if err := json.Unmarshal(value, &c); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		u.Properties.Set(key, c)
	}
	return nil
}

// GroupChanges are the HA group changes of a plan.
type GroupChanges struct {
	Added   []string                           `json:"added"`
	Removed []string                           `json:"removed"`
	Updated config.OrderedMap[PropertyChanges] `json:"updated"`
}

// InstanceChanges are the instance changes of a plan.
type InstanceChanges struct {
	Added   []string                          `json:"added"`
	Removed []string                          `json:"removed"`
	Updated config.OrderedMap[InstanceUpdate] `json:"updated"`
}

// Plan is the ordered set of changes that turns the applied state of a
// stack into its desired state.
type Plan struct {
	HaGroups  GroupChanges    `json:"ha_groups"`
	Instances InstanceChanges `json:"instances"`
	// DesiredDigest fingerprints the desired stack the plan was computed
	// from. Added entities are listed by name only, so edits to them are
	// caught through the digest.
	DesiredDigest string `json:"desired_digest,omitempty"`
}

// NewPlan returns an empty plan.
func NewPlan() *Plan {
	p := &Plan{}
	p.normalize()
	return p
}

// normalize replaces nil name lists so that the JSON form is stable.
func (p *Plan) normalize() {
	for _, list := range []*[]string{&p.HaGroups.Added, &p.HaGroups.Removed, &p.Instances.Added, &p.Instances.Removed} {
		if *list == nil {
			*list = []string{}
		}
	}
}

// UnmarshalJSON decodes a plan, normalizing missing lists.
func (p *Plan) UnmarshalJSON(data []byte) error {
	type plain Plan
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*p = Plan(out)
	p.normalize()
	return nil
}

// IsEmpty reports whether the plan changes nothing.
func (p *Plan) IsEmpty() bool {
	return len(p.HaGroups.Added) == 0 && len(p.HaGroups.Removed) == 0 && p.HaGroups.Updated.Len() == 0 &&
		len(p.Instances.Added) == 0 && len(p.Instances.Removed) == 0 && p.Instances.Updated.Len() == 0
}

// Equal reports whether two plans describe the same changes computed
// from the same desired stack.
func (p *Plan) Equal(other *Plan) bool {
	if p == nil || other == nil {
		return p == other
	}
	a, errA := json.Marshal(p)
	b, errB := json.Marshal(other)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// Counts tallies a plan.
type Counts struct {
	Add     int
	Change  int
	Destroy int
}

// Counts returns the number of entities added, changed and destroyed.
func (p *Plan) Counts() Counts {
	return Counts{
		Add:     len(p.HaGroups.Added) + len(p.Instances.Added),
		Change:  p.HaGroups.Updated.Len() + p.Instances.Updated.Len(),
		Destroy: len(p.HaGroups.Removed) + len(p.Instances.Removed),
	}
}

// Summary returns a one-line description of the plan.
func (p *Plan) Summary() string {
	if p.IsEmpty() {
		return "No changes. Stack is up to date."
	}
	c := p.Counts()
	return fmt.Sprintf("Plan: %d to add, %d to change, %d to destroy.", c.Add, c.Change, c.Destroy)
}

// AsInt converts a change value to int. It accepts the int of a fresh
// plan and the float64 or json.Number of a decoded one.
func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := strconv.Atoi(n.String())
		return i, err == nil
	default:
		return 0, false
	}
}

// AsString converts a change value to string.
func AsString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// AsBool converts a change value to bool.
func AsBool(v any) bool {
	b, _ := v.(bool)
	return b
}
