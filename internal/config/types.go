package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// StackConfig is the expanded desired state of every stack in a document.
type StackConfig struct {
	Stacks OrderedMap[*Stack] `json:"stacks" yaml:"stacks"`
}

// Stack returns the named stack or an *UnknownStackError.
func (c *StackConfig) Stack(name string) (*Stack, error) {
	s, ok := c.Stacks.Get(name)
	if !ok {
		return nil, &UnknownStackError{Name: name, Known: c.Stacks.Keys()}
	}
	return s, nil
}

// Stack is the desired (or last applied) state of one stack.
// Entity names are local to the stack; remote names carry the stack prefix.
type Stack struct {
	HaGroups  OrderedMap[HaGroupSpec]  `json:"ha_groups" yaml:"ha_groups"`
	Instances OrderedMap[InstanceSpec] `json:"instances" yaml:"instances"`
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// IsEmpty reports whether the stack has no groups and no instances.
func (s *Stack) IsEmpty() bool {
	return s == nil || (s.HaGroups.Len() == 0 && s.Instances.Len() == 0)
}

// DeepCopy returns a copy that shares no slices with s.
func (s *Stack) DeepCopy() *Stack {
	out := NewStack()
	if s == nil {
		return out
	}
	for name, g := range s.HaGroups.All() {
		out.HaGroups.Set(name, g.DeepCopy())
	}
	for name, inst := range s.Instances.All() {
		out.Instances.Set(name, inst.DeepCopy())
	}
	return out
}

// HaGroupSpec describes a Proxmox HA group.
type HaGroupSpec struct {
	Nodes       NodeList `json:"nodes" yaml:"nodes"`
	Restricted  bool     `json:"restricted" yaml:"restricted"`
	NoFailback  bool     `json:"nofailback" yaml:"nofailback"`
	MaxRestart  int      `json:"max_restart" yaml:"max_restart"`
	MaxRelocate int      `json:"max_relocate" yaml:"max_relocate"`
}

// DeepCopy returns a deep copy of the group spec.
func (g HaGroupSpec) DeepCopy() HaGroupSpec {
	g.Nodes = append(NodeList(nil), g.Nodes...)
	return g
}

// InstanceSpec describes a VM cloned from a template.
type InstanceSpec struct {
	Clone       int      `json:"clone" yaml:"clone"`
	FullClone   bool     `json:"full_clone" yaml:"full_clone"`
	DiskStorage string   `json:"disk_storage" yaml:"disk_storage"`
	Target      string   `json:"target" yaml:"target"`
	Cores       int      `json:"cores" yaml:"cores"`
	Memory      int      `json:"memory" yaml:"memory"`
	IPConfig    string   `json:"ipconfig" yaml:"ipconfig"`
	Password    string   `json:"password" yaml:"password"`
	User        string   `json:"user" yaml:"user"`
	SSHKey      string   `json:"sshkey" yaml:"sshkey"`
	DiskSize    string   `json:"disk_size" yaml:"disk_size"`
	DiskDevice  string   `json:"disk_device" yaml:"disk_device"`
	Tags        []string `json:"tags" yaml:"tags"`
	HaGroup     string   `json:"ha_group" yaml:"ha_group"`
	IPSequence  bool     `json:"ipsequence,omitempty" yaml:"ipsequence,omitempty"`
	Count       int      `json:"count,omitempty" yaml:"count,omitempty"`
}

// DeepCopy returns a deep copy of the instance spec.
func (s InstanceSpec) DeepCopy() InstanceSpec {
	if s.Tags != nil {
		s.Tags = append([]string{}, s.Tags...)
	}
	return s
}

// NodeList is the ordered list of cluster nodes of an HA group.
// It decodes from a YAML/JSON list or from a comma separated string,
// the form the Proxmox API uses.
type NodeList []string

// String returns the comma separated form.
func (n NodeList) String() string {
	return strings.Join(n, ",")
}

// ParseNodeList splits a comma separated node list.
func ParseNodeList(s string) NodeList {
	var out NodeList
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// UnmarshalYAML accepts a sequence or a scalar.
func (n *NodeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*n = list
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*n = nil
			return nil
		}
		*n = ParseNodeList(value.Value)
	default:
		return fmt.Errorf("line %d: nodes must be a list or a comma separated string", value.Line)
	}
	return nil
}

// UnmarshalJSON accepts an array or a string.
func (n *NodeList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*n = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("nodes must be an array or a comma separated string")
	}
	*n = ParseNodeList(s)
	return nil
}
