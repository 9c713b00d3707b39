package proxmox

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/imamik/proxcli/internal/util/tags"
)

// VMStatus is the power state of a VM as reported by Proxmox.
type VMStatus string

const (
	StatusRunning VMStatus = "running"
	StatusStopped VMStatus = "stopped"
	StatusPaused  VMStatus = "paused"
)

// VMAction is a power action accepted by the status endpoint.
type VMAction string

const (
	ActionStart    VMAction = "start"
	ActionStop     VMAction = "stop"
	ActionShutdown VMAction = "shutdown"
	ActionReboot   VMAction = "reboot"
)

// TagMode selects how SetTags combines the given tags with the VM's current tags.
type TagMode int

const (
	// TagsReplace overwrites the tag set.
	TagsReplace TagMode = iota
	// TagsAppend adds the given tags to the current set.
	TagsAppend
)

// Node is a cluster member.
type Node struct {
	Name   string  `json:"node"`
	Status string  `json:"status"`
	CPU    float64 `json:"cpu"`
	MaxCPU int     `json:"maxcpu"`
	Mem    int64   `json:"mem"`
	MaxMem int64   `json:"maxmem"`
	Uptime int64   `json:"uptime"`
}

// Online reports whether the node is online.
func (n Node) Online() bool {
	return n.Status == "online"
}

// VM is a QEMU virtual machine.
type VM struct {
	ID       int      `json:"vmid"`
	Name     string   `json:"name"`
	Node     string   `json:"node"`
	Status   VMStatus `json:"status"`
	Tags     []string `json:"tags"`
	Template bool     `json:"template"`
	CPUs     int      `json:"maxcpu"`
	MaxMem   int64    `json:"maxmem"`
	MaxDisk  int64    `json:"maxdisk"`
	Uptime   int64    `json:"uptime"`
	HAState  string   `json:"hastate,omitempty"`
}

// VMFilter narrows ListVMs. Zero fields match everything.
type VMFilter struct {
	// NamePattern is a regular expression matched at the start of the VM name.
	NamePattern string
	// Nodes limits the result to VMs on these nodes.
	Nodes []string
	// Statuses limits the result to VMs in these states.
	Statuses []VMStatus
}

// CloneOptions describes a VM clone.
type CloneOptions struct {
	SourceID    int
	Name        string
	Description string
	Full        bool
	Storage     string
	Target      string
}

// VMProperties holds the settings applied through the VM config endpoint.
// Zero values are left unchanged.
type VMProperties struct {
	Cores      int
	Memory     int
	IPConfig   string
	CIPassword string
	CIUser     string
	SSHKeys    string
}

// IsZero reports whether no property is set.
func (p VMProperties) IsZero() bool {
	return p == VMProperties{}
}

// VMConfig is the raw configuration of a VM.
type VMConfig map[string]any

// BootDisk returns the first device of the boot order, e.g. "scsi0".
func (c VMConfig) BootDisk() string {
	boot, _ := c["boot"].(string)
	for _, part := range strings.Split(boot, ";") {
		if order, ok := strings.CutPrefix(strings.TrimSpace(part), "order="); ok {
			return strings.TrimSpace(order)
		}
	}
	disk, _ := c["bootdisk"].(string)
	return disk
}

// Tags returns the VM tags.
func (c VMConfig) Tags() []string {
	raw, _ := c["tags"].(string)
	return tags.Parse(raw)
}

// String returns the string value of a config key.
func (c VMConfig) String(key string) string {
	switch v := c[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// HaGroup is a Proxmox HA group.
type HaGroup struct {
	Name       string   `json:"group"`
	Nodes      []string `json:"nodes"`
	Restricted bool     `json:"restricted"`
	NoFailback bool     `json:"nofailback"`
	Comment    string   `json:"comment,omitempty"`
}

// HaResource is a VM managed by the HA stack.
type HaResource struct {
	SID         string `json:"sid"`
	VMID        int    `json:"vmid"`
	Name        string `json:"name,omitempty"`
	Group       string `json:"group"`
	State       string `json:"state"`
	MaxRestart  int    `json:"max_restart"`
	MaxRelocate int    `json:"max_relocate"`
	Comment     string `json:"comment,omitempty"`
}

// flexInt decodes integers that Proxmox sends either as numbers or strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		i, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return err
		}
		*f = flexInt(i)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected number, got %s", data)
	}
	if s == "" {
		*f = 0
		return nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(i)
	return nil
}

func boolInt(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
