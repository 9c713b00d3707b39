package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/imamik/proxcli/internal/platform/proxmox"
	"github.com/imamik/proxcli/internal/util/async"
)

const defaultConcurrency = 8

// VMSource is the part of the cluster client the inventory needs.
type VMSource interface {
	ListVMs(ctx context.Context, filter proxmox.VMFilter) ([]proxmox.VM, error)
	GetVMAddress(ctx context.Context, vmid int, family string) (string, bool, error)
}

// Options selects what goes into an inventory.
type Options struct {
	// Filter is a regular expression matched at the start of VM names.
	Filter string
	// IncludeTags, if set, keeps only VMs carrying one of these tags and
	// only creates groups for them.
	IncludeTags []string
	// ExcludeTags keeps VMs carrying one of these tags out of every group.
	// They are still listed under all.hosts.
	ExcludeTags []string
	// Concurrency bounds parallel guest agent queries.
	Concurrency int
}

// Host is one inventory host.
type Host struct {
	AnsibleHost string `json:"ansible_host" yaml:"ansible_host"`
}

// Group is a named set of hosts.
type Group struct {
	Hosts map[string]Host `json:"hosts" yaml:"hosts"`
}

// All is the top-level "all" group.
type All struct {
	Hosts    map[string]Host  `json:"hosts" yaml:"hosts"`
	Children map[string]Group `json:"children" yaml:"children"`
}

// Inventory is an Ansible YAML/JSON inventory.
type Inventory struct {
	All All `json:"all" yaml:"all"`
}

// IsEmpty reports whether the inventory has no hosts.
func (inv *Inventory) IsEmpty() bool {
	return len(inv.All.Hosts) == 0
}

// Build queries the cluster and assembles the inventory.
func Build(ctx context.Context, src VMSource, opts Options, logger zerolog.Logger) (*Inventory, error) {
	vms, err := src.ListVMs(ctx, proxmox.VMFilter{
		NamePattern: opts.Filter,
		Statuses:    []proxmox.VMStatus{proxmox.StatusRunning},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list vms: %w", err)
	}

	var candidates []proxmox.VM
	for _, vm := range vms {
		if vm.Template {
			continue
		}
		if len(opts.IncludeTags) > 0 && !hasAny(vm.Tags, opts.IncludeTags) {
			continue
		}
		candidates = append(candidates, vm)
	}

	addresses := make(map[int]string, len(candidates))
	var mu sync.Mutex
	tasks := make([]async.Task, 0, len(candidates))
	for _, vm := range candidates {
		tasks = append(tasks, async.Task{
			Name: vm.Name,
			Func: func(ctx context.Context) error {
				addr, ok, err := src.GetVMAddress(ctx, vm.ID, "ipv4")
				if err != nil {
					return err
				}
				if !ok {
					logger.Debug().Str("vm", vm.Name).Msg("No guest agent address, skipping")
					return nil
				}
				mu.Lock()
				addresses[vm.ID] = addr
				mu.Unlock()
				return nil
			},
		})
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if err := async.RunParallel(ctx, tasks, concurrency); err != nil {
		return nil, fmt.Errorf("failed to query guest agents: %w", err)
	}

	inv := &Inventory{All: All{Hosts: map[string]Host{}, Children: map[string]Group{}}}
	for _, vm := range candidates {
		addr, ok := addresses[vm.ID]
		if !ok {
			continue
		}
		host := Host{AnsibleHost: addr}
		inv.All.Hosts[vm.Name] = host
		if hasAny(vm.Tags, opts.ExcludeTags) {
			continue
		}
		for _, tag := range vm.Tags {
			if len(opts.IncludeTags) > 0 && !slices.Contains(opts.IncludeTags, tag) {
				continue
			}
			g, ok := inv.All.Children[tag]
			if !ok {
				g = Group{Hosts: map[string]Host{}}
				inv.All.Children[tag] = g
			}
			g.Hosts[vm.Name] = host
		}
	}
	return inv, nil
}

func hasAny(tags, set []string) bool {
	for _, t := range tags {
		if slices.Contains(set, t) {
			return true
		}
	}
	return false
}

// Marshal encodes the inventory as "yaml" or "json".
func (inv *Inventory) Marshal(format string) ([]byte, error) {
	switch format {
	case "", "yaml":
		return yaml.Marshal(inv)
	case "json":
		data, err := json.MarshalIndent(inv, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown inventory format %q (want yaml or json)", format)
	}
}

// Save writes the inventory to path.
func (inv *Inventory) Save(path, format string) error {
	data, err := inv.Marshal(format)
	if err != nil {
		return err
	}
	// #nosec G306
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write inventory: %w", err)
	}
	return nil
}
