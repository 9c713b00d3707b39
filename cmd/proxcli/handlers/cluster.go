package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/imamik/proxcli/internal/platform/proxmox"
	"github.com/imamik/proxcli/internal/ui"
	"github.com/imamik/proxcli/internal/util/tags"
)

// VMListOptions holds the flags of vms list.
type VMListOptions struct {
	Filter   string
	Nodes    []string
	Statuses []string
	Output   string
}

// NodesList prints the cluster nodes.
func NodesList(ctx context.Context, output string) error {
	format, err := ui.ParseFormat(output)
	if err != nil {
		return err
	}
	client, err := clusterClient()
	if err != nil {
		return err
	}
	nodes, err := client.ListNodes(ctx)
	if err != nil {
		return err
	}
	if format != ui.FormatText {
		return ui.Encode(stdout, format, nodes)
	}

	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, []string{
			n.Name,
			n.Status,
			fmt.Sprintf("%.1f%% of %d", n.CPU*100, n.MaxCPU),
			fmt.Sprintf("%s / %s", humanize.IBytes(uint64(max(n.Mem, 0))), humanize.IBytes(uint64(max(n.MaxMem, 0)))),
			uptime(n.Uptime),
		})
	}
	printer().Table([]string{"NODE", "STATUS", "CPU", "MEMORY", "UPTIME"}, rows)
	return nil
}

// VMsList prints the VMs matching the filter.
func VMsList(ctx context.Context, opts VMListOptions) error {
	format, err := ui.ParseFormat(opts.Output)
	if err != nil {
		return err
	}
	client, err := clusterClient()
	if err != nil {
		return err
	}
	filter := proxmox.VMFilter{NamePattern: opts.Filter, Nodes: opts.Nodes}
	for _, s := range opts.Statuses {
		filter.Statuses = append(filter.Statuses, proxmox.VMStatus(s))
	}
	vms, err := client.ListVMs(ctx, filter)
	if err != nil {
		return err
	}
	if format != ui.FormatText {
		return ui.Encode(stdout, format, vms)
	}

	rows := make([][]string, 0, len(vms))
	for _, vm := range vms {
		rows = append(rows, []string{
			strconv.Itoa(vm.ID),
			vm.Name,
			string(vm.Status),
			vm.Node,
			strconv.Itoa(vm.CPUs),
			humanize.IBytes(uint64(max(vm.MaxMem, 0))),
			strconv.FormatBool(vm.Template),
			tags.Join(vm.Tags),
		})
	}
	printer().Table([]string{"VMID", "NAME", "STATUS", "NODE", "CPUS", "MEMORY", "TEMPLATE", "TAGS"}, rows)
	return nil
}

// HaGroupsList prints the HA groups.
func HaGroupsList(ctx context.Context, output string) error {
	format, err := ui.ParseFormat(output)
	if err != nil {
		return err
	}
	client, err := clusterClient()
	if err != nil {
		return err
	}
	groups, err := client.ListHaGroups(ctx)
	if err != nil {
		return err
	}
	if format != ui.FormatText {
		return ui.Encode(stdout, format, groups)
	}

	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{
			g.Name,
			strings.Join(g.Nodes, ","),
			strconv.FormatBool(g.Restricted),
			strconv.FormatBool(g.NoFailback),
			g.Comment,
		})
	}
	printer().Table([]string{"GROUP", "NODES", "RESTRICTED", "NOFAILBACK", "COMMENT"}, rows)
	return nil
}

// HaResourcesList prints the HA resources, optionally of one group.
func HaResourcesList(ctx context.Context, group, output string) error {
	format, err := ui.ParseFormat(output)
	if err != nil {
		return err
	}
	client, err := clusterClient()
	if err != nil {
		return err
	}
	resources, err := client.ListHaResources(ctx, group)
	if err != nil {
		return err
	}
	if format != ui.FormatText {
		return ui.Encode(stdout, format, resources)
	}

	rows := make([][]string, 0, len(resources))
	for _, r := range resources {
		rows = append(rows, []string{
			r.SID,
			r.Name,
			r.Group,
			r.State,
			strconv.Itoa(r.MaxRestart),
			strconv.Itoa(r.MaxRelocate),
		})
	}
	printer().Table([]string{"SID", "NAME", "GROUP", "STATE", "MAX RESTART", "MAX RELOCATE"}, rows)
	return nil
}

func uptime(seconds int64) string {
	if seconds <= 0 {
		return "-"
	}
	return (time.Duration(seconds) * time.Second).String()
}
