package proxmox

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/imamik/proxcli/internal/util/naming"
)

const haStateStarted = "started"

type apiHaGroup struct {
	Group      string  `json:"group"`
	Nodes      string  `json:"nodes"`
	Restricted flexInt `json:"restricted"`
	NoFailback flexInt `json:"nofailback"`
	Comment    string  `json:"comment"`
}

type apiHaResource struct {
	SID         string  `json:"sid"`
	Group       string  `json:"group"`
	State       string  `json:"state"`
	MaxRestart  flexInt `json:"max_restart"`
	MaxRelocate flexInt `json:"max_relocate"`
	Comment     string  `json:"comment"`
}

// ListHaGroups returns all HA groups.
func (c *RealClient) ListHaGroups(ctx context.Context) ([]HaGroup, error) {
	var raw []apiHaGroup
	if err := c.get(ctx, "/cluster/ha/groups", nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to list ha groups: %w", err)
	}
	groups := make([]HaGroup, 0, len(raw))
	for _, g := range raw {
		groups = append(groups, HaGroup{
			Name:       g.Group,
			Nodes:      splitNodes(g.Nodes),
			Restricted: g.Restricted == 1,
			NoFailback: g.NoFailback == 1,
			Comment:    g.Comment,
		})
	}
	return groups, nil
}

func splitNodes(s string) []string {
	var nodes []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// GroupExists reports whether an HA group with the given name exists.
func (c *RealClient) GroupExists(ctx context.Context, name string) (bool, error) {
	groups, err := c.ListHaGroups(ctx)
	if err != nil {
		return false, err
	}
	for _, g := range groups {
		if g.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func haGroupParams(group HaGroup) url.Values {
	params := url.Values{}
	params.Set("nodes", strings.Join(group.Nodes, ","))
	params.Set("restricted", boolInt(group.Restricted))
	params.Set("nofailback", boolInt(group.NoFailback))
	if group.Comment != "" {
		params.Set("comment", group.Comment)
	}
	return params
}

// CreateHaGroup creates an HA group.
func (c *RealClient) CreateHaGroup(ctx context.Context, group HaGroup) error {
	params := haGroupParams(group)
	params.Set("group", group.Name)
	if err := c.mutate(ctx, http.MethodPost, "/cluster/ha/groups", params, nil); err != nil {
		return fmt.Errorf("failed to create ha group %s: %w", group.Name, err)
	}
	return nil
}

// UpdateHaGroup updates the nodes and flags of an HA group.
func (c *RealClient) UpdateHaGroup(ctx context.Context, group HaGroup) error {
	path := "/cluster/ha/groups/" + url.PathEscape(group.Name)
	if err := c.mutate(ctx, http.MethodPut, path, haGroupParams(group), nil); err != nil {
		return fmt.Errorf("failed to update ha group %s: %w", group.Name, err)
	}
	return nil
}

// DeleteHaGroup deletes an HA group.
func (c *RealClient) DeleteHaGroup(ctx context.Context, name string) error {
	if err := c.mutate(ctx, http.MethodDelete, "/cluster/ha/groups/"+url.PathEscape(name), nil, nil); err != nil {
		return fmt.Errorf("failed to delete ha group %s: %w", name, err)
	}
	return nil
}

// ListHaResources returns the HA resources of group, or of all groups when
// group is empty, with the VM name resolved.
func (c *RealClient) ListHaResources(ctx context.Context, group string) ([]HaResource, error) {
	var raw []apiHaResource
	if err := c.get(ctx, "/cluster/ha/resources", url.Values{"type": {"vm"}}, &raw); err != nil {
		return nil, fmt.Errorf("failed to list ha resources: %w", err)
	}

	vms, err := c.ListVMs(ctx, VMFilter{})
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(vms))
	for _, vm := range vms {
		names[vm.ID] = vm.Name
	}

	var resources []HaResource
	for _, r := range raw {
		if group != "" && r.Group != group {
			continue
		}
		vmid, err := naming.VMIDFromSID(r.SID)
		if err != nil {
			c.logger.Debug().Str("sid", r.SID).Msg("Skipping non-vm ha resource")
			continue
		}
		resources = append(resources, HaResource{
			SID:         r.SID,
			VMID:        vmid,
			Name:        names[vmid],
			Group:       r.Group,
			State:       r.State,
			MaxRestart:  int(r.MaxRestart),
			MaxRelocate: int(r.MaxRelocate),
			Comment:     r.Comment,
		})
	}
	return resources, nil
}

func haResourceParams(res HaResource) url.Values {
	params := url.Values{}
	if res.Group != "" {
		params.Set("group", res.Group)
	}
	if res.MaxRestart > 0 {
		params.Set("max_restart", strconv.Itoa(res.MaxRestart))
	}
	if res.MaxRelocate > 0 {
		params.Set("max_relocate", strconv.Itoa(res.MaxRelocate))
	}
	if res.State != "" {
		params.Set("state", res.State)
	}
	if res.Comment != "" {
		params.Set("comment", res.Comment)
	}
	return params
}

// CreateHaResource puts a VM under HA management.
func (c *RealClient) CreateHaResource(ctx context.Context, res HaResource) error {
	if res.State == "" {
		res.State = haStateStarted
	}
	params := haResourceParams(res)
	params.Set("sid", naming.HaResourceSID(res.VMID))
	if err := c.mutate(ctx, http.MethodPost, "/cluster/ha/resources", params, nil); err != nil {
		return fmt.Errorf("failed to create ha resource for vm %d: %w", res.VMID, err)
	}
	return nil
}

// UpdateHaResource changes the group or limits of an HA resource.
func (c *RealClient) UpdateHaResource(ctx context.Context, res HaResource) error {
	path := "/cluster/ha/resources/" + url.PathEscape(naming.HaResourceSID(res.VMID))
	if err := c.mutate(ctx, http.MethodPut, path, haResourceParams(res), nil); err != nil {
		return fmt.Errorf("failed to update ha resource for vm %d: %w", res.VMID, err)
	}
	return nil
}

// DeleteHaResource removes a VM from HA management.
func (c *RealClient) DeleteHaResource(ctx context.Context, vmid int) error {
	path := "/cluster/ha/resources/" + url.PathEscape(naming.HaResourceSID(vmid))
	if err := c.mutate(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete ha resource for vm %d: %w", vmid, err)
	}
	return nil
}
