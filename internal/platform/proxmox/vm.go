package proxmox

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/imamik/proxcli/internal/util/tags"
)

// clusterResource is an entry of /cluster/resources?type=vm.
type clusterResource struct {
	Type     string  `json:"type"`
	VMID     flexInt `json:"vmid"`
	Name     string  `json:"name"`
	Node     string  `json:"node"`
	Status   string  `json:"status"`
	Tags     string  `json:"tags"`
	Template flexInt `json:"template"`
	MaxCPU   float64 `json:"maxcpu"`
	MaxMem   int64   `json:"maxmem"`
	MaxDisk  int64   `json:"maxdisk"`
	Uptime   int64   `json:"uptime"`
	HAState  string  `json:"hastate"`
}

func (r clusterResource) toVM() VM {
	return VM{
		ID:       int(r.VMID),
		Name:     r.Name,
		Node:     r.Node,
		Status:   VMStatus(r.Status),
		Tags:     tags.Parse(r.Tags),
		Template: r.Template == 1,
		CPUs:     int(r.MaxCPU),
		MaxMem:   r.MaxMem,
		MaxDisk:  r.MaxDisk,
		Uptime:   r.Uptime,
		HAState:  r.HAState,
	}
}

// ListVMs returns the QEMU VMs of the cluster matching filter, ordered by id.
func (c *RealClient) ListVMs(ctx context.Context, filter VMFilter) ([]VM, error) {
	var nameRe *regexp.Regexp
	if filter.NamePattern != "" {
		re, err := regexp.Compile("^(?:" + filter.NamePattern + ")")
		if err != nil {
			return nil, fmt.Errorf("invalid name filter: %w", err)
		}
		nameRe = re
	}

	var resources []clusterResource
	if err := c.get(ctx, "/cluster/resources", url.Values{"type": {"vm"}}, &resources); err != nil {
		return nil, err
	}

	var vms []VM
	for _, r := range resources {
		if r.Type != "qemu" {
			continue
		}
		vm := r.toVM()
		if nameRe != nil && !nameRe.MatchString(vm.Name) {
			continue
		}
		if len(filter.Nodes) > 0 && !slices.Contains(filter.Nodes, vm.Node) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, vm.Status) {
			continue
		}
		vms = append(vms, vm)
	}
	slices.SortFunc(vms, func(a, b VM) int { return a.ID - b.ID })
	return vms, nil
}

// GetVMByID returns the VM with the given id.
func (c *RealClient) GetVMByID(ctx context.Context, vmid int) (*VM, bool, error) {
	vms, err := c.ListVMs(ctx, VMFilter{})
	if err != nil {
		return nil, false, err
	}
	for i := range vms {
		if vms[i].ID == vmid {
			return &vms[i], true, nil
		}
	}
	return nil, false, nil
}

// GetVMByName returns the VM with the given name.
func (c *RealClient) GetVMByName(ctx context.Context, name string) (*VM, bool, error) {
	vms, err := c.ListVMs(ctx, VMFilter{})
	if err != nil {
		return nil, false, err
	}
	for i := range vms {
		if vms[i].Name == name {
			return &vms[i], true, nil
		}
	}
	return nil, false, nil
}

// mustGetVM returns the VM or a NotFoundError.
func (c *RealClient) mustGetVM(ctx context.Context, vmid int) (*VM, error) {
	vm, found, err := c.GetVMByID(ctx, vmid)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &NotFoundError{Kind: "vm", Name: strconv.Itoa(vmid)}
	}
	return vm, nil
}

func qemuPath(node string, vmid int, suffix string) string {
	return fmt.Sprintf("/nodes/%s/qemu/%d%s", url.PathEscape(node), vmid, suffix)
}

// SetVMStatus starts, stops, shuts down or reboots a VM and waits for the task.
func (c *RealClient) SetVMStatus(ctx context.Context, vmid int, action VMAction) error {
	vm, err := c.mustGetVM(ctx, vmid)
	if err != nil {
		return err
	}
	var upid string
	if err := c.mutate(ctx, http.MethodPost, qemuPath(vm.Node, vmid, "/status/"+string(action)), url.Values{}, &upid); err != nil {
		return fmt.Errorf("failed to %s vm %d: %w", action, vmid, err)
	}
	return c.WaitForTask(ctx, upid)
}

// WaitForStatus polls the VM status until it matches.
func (c *RealClient) WaitForStatus(ctx context.Context, vmid int, status VMStatus) error {
	vm, err := c.mustGetVM(ctx, vmid)
	if err != nil {
		return err
	}
	path := qemuPath(vm.Node, vmid, "/status/current")

	err = wait.PollUntilContextTimeout(ctx, c.timeouts.StatusPoll, c.timeouts.Status, true, func(ctx context.Context) (bool, error) {
		var current struct {
			Status VMStatus `json:"status"`
		}
		if err := c.get(ctx, path, nil, &current); err != nil {
			return false, err
		}
		return current.Status == status, nil
	})
	return c.waitResult(ctx, err, fmt.Sprintf("vm %d", vmid), string(status), c.timeouts.Status)
}

// NextID returns the next free VM id of the cluster.
func (c *RealClient) NextID(ctx context.Context) (int, error) {
	var id flexInt
	if err := c.get(ctx, "/cluster/nextid", nil, &id); err != nil {
		return 0, fmt.Errorf("failed to get next vm id: %w", err)
	}
	return int(id), nil
}

// CloneVM clones opts.SourceID into a new VM and waits for the clone task.
func (c *RealClient) CloneVM(ctx context.Context, opts CloneOptions) (int, error) {
	src, err := c.mustGetVM(ctx, opts.SourceID)
	if err != nil {
		return 0, err
	}
	newID, err := c.NextID(ctx)
	if err != nil {
		return 0, err
	}

	params := url.Values{}
	params.Set("newid", strconv.Itoa(newID))
	params.Set("name", opts.Name)
	params.Set("full", boolInt(opts.Full))
	if opts.Description != "" {
		params.Set("description", opts.Description)
	}
	if opts.Full && opts.Storage != "" {
		params.Set("storage", opts.Storage)
	}
	if opts.Target != "" {
		params.Set("target", opts.Target)
	}

	c.logger.Info().Int("source", opts.SourceID).Int("vmid", newID).Str("name", opts.Name).Msg("Cloning vm")
	var upid string
	if err := c.mutate(ctx, http.MethodPost, qemuPath(src.Node, opts.SourceID, "/clone"), params, &upid); err != nil {
		return 0, fmt.Errorf("failed to clone vm %d: %w", opts.SourceID, err)
	}
	if err := c.WaitForTask(ctx, upid); err != nil {
		return 0, fmt.Errorf("clone of %s failed: %w", opts.Name, err)
	}
	return newID, nil
}

// encodeSSHKeys encodes keys the way the config endpoint expects: percent
// encoded with %20 for spaces.
func encodeSSHKeys(keys string) string {
	return strings.ReplaceAll(url.QueryEscape(strings.TrimSpace(keys)), "+", "%20")
}

// SetVMProperties applies cloud-init and sizing settings in one call.
func (c *RealClient) SetVMProperties(ctx context.Context, vmid int, props VMProperties) error {
	if props.IsZero() {
		return nil
	}
	vm, err := c.mustGetVM(ctx, vmid)
	if err != nil {
		return err
	}

	params := url.Values{}
	if props.Cores > 0 {
		params.Set("cores", strconv.Itoa(props.Cores))
	}
	if props.Memory > 0 {
		params.Set("memory", strconv.Itoa(props.Memory))
	}
	if props.IPConfig != "" {
		params.Set("ipconfig0", props.IPConfig)
	}
	if props.CIPassword != "" {
		params.Set("cipassword", props.CIPassword)
	}
	if props.CIUser != "" {
		params.Set("ciuser", props.CIUser)
	}
	if props.SSHKeys != "" {
		params.Set("sshkeys", encodeSSHKeys(props.SSHKeys))
	}

	if err := c.mutate(ctx, http.MethodPut, qemuPath(vm.Node, vmid, "/config"), params, nil); err != nil {
		return fmt.Errorf("failed to configure vm %d: %w", vmid, err)
	}
	return nil
}

// ResizeDisk sets the size of a VM disk, defaulting to the boot disk.
func (c *RealClient) ResizeDisk(ctx context.Context, vmid int, disk, size string) error {
	vm, err := c.mustGetVM(ctx, vmid)
	if err != nil {
		return err
	}
	if disk == "" {
		cfg, err := c.GetVMConfig(ctx, vmid)
		if err != nil {
			return err
		}
		if disk = cfg.BootDisk(); disk == "" {
			return fmt.Errorf("vm %d has no boot disk to resize", vmid)
		}
	}

	params := url.Values{}
	params.Set("disk", disk)
	params.Set("size", size)

	var upid string
	if err := c.mutate(ctx, http.MethodPut, qemuPath(vm.Node, vmid, "/resize"), params, &upid); err != nil {
		return fmt.Errorf("failed to resize %s of vm %d: %w", disk, vmid, err)
	}
	if upid != "" {
		return c.WaitForTask(ctx, upid)
	}
	return nil
}

// SetTags replaces or extends the VM tag set.
func (c *RealClient) SetTags(ctx context.Context, vmid int, desired []string, mode TagMode) error {
	vm, err := c.mustGetVM(ctx, vmid)
	if err != nil {
		return err
	}
	if mode == TagsAppend {
		desired = tags.Union(vm.Tags, desired)
	}

	params := url.Values{}
	if len(desired) == 0 {
		params.Set("delete", "tags")
	} else {
		params.Set("tags", tags.Join(desired))
	}
	if err := c.mutate(ctx, http.MethodPut, qemuPath(vm.Node, vmid, "/config"), params, nil); err != nil {
		return fmt.Errorf("failed to set tags of vm %d: %w", vmid, err)
	}
	return nil
}

// DeleteVM deletes a stopped VM. The status is read from the node rather
// than the cluster listing, which lags behind a stop that just finished.
func (c *RealClient) DeleteVM(ctx context.Context, vmid int, block bool) error {
	vm, err := c.mustGetVM(ctx, vmid)
	if err != nil {
		return err
	}
	var current struct {
		Status VMStatus `json:"status"`
	}
	if err := c.get(ctx, qemuPath(vm.Node, vmid, "/status/current"), nil, &current); err != nil {
		return fmt.Errorf("failed to get status of vm %d: %w", vmid, err)
	}
	if current.Status != StatusStopped {
		return fmt.Errorf("vm %d must be stopped before deletion (status %s)", vmid, current.Status)
	}

	var upid string
	if err := c.mutate(ctx, http.MethodDelete, qemuPath(vm.Node, vmid, ""), nil, &upid); err != nil {
		return fmt.Errorf("failed to delete vm %d: %w", vmid, err)
	}
	if block && upid != "" {
		return c.WaitForTask(ctx, upid)
	}
	return nil
}

// GetVMConfig returns the current VM configuration.
func (c *RealClient) GetVMConfig(ctx context.Context, vmid int) (VMConfig, error) {
	vm, err := c.mustGetVM(ctx, vmid)
	if err != nil {
		return nil, err
	}
	var cfg VMConfig
	if err := c.get(ctx, qemuPath(vm.Node, vmid, "/config"), nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to get config of vm %d: %w", vmid, err)
	}
	return cfg, nil
}

type agentInterfaces struct {
	Result []struct {
		Name        string `json:"name"`
		IPAddresses []struct {
			Type    string `json:"ip-address-type"`
			Address string `json:"ip-address"`
		} `json:"ip-addresses"`
	} `json:"result"`
}

// GetVMAddress asks the guest agent for the first non-loopback address.
func (c *RealClient) GetVMAddress(ctx context.Context, vmid int, family string) (string, bool, error) {
	vm, err := c.mustGetVM(ctx, vmid)
	if err != nil {
		return "", false, err
	}
	if vm.Status != StatusRunning {
		return "", false, nil
	}

	var ifaces agentInterfaces
	if err := c.get(ctx, qemuPath(vm.Node, vmid, "/agent/network-get-interfaces"), nil, &ifaces); err != nil {
		c.logger.Debug().Err(err).Int("vmid", vmid).Msg("Guest agent not available")
		return "", false, nil
	}
	for _, iface := range ifaces.Result {
		if iface.Name == "lo" {
			continue
		}
		for _, addr := range iface.IPAddresses {
			if addr.Type == family {
				return addr.Address, true, nil
			}
		}
	}
	return "", false, nil
}
