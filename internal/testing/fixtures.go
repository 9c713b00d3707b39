package testing

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"sync"

	"github.com/imamik/proxcli/internal/platform/proxmox"
	"github.com/imamik/proxcli/internal/util/naming"
	"github.com/imamik/proxcli/internal/util/tags"
)

// ErrInjected is the default error returned by calls registered with FailOn.
var ErrInjected = errors.New("injected failure")

// FakeCluster is an in-memory Proxmox cluster implementing
// proxmox.ClusterClient. Every call is appended to a log of the form
// "<Method> <target>", where target is a VM or group name, so tests can
// assert on ordering. It enforces the referential rules the reconciler
// depends on: a group with bound resources cannot be deleted, a running
// VM cannot be deleted, and resources must reference an existing group.
type FakeCluster struct {
	mu        sync.Mutex
	nodes     []proxmox.Node
	vms       map[int]*proxmox.VM
	configs   map[int]proxmox.VMConfig
	addresses map[int]string
	groups    map[string]proxmox.HaGroup
	resources map[int]proxmox.HaResource
	nextID    int
	calls     []string
	failures  map[string]error
}

var _ proxmox.ClusterClient = (*FakeCluster)(nil)

// NewFakeCluster creates a cluster with two online nodes, pve1 and pve2.
func NewFakeCluster() *FakeCluster {
	return &FakeCluster{
		nodes: []proxmox.Node{
			{Name: "pve1", Status: "online", MaxCPU: 16},
			{Name: "pve2", Status: "online", MaxCPU: 16},
		},
		vms:       map[int]*proxmox.VM{},
		configs:   map[int]proxmox.VMConfig{},
		addresses: map[int]string{},
		groups:    map[string]proxmox.HaGroup{},
		resources: map[int]proxmox.HaResource{},
		nextID:    100,
		failures:  map[string]error{},
	}
}

// WithTemplate adds a stopped template VM.
func (f *FakeCluster) WithTemplate(id int, name string, templateTags ...string) *FakeCluster {
	return f.WithVM(proxmox.VM{ID: id, Name: name, Node: "pve1", Status: proxmox.StatusStopped, Template: true, Tags: templateTags})
}

// WithVM adds a VM.
func (f *FakeCluster) WithVM(vm proxmox.VM) *FakeCluster {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := vm
	v.Tags = slices.Clone(vm.Tags)
	f.vms[vm.ID] = &v
	f.configs[vm.ID] = proxmox.VMConfig{"name": vm.Name, "boot": "order=scsi0"}
	return f
}

// WithConfig sets one config key of an existing VM.
func (f *FakeCluster) WithConfig(vmid int, key string, value any) *FakeCluster {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cfg, ok := f.configs[vmid]; ok {
		cfg[key] = value
	}
	return f
}

// WithHaGroup adds an HA group.
func (f *FakeCluster) WithHaGroup(g proxmox.HaGroup) *FakeCluster {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[g.Name] = g
	return f
}

// WithHaResource binds a VM into a group.
func (f *FakeCluster) WithHaResource(r proxmox.HaResource) *FakeCluster {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.SID = naming.HaResourceSID(r.VMID)
	f.resources[r.VMID] = r
	return f
}

// WithAddress sets the guest agent IPv4 address of a VM.
func (f *FakeCluster) WithAddress(vmid int, addr string) *FakeCluster {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addresses[vmid] = addr
	return f
}

// FailOn makes the call logged as call return err (ErrInjected if nil).
func (f *FakeCluster) FailOn(call string, err error) *FakeCluster {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	f.failures[call] = err
	return f
}

// ClearFailures removes every injected failure.
func (f *FakeCluster) ClearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = map[string]error{}
}

// Calls returns the mutating calls made so far, in order.
func (f *FakeCluster) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// ResetCalls clears the call log.
func (f *FakeCluster) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// VM returns a copy of the VM with the given name.
func (f *FakeCluster) VM(name string) (proxmox.VM, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vm := f.byName(name)
	if vm == nil {
		return proxmox.VM{}, false
	}
	out := *vm
	out.Tags = slices.Clone(vm.Tags)
	return out, true
}

// Config returns a copy of the configuration of the named VM.
func (f *FakeCluster) Config(name string) proxmox.VMConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	vm := f.byName(name)
	if vm == nil {
		return nil
	}
	out := proxmox.VMConfig{}
	for k, v := range f.configs[vm.ID] {
		out[k] = v
	}
	return out
}

// Group returns the named HA group.
func (f *FakeCluster) Group(name string) (proxmox.HaGroup, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[name]
	return g, ok
}

// Resource returns the HA resource of the named VM.
func (f *FakeCluster) Resource(vmName string) (proxmox.HaResource, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vm := f.byName(vmName)
	if vm == nil {
		return proxmox.HaResource{}, false
	}
	r, ok := f.resources[vm.ID]
	return r, ok
}

// VMCount returns the number of non-template VMs.
func (f *FakeCluster) VMCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, vm := range f.vms {
		if !vm.Template {
			n++
		}
	}
	return n
}

// record logs a mutating call and returns its injected failure, if any.
func (f *FakeCluster) record(method, target string, extra ...string) error {
	call := method + " " + target
	for _, e := range extra {
		if e != "" {
			call += " " + e
		}
	}
	f.calls = append(f.calls, call)
	if err, ok := f.failures[call]; ok {
		return err
	}
	if err, ok := f.failures[method+" "+target]; ok {
		return err
	}
	return nil
}

func (f *FakeCluster) byName(name string) *proxmox.VM {
	var found *proxmox.VM
	for _, vm := range f.vms {
		if vm.Name == name && (found == nil || vm.ID < found.ID) {
			found = vm
		}
	}
	return found
}

func (f *FakeCluster) vmName(vmid int) string {
	if vm, ok := f.vms[vmid]; ok {
		return vm.Name
	}
	return fmt.Sprintf("vmid:%d", vmid)
}

func (f *FakeCluster) vm(vmid int) (*proxmox.VM, error) {
	vm, ok := f.vms[vmid]
	if !ok {
		return nil, &proxmox.NotFoundError{Kind: "vm", Name: fmt.Sprint(vmid)}
	}
	return vm, nil
}

// ListNodes returns the cluster nodes.
func (f *FakeCluster) ListNodes(_ context.Context) ([]proxmox.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.nodes), nil
}

// ListVMs returns the VMs matching filter, ordered by id.
func (f *FakeCluster) ListVMs(_ context.Context, filter proxmox.VMFilter) ([]proxmox.VM, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var re *regexp.Regexp
	if filter.NamePattern != "" {
		var err error
		if re, err = regexp.Compile("^(?:" + filter.NamePattern + ")"); err != nil {
			return nil, err
		}
	}

	var out []proxmox.VM
	for _, vm := range f.vms {
		if re != nil && !re.MatchString(vm.Name) {
			continue
		}
		if len(filter.Nodes) > 0 && !slices.Contains(filter.Nodes, vm.Node) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, vm.Status) {
			continue
		}
		v := *vm
		v.Tags = slices.Clone(vm.Tags)
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetVMByID returns the VM with the given id.
func (f *FakeCluster) GetVMByID(_ context.Context, vmid int) (*proxmox.VM, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vm, ok := f.vms[vmid]
	if !ok {
		return nil, false, nil
	}
	v := *vm
	v.Tags = slices.Clone(vm.Tags)
	return &v, true, nil
}

// GetVMByName returns the VM with the lowest id carrying name.
func (f *FakeCluster) GetVMByName(_ context.Context, name string) (*proxmox.VM, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vm := f.byName(name)
	if vm == nil {
		return nil, false, nil
	}
	v := *vm
	v.Tags = slices.Clone(vm.Tags)
	return &v, true, nil
}

// SetVMStatus changes the power state immediately.
func (f *FakeCluster) SetVMStatus(_ context.Context, vmid int, action proxmox.VMAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SetVMStatus", f.vmName(vmid), string(action)); err != nil {
		return err
	}
	vm, err := f.vm(vmid)
	if err != nil {
		return err
	}
	switch action {
	case proxmox.ActionStart, proxmox.ActionReboot:
		vm.Status = proxmox.StatusRunning
	case proxmox.ActionStop, proxmox.ActionShutdown:
		vm.Status = proxmox.StatusStopped
	}
	return nil
}

// WaitForStatus succeeds when the VM already has status.
func (f *FakeCluster) WaitForStatus(_ context.Context, vmid int, status proxmox.VMStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("WaitForStatus", f.vmName(vmid), string(status)); err != nil {
		return err
	}
	vm, err := f.vm(vmid)
	if err != nil {
		return err
	}
	if vm.Status != status {
		return &proxmox.WaitTimeoutError{What: "vm status " + string(status), Target: vm.Name}
	}
	return nil
}

// CloneVM copies the source VM under a new id.
func (f *FakeCluster) CloneVM(_ context.Context, opts proxmox.CloneOptions) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CloneVM", opts.Name, fmt.Sprint(opts.SourceID)); err != nil {
		return 0, err
	}
	src, err := f.vm(opts.SourceID)
	if err != nil {
		return 0, err
	}
	if !opts.Full && opts.Storage != "" {
		return 0, errors.New("storage is only valid for full clones")
	}

	for {
		if _, used := f.vms[f.nextID]; !used {
			break
		}
		f.nextID++
	}
	id := f.nextID
	f.nextID++

	node := src.Node
	if opts.Target != "" {
		node = opts.Target
	}
	f.vms[id] = &proxmox.VM{ID: id, Name: opts.Name, Node: node, Status: proxmox.StatusStopped, Tags: slices.Clone(src.Tags)}
	cfg := proxmox.VMConfig{"name": opts.Name, "boot": "order=scsi0"}
	if opts.Description != "" {
		cfg["description"] = opts.Description
	}
	if opts.Full {
		cfg["full"] = true
		cfg["storage"] = opts.Storage
	}
	f.configs[id] = cfg
	return id, nil
}

// SetVMProperties stores the properties in the VM config.
func (f *FakeCluster) SetVMProperties(_ context.Context, vmid int, props proxmox.VMProperties) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SetVMProperties", f.vmName(vmid)); err != nil {
		return err
	}
	if _, err := f.vm(vmid); err != nil {
		return err
	}
	cfg := f.configs[vmid]
	if props.Cores > 0 {
		cfg["cores"] = props.Cores
	}
	if props.Memory > 0 {
		cfg["memory"] = props.Memory
	}
	if props.IPConfig != "" {
		cfg["ipconfig0"] = props.IPConfig
	}
	if props.CIPassword != "" {
		cfg["cipassword"] = props.CIPassword
	}
	if props.CIUser != "" {
		cfg["ciuser"] = props.CIUser
	}
	if props.SSHKeys != "" {
		cfg["sshkeys"] = props.SSHKeys
	}
	return nil
}

// ResizeDisk records the new size of the disk.
func (f *FakeCluster) ResizeDisk(_ context.Context, vmid int, disk, size string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ResizeDisk", f.vmName(vmid), size); err != nil {
		return err
	}
	if _, err := f.vm(vmid); err != nil {
		return err
	}
	if disk == "" {
		disk = f.configs[vmid].BootDisk()
	}
	f.configs[vmid][disk] = fmt.Sprintf("local-lvm:vm-%d-disk-0,size=%s", vmid, size)
	return nil
}

// SetTags replaces or extends the tag set.
func (f *FakeCluster) SetTags(_ context.Context, vmid int, tagList []string, mode proxmox.TagMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SetTags", f.vmName(vmid), tags.Join(tagList)); err != nil {
		return err
	}
	vm, err := f.vm(vmid)
	if err != nil {
		return err
	}
	if mode == proxmox.TagsAppend {
		vm.Tags = tags.Union(vm.Tags, tagList)
	} else {
		vm.Tags = slices.Clone(tagList)
	}
	return nil
}

// DeleteVM removes a stopped VM.
func (f *FakeCluster) DeleteVM(_ context.Context, vmid int, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteVM", f.vmName(vmid)); err != nil {
		return err
	}
	vm, err := f.vm(vmid)
	if err != nil {
		return err
	}
	if vm.Status != proxmox.StatusStopped {
		return fmt.Errorf("vm %d is %s, stop it first", vmid, vm.Status)
	}
	delete(f.vms, vmid)
	delete(f.configs, vmid)
	return nil
}

// GetVMConfig returns the stored configuration including tags.
func (f *FakeCluster) GetVMConfig(_ context.Context, vmid int) (proxmox.VMConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vm, err := f.vm(vmid)
	if err != nil {
		return nil, err
	}
	out := proxmox.VMConfig{"tags": tags.Join(vm.Tags)}
	for k, v := range f.configs[vmid] {
		out[k] = v
	}
	return out, nil
}

// GetVMAddress returns the address set with WithAddress for running VMs.
func (f *FakeCluster) GetVMAddress(_ context.Context, vmid int, family string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vm, err := f.vm(vmid)
	if err != nil {
		return "", false, err
	}
	addr, ok := f.addresses[vmid]
	if !ok || family != "ipv4" || vm.Status != proxmox.StatusRunning {
		return "", false, nil
	}
	return addr, true, nil
}

// ListHaGroups returns all groups ordered by name.
func (f *FakeCluster) ListHaGroups(_ context.Context) ([]proxmox.HaGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]proxmox.HaGroup, 0, len(f.groups))
	for _, g := range f.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GroupExists reports whether the group exists.
func (f *FakeCluster) GroupExists(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.groups[name]
	return ok, nil
}

// CreateHaGroup adds a group; it fails if the group exists.
func (f *FakeCluster) CreateHaGroup(_ context.Context, g proxmox.HaGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateHaGroup", g.Name); err != nil {
		return err
	}
	if _, ok := f.groups[g.Name]; ok {
		return fmt.Errorf("ha group '%s' already exists", g.Name)
	}
	g.Nodes = slices.Clone(g.Nodes)
	f.groups[g.Name] = g
	return nil
}

// UpdateHaGroup replaces a group.
func (f *FakeCluster) UpdateHaGroup(_ context.Context, g proxmox.HaGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateHaGroup", g.Name); err != nil {
		return err
	}
	if _, ok := f.groups[g.Name]; !ok {
		return &proxmox.NotFoundError{Kind: "ha group", Name: g.Name}
	}
	g.Nodes = slices.Clone(g.Nodes)
	f.groups[g.Name] = g
	return nil
}

// DeleteHaGroup removes a group that has no bound resources.
func (f *FakeCluster) DeleteHaGroup(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteHaGroup", name); err != nil {
		return err
	}
	if _, ok := f.groups[name]; !ok {
		return &proxmox.NotFoundError{Kind: "ha group", Name: name}
	}
	for _, r := range f.resources {
		if r.Group == name {
			return fmt.Errorf("ha group '%s' is still used by %s", name, r.SID)
		}
	}
	delete(f.groups, name)
	return nil
}

// ListHaResources returns the resources of group (all if empty), ordered by vmid.
func (f *FakeCluster) ListHaResources(_ context.Context, group string) ([]proxmox.HaResource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []proxmox.HaResource
	for _, r := range f.resources {
		if group != "" && r.Group != group {
			continue
		}
		if vm, ok := f.vms[r.VMID]; ok {
			r.Name = vm.Name
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VMID < out[j].VMID })
	return out, nil
}

// CreateHaResource binds a VM into an existing group.
func (f *FakeCluster) CreateHaResource(_ context.Context, r proxmox.HaResource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateHaResource", f.vmName(r.VMID), r.Group); err != nil {
		return err
	}
	if _, err := f.vm(r.VMID); err != nil {
		return err
	}
	if _, ok := f.resources[r.VMID]; ok {
		return fmt.Errorf("resource %s already defined", naming.HaResourceSID(r.VMID))
	}
	if _, ok := f.groups[r.Group]; r.Group != "" && !ok {
		return fmt.Errorf("ha group '%s' does not exist", r.Group)
	}
	r.SID = naming.HaResourceSID(r.VMID)
	if r.State == "" {
		r.State = "started"
	}
	f.resources[r.VMID] = r
	return nil
}

// UpdateHaResource replaces an existing resource.
func (f *FakeCluster) UpdateHaResource(_ context.Context, r proxmox.HaResource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateHaResource", f.vmName(r.VMID), r.Group); err != nil {
		return err
	}
	current, ok := f.resources[r.VMID]
	if !ok {
		return &proxmox.NotFoundError{Kind: "ha resource", Name: naming.HaResourceSID(r.VMID)}
	}
	if _, ok := f.groups[r.Group]; r.Group != "" && !ok {
		return fmt.Errorf("ha group '%s' does not exist", r.Group)
	}
	r.SID = current.SID
	if r.State == "" {
		r.State = current.State
	}
	f.resources[r.VMID] = r
	return nil
}

// DeleteHaResource unbinds a VM.
func (f *FakeCluster) DeleteHaResource(_ context.Context, vmid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteHaResource", f.vmName(vmid)); err != nil {
		return err
	}
	if _, ok := f.resources[vmid]; !ok {
		return &proxmox.NotFoundError{Kind: "ha resource", Name: naming.HaResourceSID(vmid)}
	}
	delete(f.resources, vmid)
	return nil
}
