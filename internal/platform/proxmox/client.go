package proxmox

import "context"

// NodeManager lists cluster nodes.
type NodeManager interface {
	ListNodes(ctx context.Context) ([]Node, error)
}

// VMManager manages QEMU virtual machines.
type VMManager interface {
	ListVMs(ctx context.Context, filter VMFilter) ([]VM, error)
	// GetVMByID returns the VM with the given id; found is false if it does not exist.
	GetVMByID(ctx context.Context, vmid int) (vm *VM, found bool, err error)
	// GetVMByName returns the first VM with the given name; found is false if none exists.
	GetVMByName(ctx context.Context, name string) (vm *VM, found bool, err error)
	SetVMStatus(ctx context.Context, vmid int, action VMAction) error
	// WaitForStatus polls until the VM reports status or the status timeout elapses.
	WaitForStatus(ctx context.Context, vmid int, status VMStatus) error
	// CloneVM clones a VM, blocks until the clone task stops, and returns the new VM id.
	CloneVM(ctx context.Context, opts CloneOptions) (int, error)
	SetVMProperties(ctx context.Context, vmid int, props VMProperties) error
	// ResizeDisk sets the size of disk. An empty disk resizes the boot disk.
	ResizeDisk(ctx context.Context, vmid int, disk, size string) error
	SetTags(ctx context.Context, vmid int, tags []string, mode TagMode) error
	// DeleteVM deletes a stopped VM, blocking on the task when block is set.
	DeleteVM(ctx context.Context, vmid int, block bool) error
	GetVMConfig(ctx context.Context, vmid int) (VMConfig, error)
	// GetVMAddress returns the first guest agent address of the given family
	// ("ipv4" or "ipv6"); found is false when the agent is not running.
	GetVMAddress(ctx context.Context, vmid int, family string) (addr string, found bool, err error)
}

// HAManager manages HA groups and resources.
type HAManager interface {
	ListHaGroups(ctx context.Context) ([]HaGroup, error)
	GroupExists(ctx context.Context, name string) (bool, error)
	CreateHaGroup(ctx context.Context, group HaGroup) error
	UpdateHaGroup(ctx context.Context, group HaGroup) error
	DeleteHaGroup(ctx context.Context, name string) error
	// ListHaResources lists HA resources, limited to one group unless group is empty.
	ListHaResources(ctx context.Context, group string) ([]HaResource, error)
	CreateHaResource(ctx context.Context, res HaResource) error
	UpdateHaResource(ctx context.Context, res HaResource) error
	DeleteHaResource(ctx context.Context, vmid int) error
}

// ClusterClient is the full remote surface used by the reconciler.
type ClusterClient interface {
	NodeManager
	VMManager
	HAManager
}

var _ ClusterClient = (*RealClient)(nil)
