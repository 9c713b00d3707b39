package proxmox

import "context"

// MockClient is a mock implementation of ClusterClient.
// Unset functions return zero values and no error.
type MockClient struct {
	ListNodesFunc func(ctx context.Context) ([]Node, error)

	// VMs
	ListVMsFunc         func(ctx context.Context, filter VMFilter) ([]VM, error)
	GetVMByIDFunc       func(ctx context.Context, vmid int) (*VM, bool, error)
	GetVMByNameFunc     func(ctx context.Context, name string) (*VM, bool, error)
	SetVMStatusFunc     func(ctx context.Context, vmid int, action VMAction) error
	WaitForStatusFunc   func(ctx context.Context, vmid int, status VMStatus) error
	CloneVMFunc         func(ctx context.Context, opts CloneOptions) (int, error)
	SetVMPropertiesFunc func(ctx context.Context, vmid int, props VMProperties) error
	ResizeDiskFunc      func(ctx context.Context, vmid int, disk, size string) error
	SetTagsFunc         func(ctx context.Context, vmid int, tags []string, mode TagMode) error
	DeleteVMFunc        func(ctx context.Context, vmid int, block bool) error
	GetVMConfigFunc     func(ctx context.Context, vmid int) (VMConfig, error)
	GetVMAddressFunc    func(ctx context.Context, vmid int, family string) (string, bool, error)

	// HA
	ListHaGroupsFunc     func(ctx context.Context) ([]HaGroup, error)
	GroupExistsFunc      func(ctx context.Context, name string) (bool, error)
	CreateHaGroupFunc    func(ctx context.Context, group HaGroup) error
	UpdateHaGroupFunc    func(ctx context.Context, group HaGroup) error
	DeleteHaGroupFunc    func(ctx context.Context, name string) error
	ListHaResourcesFunc  func(ctx context.Context, group string) ([]HaResource, error)
	CreateHaResourceFunc func(ctx context.Context, res HaResource) error
	UpdateHaResourceFunc func(ctx context.Context, res HaResource) error
	DeleteHaResourceFunc func(ctx context.Context, vmid int) error
}

var _ ClusterClient = (*MockClient)(nil)

func (m *MockClient) ListNodes(ctx context.Context) ([]Node, error) {
	if m.ListNodesFunc != nil {
		return m.ListNodesFunc(ctx)
	}
	return nil, nil
}

func (m *MockClient) ListVMs(ctx context.Context, filter VMFilter) ([]VM, error) {
	if m.ListVMsFunc != nil {
		return m.ListVMsFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockClient) GetVMByID(ctx context.Context, vmid int) (*VM, bool, error) {
	if m.GetVMByIDFunc != nil {
		return m.GetVMByIDFunc(ctx, vmid)
	}
	return nil, false, nil
}

func (m *MockClient) GetVMByName(ctx context.Context, name string) (*VM, bool, error) {
	if m.GetVMByNameFunc != nil {
		return m.GetVMByNameFunc(ctx, name)
	}
	return nil, false, nil
}

func (m *MockClient) SetVMStatus(ctx context.Context, vmid int, action VMAction) error {
	if m.SetVMStatusFunc != nil {
		return m.SetVMStatusFunc(ctx, vmid, action)
	}
	return nil
}

func (m *MockClient) WaitForStatus(ctx context.Context, vmid int, status VMStatus) error {
	if m.WaitForStatusFunc != nil {
		return m.WaitForStatusFunc(ctx, vmid, status)
	}
	return nil
}

func (m *MockClient) CloneVM(ctx context.Context, opts CloneOptions) (int, error) {
	if m.CloneVMFunc != nil {
		return m.CloneVMFunc(ctx, opts)
	}
	return 0, nil
}

func (m *MockClient) SetVMProperties(ctx context.Context, vmid int, props VMProperties) error {
	if m.SetVMPropertiesFunc != nil {
		return m.SetVMPropertiesFunc(ctx, vmid, props)
	}
	return nil
}

func (m *MockClient) ResizeDisk(ctx context.Context, vmid int, disk, size string) error {
	if m.ResizeDiskFunc != nil {
		return m.ResizeDiskFunc(ctx, vmid, disk, size)
	}
	return nil
}

func (m *MockClient) SetTags(ctx context.Context, vmid int, tags []string, mode TagMode) error {
	if m.SetTagsFunc != nil {
		return m.SetTagsFunc(ctx, vmid, tags, mode)
	}
	return nil
}

func (m *MockClient) DeleteVM(ctx context.Context, vmid int, block bool) error {
	if m.DeleteVMFunc != nil {
		return m.DeleteVMFunc(ctx, vmid, block)
	}
	return nil
}

func (m *MockClient) GetVMConfig(ctx context.Context, vmid int) (VMConfig, error) {
	if m.GetVMConfigFunc != nil {
		return m.GetVMConfigFunc(ctx, vmid)
	}
	return VMConfig{}, nil
}

func (m *MockClient) GetVMAddress(ctx context.Context, vmid int, family string) (string, bool, error) {
	if m.GetVMAddressFunc != nil {
		return m.GetVMAddressFunc(ctx, vmid, family)
	}
	return "", false, nil
}

func (m *MockClient) ListHaGroups(ctx context.Context) ([]HaGroup, error) {
	if m.ListHaGroupsFunc != nil {
		return m.ListHaGroupsFunc(ctx)
	}
	return nil, nil
}

func (m *MockClient) GroupExists(ctx context.Context, name string) (bool, error) {
	if m.GroupExistsFunc != nil {
		return m.GroupExistsFunc(ctx, name)
	}
	return false, nil
}

func (m *MockClient) CreateHaGroup(ctx context.Context, group HaGroup) error {
	if m.CreateHaGroupFunc != nil {
		return m.CreateHaGroupFunc(ctx, group)
	}
	return nil
}

func (m *MockClient) UpdateHaGroup(ctx context.Context, group HaGroup) error {
	if m.UpdateHaGroupFunc != nil {
		return m.UpdateHaGroupFunc(ctx, group)
	}
	return nil
}

func (m *MockClient) DeleteHaGroup(ctx context.Context, name string) error {
	if m.DeleteHaGroupFunc != nil {
		return m.DeleteHaGroupFunc(ctx, name)
	}
	return nil
}

func (m *MockClient) ListHaResources(ctx context.Context, group string) ([]HaResource, error) {
	if m.ListHaResourcesFunc != nil {
		return m.ListHaResourcesFunc(ctx, group)
	}
	return nil, nil
}

func (m *MockClient) CreateHaResource(ctx context.Context, res HaResource) error {
	if m.CreateHaResourceFunc != nil {
		return m.CreateHaResourceFunc(ctx, res)
	}
	return nil
}

func (m *MockClient) UpdateHaResource(ctx context.Context, res HaResource) error {
	if m.UpdateHaResourceFunc != nil {
		return m.UpdateHaResourceFunc(ctx, res)
	}
	return nil
}

func (m *MockClient) DeleteHaResource(ctx context.Context, vmid int) error {
	if m.DeleteHaResourceFunc != nil {
		return m.DeleteHaResourceFunc(ctx, vmid)
	}
	return nil
}
