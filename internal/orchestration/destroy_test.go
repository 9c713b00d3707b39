package orchestration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/proxcli/internal/orchestration"
	"github.com/imamik/proxcli/internal/platform/proxmox"
	testutil "github.com/imamik/proxcli/internal/testing"
	"github.com/imamik/proxcli/internal/util/naming"
)

func withLegacy() *testutil.StackBuilder {
	return testutil.NewStackBuilder().
		WithHaGroup("prod", "pve1", "pve2").
		WithInstance("web", testutil.InstanceIn(9000, "prod", "web")).
		WithInstance("old", testutil.Instance(9000))
}

func TestDestroy_RemovesStackEntities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.apply(t, withLegacy().Build())
	require.NoError(t, err)

	f.cluster.
		WithVM(proxmox.VM{ID: 300, Name: "lab-manual", Node: "pve1", Status: proxmox.StatusRunning}).
		WithHaResource(proxmox.HaResource{VMID: 300, Group: "lab-prod"}).
		WithHaGroup(proxmox.HaGroup{Name: "other-g", Nodes: []string{"pve2"}}).
		WithVM(proxmox.VM{ID: 301, Name: "other-x", Node: "pve2", Status: proxmox.StatusRunning}).
		WithHaResource(proxmox.HaResource{VMID: 301, Group: "other-g"}).
		WithVM(proxmox.VM{ID: 302, Name: "lab-b-web", Node: "pve2", Status: proxmox.StatusRunning}).
		WithConfig(302, "description", naming.ManagedComment("lab-b")).
		WithHaResource(proxmox.HaResource{VMID: 302, Group: "other-g"}).
		WithVM(proxmox.VM{ID: 303, Name: "lab-stray", Node: "pve2", Status: proxmox.StatusRunning}).
		WithConfig(303, "description", naming.ManagedComment("lab")).
		WithHaResource(proxmox.HaResource{VMID: 303, Group: "other-g"}).
		WithVM(proxmox.VM{ID: 304, Name: "lab-foreign", Node: "pve2", Status: proxmox.StatusRunning}).
		WithHaResource(proxmox.HaResource{VMID: 304, Group: "other-g"})
	web, _ := f.cluster.VM("lab-web")
	require.NoError(t, f.cluster.SetVMStatus(ctx, web.ID, proxmox.ActionStart))
	f.cluster.ResetCalls()

	// "old" is no longer configured but still recorded in the state.
	result, err := f.rec.Destroy(ctx, "lab", withLegacy().WithoutInstance("old").Build())
	require.NoError(t, err)

	calls := f.cluster.Calls()
	assert.Contains(t, calls, "DeleteHaResource lab-manual")
	assert.NotContains(t, calls, "DeleteHaResource other-x")
	assert.NotContains(t, calls, "DeleteHaResource lab-b-web", "another stack sharing the prefix is kept")
	assert.NotContains(t, calls, "DeleteHaResource lab-foreign", "a prefix match alone is not ownership")
	assert.Contains(t, calls, "DeleteHaResource lab-stray")
	assert.Less(t, testutil.IndexOf(calls, "DeleteHaResource lab-manual"), testutil.IndexOf(calls, "DeleteHaGroup lab-prod"))
	assert.Less(t, testutil.IndexOf(calls, "DeleteHaGroup lab-prod"), testutil.IndexOf(calls, "SetVMStatus lab-web stop"))
	assert.Contains(t, calls, "DeleteVM lab-web")
	assert.Contains(t, calls, "DeleteVM lab-old")

	_, ok := f.cluster.VM("lab-manual")
	assert.True(t, ok, "unmanaged VMs are kept")
	_, ok = f.cluster.Resource("other-x")
	assert.True(t, ok)
	_, ok = f.cluster.Resource("lab-b-web")
	assert.True(t, ok)
	_, ok = f.cluster.Group("lab-prod")
	assert.False(t, ok)

	assert.Len(t, result.Outcomes, 3)
	state, err := f.store.LoadState(ctx, "lab")
	require.NoError(t, err)
	assert.True(t, state.IsEmpty())
}

func TestDestroy_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.apply(t, testutil.MinimalStack())
	require.NoError(t, err)

	_, err = f.rec.Destroy(ctx, "lab", testutil.MinimalStack())
	require.NoError(t, err)
	f.cluster.ResetCalls()

	result, err := f.rec.Destroy(ctx, "lab", testutil.MinimalStack())
	require.NoError(t, err)
	assert.Empty(t, f.cluster.Calls())
	_, skipped, _ := result.Counts()
	assert.Equal(t, 2, skipped)
}

func TestDestroy_KeepsStateOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.apply(t, testutil.MinimalStack())
	require.NoError(t, err)

	f.cluster.FailOn("DeleteVM lab-web", nil)
	_, err = f.rec.Destroy(ctx, "lab", testutil.MinimalStack())

	var applyErr *orchestration.ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Equal(t, "destroy", applyErr.Operation)
	require.Len(t, applyErr.Failures, 1)
	assert.Equal(t, orchestration.KindInstance, applyErr.Failures[0].Kind)

	state, err := f.store.LoadState(ctx, "lab")
	require.NoError(t, err)
	assert.Equal(t, []string{"web"}, state.Instances.Keys())

	f.cluster.ClearFailures()
	_, err = f.rec.Destroy(ctx, "lab", testutil.MinimalStack())
	require.NoError(t, err)
	assert.Zero(t, f.cluster.VMCount())

	state, err = f.store.LoadState(ctx, "lab")
	require.NoError(t, err)
	assert.True(t, state.IsEmpty())
}

func TestDestroy_WithoutConfiguredStackUsesState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.apply(t, testutil.MinimalStack())
	require.NoError(t, err)

	_, err = f.rec.Destroy(ctx, "lab", nil)
	require.NoError(t, err)
	assert.Zero(t, f.cluster.VMCount())
	_, ok := f.cluster.Group("lab-prod")
	assert.False(t, ok)
}

func TestDestroy_UnknownStackIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cluster.
		WithHaGroup(proxmox.HaGroup{Name: "typo-g", Nodes: []string{"pve1"}}).
		WithVM(proxmox.VM{ID: 300, Name: "typo-x", Node: "pve1", Status: proxmox.StatusRunning}).
		WithHaResource(proxmox.HaResource{VMID: 300, Group: "typo-g"})

	result, err := f.rec.Destroy(ctx, "typo", nil)
	require.ErrorIs(t, err, orchestration.ErrUnknownStack)
	assert.Nil(t, result)
	assert.Empty(t, f.cluster.Calls())
	_, ok := f.cluster.Resource("typo-x")
	assert.True(t, ok)
}

func TestDestroy_NewlyCreatedVMsAreManaged(t *testing.T) {
	f := newFixture(t)
	_, err := f.apply(t, testutil.MinimalStack())
	require.NoError(t, err)

	assert.Equal(t, naming.ManagedComment("lab"), f.cluster.Config("lab-web")["description"])
}
