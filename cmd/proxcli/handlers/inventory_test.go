package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/imamik/proxcli/internal/inventory"
	"github.com/imamik/proxcli/internal/platform/proxmox"
)

func withRunningVMs(env *testEnv) {
	env.cluster.
		WithVM(proxmox.VM{ID: 101, Name: "lab-web", Node: "pve1", Status: proxmox.StatusRunning, Tags: []string{"web"}}).
		WithVM(proxmox.VM{ID: 102, Name: "lab-db", Node: "pve2", Status: proxmox.StatusRunning, Tags: []string{"db"}}).
		WithAddress(101, "10.0.0.5").
		WithAddress(102, "10.0.0.6")
}

func TestInventoryShow(t *testing.T) {
	env := setup(t)
	withRunningVMs(env)

	require.NoError(t, InventoryShow(context.Background(), InventoryOptions{IncludeTags: []string{"web"}}))

	var inv inventory.Inventory
	require.NoError(t, yaml.Unmarshal(env.out.Bytes(), &inv))
	assert.Equal(t, "10.0.0.5", inv.All.Hosts["lab-web"].AnsibleHost)
	assert.NotContains(t, inv.All.Hosts, "lab-db")
	assert.Contains(t, inv.All.Children["web"].Hosts, "lab-web")
}

func TestInventoryShow_Empty(t *testing.T) {
	env := setup(t)
	require.NoError(t, InventoryShow(context.Background(), InventoryOptions{}))
	assert.Contains(t, env.out.String(), "No running VM reported an address")
}

func TestInventorySave(t *testing.T) {
	env := setup(t)
	withRunningVMs(env)
	path := filepath.Join(env.dir, "inventory.json")

	require.NoError(t, InventorySave(context.Background(), path, InventoryOptions{Output: "json"}))
	assert.Contains(t, env.out.String(), "Inventory with 2 hosts written to")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ansible_host": "10.0.0.6"`)
}
