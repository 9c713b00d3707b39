package handlers

import (
	"context"

	"github.com/imamik/proxcli/internal/inventory"
	"github.com/imamik/proxcli/internal/log"
)

// InventoryOptions holds the flags of the inventory commands.
type InventoryOptions struct {
	Filter      string
	IncludeTags []string
	ExcludeTags []string
	Output      string // yaml or json
}

func buildInventory(ctx context.Context, opts InventoryOptions) (*inventory.Inventory, error) {
	client, err := clusterClient()
	if err != nil {
		return nil, err
	}
	return inventory.Build(ctx, client, inventory.Options{
		Filter:      opts.Filter,
		IncludeTags: opts.IncludeTags,
		ExcludeTags: opts.ExcludeTags,
	}, log.WithComponent("inventory"))
}

// InventoryShow prints an Ansible inventory of the running VMs.
func InventoryShow(ctx context.Context, opts InventoryOptions) error {
	inv, err := buildInventory(ctx, opts)
	if err != nil {
		return err
	}
	if inv.IsEmpty() {
		printer().Warn("No running VM reported an address")
		return nil
	}
	data, err := inv.Marshal(opts.Output)
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}

// InventorySave writes an Ansible inventory of the running VMs to path.
func InventorySave(ctx context.Context, path string, opts InventoryOptions) error {
	inv, err := buildInventory(ctx, opts)
	if err != nil {
		return err
	}
	if err := inv.Save(path, opts.Output); err != nil {
		return err
	}
	printer().Success("Inventory with %d hosts written to %s", len(inv.All.Hosts), path)
	return nil
}
