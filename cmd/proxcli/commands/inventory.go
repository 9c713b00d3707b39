package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/proxcli/cmd/proxcli/handlers"
)

// Inventory returns the inventory command group.
//
// The inventory lists every running VM that reports an IPv4 address
// through the guest agent, grouped by tag, in the layout Ansible expects.
func Inventory() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Generate an Ansible inventory from running VMs",
	}

	cmd.AddCommand(inventoryShow())
	cmd.AddCommand(inventorySave())

	return cmd
}

func addInventoryFlags(cmd *cobra.Command, opts *handlers.InventoryOptions) {
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "Regular expression matched at the start of VM names")
	cmd.Flags().StringSliceVar(&opts.IncludeTags, "include-tag", nil, "Only include VMs carrying one of these tags")
	cmd.Flags().StringSliceVar(&opts.ExcludeTags, "exclude-tag", nil, "Keep VMs with these tags out of every group")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "yaml", "Output format (yaml, json)")
}

func inventoryShow() *cobra.Command {
	var opts handlers.InventoryOptions

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.InventoryShow(cmd.Context(), opts)
		},
	}

	addInventoryFlags(cmd, &opts)

	return cmd
}

func inventorySave() *cobra.Command {
	var opts handlers.InventoryOptions

	cmd := &cobra.Command{
		Use:   "save <path>",
		Short: "Write the inventory to a file",
		Example: `  proxcli inventory save hosts.yaml --filter '^web-'
  proxcli inventory save hosts.json -o json --exclude-tag legacy`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.InventorySave(cmd.Context(), args[0], opts)
		},
	}

	addInventoryFlags(cmd, &opts)

	return cmd
}
