package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/proxcli/cmd/proxcli/handlers"
)

func outputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", "text", "Output format (text, json, yaml)")
}

// Nodes returns the nodes command group.
func Nodes() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Inspect cluster nodes",
	}

	var output string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the cluster nodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.NodesList(cmd.Context(), output)
		},
	}
	outputFlag(list, &output)
	cmd.AddCommand(list)

	return cmd
}

// VMs returns the vms command group.
func VMs() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vms",
		Short: "Inspect virtual machines",
	}

	var opts handlers.VMListOptions
	list := &cobra.Command{
		Use:   "list",
		Short: "List virtual machines",
		Example: `  proxcli vms list --filter '^web-'
  proxcli vms list --node pve1 --status running -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.VMsList(cmd.Context(), opts)
		},
	}
	list.Flags().StringVar(&opts.Filter, "filter", "", "Regular expression matched at the start of VM names")
	list.Flags().StringSliceVar(&opts.Nodes, "node", nil, "Only list VMs on these nodes")
	list.Flags().StringSliceVar(&opts.Statuses, "status", nil, "Only list VMs in these states (running, stopped)")
	outputFlag(list, &opts.Output)
	cmd.AddCommand(list)

	return cmd
}

// HA returns the ha command group.
func HA() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ha",
		Short: "Inspect HA groups and resources",
	}

	groups := &cobra.Command{
		Use:   "groups",
		Short: "HA groups",
	}
	var groupsOutput string
	groupsList := &cobra.Command{
		Use:   "list",
		Short: "List HA groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.HaGroupsList(cmd.Context(), groupsOutput)
		},
	}
	outputFlag(groupsList, &groupsOutput)
	groups.AddCommand(groupsList)

	resources := &cobra.Command{
		Use:   "resources",
		Short: "HA resources",
	}
	var group, resourcesOutput string
	resourcesList := &cobra.Command{
		Use:   "list",
		Short: "List HA resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.HaResourcesList(cmd.Context(), group, resourcesOutput)
		},
	}
	resourcesList.Flags().StringVar(&group, "group", "", "Only list resources of this HA group")
	outputFlag(resourcesList, &resourcesOutput)
	resources.AddCommand(resourcesList)

	cmd.AddCommand(groups)
	cmd.AddCommand(resources)

	return cmd
}
