package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/proxcli/cmd/proxcli/handlers"
	"github.com/imamik/proxcli/internal/metrics"
)

// Stack returns the stack command group.
//
// A stack is reconciled in two steps: plan computes and stores the
// difference between the recorded state and the configuration, apply
// executes the stored plan.
func Stack() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Plan, apply and destroy stacks",
	}

	cmd.AddCommand(stackPlan())
	cmd.AddCommand(stackShow())
	cmd.AddCommand(stackApply())
	cmd.AddCommand(stackDestroy())
	cmd.AddCommand(stackList())

	return cmd
}

func addDocumentFlags(cmd *cobra.Command, opts *handlers.StackOptions) {
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to the stack document (default: proxcli.yaml)")
	cmd.Flags().StringVarP(&opts.DefaultsPath, "defaults", "d", "", "Path to the defaults document (default: defaults.yaml)")
}

func addApplyFlags(cmd *cobra.Command, opts *handlers.StackOptions) {
	cmd.Flags().BoolVar(&opts.AutoApprove, "auto-approve", false, "Skip the interactive confirmation")
	cmd.Flags().StringVar(&opts.Pushgateway, "pushgateway", "",
		"Prometheus Pushgateway URL for run metrics (env: "+metrics.PushgatewayEnv+")")
}

func stackPlan() *cobra.Command {
	var opts handlers.StackOptions

	cmd := &cobra.Command{
		Use:   "plan <stack>",
		Short: "Compute and store the plan of a stack",
		Long: `Compute the changes needed to bring the cluster to the configured stack.

The plan is stored and printed. Nothing on the cluster is changed; run
'proxcli stack apply' to execute it.

Examples:
  proxcli stack plan web
  proxcli stack plan web -c stacks/prod.yaml -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.StackPlan(cmd.Context(), args[0], opts)
		},
	}

	addDocumentFlags(cmd, &opts)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text, json, yaml)")

	return cmd
}

func stackShow() *cobra.Command {
	var opts handlers.StackOptions

	cmd := &cobra.Command{
		Use:   "show <stack>",
		Short: "Print the pending plan of a stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.StackShow(cmd.Context(), args[0], opts)
		},
	}

	addDocumentFlags(cmd, &opts)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text, json, yaml)")

	return cmd
}

func stackApply() *cobra.Command {
	var opts handlers.StackOptions

	cmd := &cobra.Command{
		Use:   "apply <stack>",
		Short: "Apply the stored plan of a stack",
		Long: `Execute the plan stored by 'proxcli stack plan'.

The plan is rejected when the configuration changed since it was computed.
Every entity is reconciled independently; a failure of one does not stop
the others, and the command exits non-zero when any entity failed.

Examples:
  proxcli stack apply web
  proxcli stack apply web --auto-approve --pushgateway http://pushgateway:9091`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.StackApply(cmd.Context(), args[0], opts)
		},
	}

	addDocumentFlags(cmd, &opts)
	addApplyFlags(cmd, &opts)

	return cmd
}

func stackDestroy() *cobra.Command {
	var opts handlers.StackOptions

	cmd := &cobra.Command{
		Use:   "destroy <stack>",
		Short: "Delete every VM and HA group of a stack",
		Long: `Destroy removes every VM and HA group belonging to a stack.

VMs carrying the stack prefix are found on the cluster even when they are
missing from the recorded state. A stack no longer present in the
configuration is destroyed from its recorded state.

WARNING: This operation is irreversible.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.StackDestroy(cmd.Context(), args[0], opts)
		},
	}

	addDocumentFlags(cmd, &opts)
	addApplyFlags(cmd, &opts)

	return cmd
}

func stackList() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stacks with recorded state or a pending plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.StackList(cmd.Context(), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")

	return cmd
}
