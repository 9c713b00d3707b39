// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/proxcli/internal/log"
)

// Root returns the root command for the proxcli CLI.
//
// The root command owns the logging flags; they are applied before any
// subcommand runs.
func Root() *cobra.Command {
	var (
		logLevel string
		logJSON  bool
	)

	cmd := &cobra.Command{
		Use:           "proxcli",
		Short:         "Reconcile VM stacks on a Proxmox VE cluster",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			log.Init(log.Config{Level: log.ParseLevel(logLevel), JSONOutput: logJSON})
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON lines")

	// Reconciliation
	cmd.AddCommand(Stack())
	cmd.AddCommand(Inventory())

	// Cluster inspection
	cmd.AddCommand(Nodes())
	cmd.AddCommand(VMs())
	cmd.AddCommand(HA())

	// Utility
	cmd.AddCommand(Config())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
