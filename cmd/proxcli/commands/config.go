package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/proxcli/cmd/proxcli/handlers"
)

// Config returns the config command group for the Proxmox client settings.
func Config() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the Proxmox connection settings",
	}

	cmd.AddCommand(configShow())
	cmd.AddCommand(configCreate())

	return cmd
}

func configShow() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the client configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ConfigShow(cmd.Context(), path)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Client config file (default: $XDG_CONFIG_HOME/proxcli/config.yaml)")

	return cmd
}

func configCreate() *cobra.Command {
	var opts handlers.ConfigCreateOptions

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the client configuration",
		Long: `Create the client configuration file.

Without --hosts an interactive wizard asks for the connection and
authentication settings.

Examples:
  # Interactive wizard
  proxcli config create

  # Non-interactive, API token
  proxcli config create --hosts pve1.lan,pve2.lan --user automation@pve \
    --token-id automation@pve!ci --token-secret ...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ConfigCreate(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Path, "path", "", "Client config file (default: $XDG_CONFIG_HOME/proxcli/config.yaml)")
	cmd.Flags().StringSliceVar(&opts.Hosts, "hosts", nil, "Proxmox API hosts")
	cmd.Flags().StringVar(&opts.User, "user", "", "User including realm, e.g. root@pam")
	cmd.Flags().StringVar(&opts.Password, "password", "", "Password for ticket login")
	cmd.Flags().StringVar(&opts.TokenID, "token-id", "", "API token id (user@realm!name)")
	cmd.Flags().StringVar(&opts.TokenSecret, "token-secret", "", "API token secret")
	cmd.Flags().BoolVar(&opts.InsecureTLS, "insecure", false, "Skip TLS certificate verification")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing file")

	return cmd
}
