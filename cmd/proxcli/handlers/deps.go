package handlers

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/imamik/proxcli/internal/config"
	"github.com/imamik/proxcli/internal/platform/proxmox"
	"github.com/imamik/proxcli/internal/store"
	"github.com/imamik/proxcli/internal/ui"
)

// errNotInteractive is returned when a confirmation is needed but no
// terminal is attached.
var errNotInteractive = errors.New("refusing to continue without confirmation in a non-interactive session, pass --auto-approve")

// Factory function variables - can be replaced in tests.
var (
	// clientConfigPath returns the client config file location.
	clientConfigPath = config.DefaultClientConfigPath

	// loadClientConfig reads the client config file.
	loadClientConfig = config.LoadClientConfig

	// newClusterClient creates the Proxmox API client.
	newClusterClient = func(cfg *config.ClientConfig) proxmox.ClusterClient {
		return proxmox.NewRealClient(cfg)
	}

	// loadStackConfig reads and expands the stack and defaults documents.
	loadStackConfig = config.Load

	// openStore opens the plan and state store.
	openStore = func(ctx context.Context, logger zerolog.Logger) (*store.Store, error) {
		return store.Open(ctx, logger)
	}

	// confirm asks the operator for approval.
	confirm = ui.Confirm

	// interactive reports whether a terminal is attached for prompts.
	interactive = func() bool {
		return ui.IsTerminal(os.Stdin) && ui.IsTerminal(os.Stdout)
	}

	// stdout receives plans, tables and inventories.
	stdout io.Writer = os.Stdout
)

// clusterClient loads the client config and connects lazily.
func clusterClient() (proxmox.ClusterClient, error) {
	cfg, err := loadClientConfig(clientConfigPath())
	if err != nil {
		return nil, err
	}
	return newClusterClient(cfg), nil
}

func printer() *ui.Printer {
	return ui.NewPrinter(stdout)
}

// approve reports whether the operator agreed to proceed.
func approve(ctx context.Context, autoApprove bool, title, description string) (bool, error) {
	if autoApprove {
		return true, nil
	}
	if !interactive() {
		return false, errNotInteractive
	}
	return confirm(ctx, title, description)
}
