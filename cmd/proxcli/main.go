// Package main is the entry point for the proxcli CLI.
//
// proxcli reconciles declarative stacks of virtual machines and HA groups
// against a Proxmox VE cluster. A stack is planned first, the plan is
// stored, and apply executes exactly that plan.
//
// Commands: stack, inventory, nodes, vms, ha, config.
//
// For detailed usage information, run:
//
//	proxcli --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/proxcli/cmd/proxcli/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
