package config

const (
	// DefaultConfigFilename is the stack document looked up in the working directory.
	DefaultConfigFilename = "proxcli.yaml"

	// DefaultDefaultsFilename is the defaults document looked up in the working directory.
	DefaultDefaultsFilename = "defaults.yaml"

	// DefaultAPIPort is the port of the Proxmox VE API.
	DefaultAPIPort = 8006

	// appName names the per-user config and state directories.
	appName = "proxcli"
)
