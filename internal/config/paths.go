package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// StateDirEnv overrides the directory holding plan and state files.
const StateDirEnv = "PROXCLI_STATE_DIR"

// DefaultStateDir returns the directory for plans and applied state:
// $PROXCLI_STATE_DIR if set, otherwise $XDG_STATE_HOME/proxcli.
func DefaultStateDir() string {
	if dir := os.Getenv(StateDirEnv); dir != "" {
		return dir
	}
	return filepath.Join(xdg.StateHome, appName)
}

// DefaultClientConfigPath returns $XDG_CONFIG_HOME/proxcli/config.yaml.
func DefaultClientConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}
