package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/imamik/proxcli/internal/config"
	"github.com/imamik/proxcli/internal/config/wizard"
)

// ConfigCreateOptions holds the flags of config create. When Hosts is
// empty and a terminal is attached, the interactive wizard asks for the
// settings instead.
type ConfigCreateOptions struct {
	Path        string
	Hosts       []string
	User        string
	Password    string
	TokenID     string
	TokenSecret string
	InsecureTLS bool
	Force       bool
}

// runWizard is the interactive wizard; replaced in tests.
var runWizard = wizard.RunWizard

// ConfigShow prints the client configuration with secrets masked.
func ConfigShow(_ context.Context, path string) error {
	if path == "" {
		path = clientConfigPath()
	}
	cfg, err := loadClientConfig(path)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to marshal client config: %w", err)
	}
	fmt.Fprintf(stdout, "# %s\n", path)
	_, err = stdout.Write(data)
	return err
}

// ConfigCreate writes a new client configuration file.
func ConfigCreate(ctx context.Context, opts ConfigCreateOptions) error {
	path := opts.Path
	if path == "" {
		path = clientConfigPath()
	}
	if !opts.Force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, pass --force to overwrite it", path)
		}
	}

	cfg := &config.ClientConfig{
		Hosts:       opts.Hosts,
		User:        opts.User,
		Password:    opts.Password,
		TokenID:     opts.TokenID,
		TokenSecret: opts.TokenSecret,
		InsecureTLS: opts.InsecureTLS,
	}
	if len(cfg.Hosts) == 0 {
		if !interactive() {
			return errors.New("--hosts is required in a non-interactive session")
		}
		result, err := runWizard(ctx, wizard.SeedFromConfig(cfg))
		if err != nil {
			return err
		}
		cfg = wizard.BuildConfig(result)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.WriteClientConfig(path, cfg, true); err != nil {
		return err
	}
	printer().Success("Client configuration written to %s", path)
	return nil
}
