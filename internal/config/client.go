package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ClientConfig holds the connection settings for the Proxmox API.
// Either a token (TokenID and TokenSecret) or a password is required.
type ClientConfig struct {
	Hosts       []string `yaml:"hosts"`
	Port        int      `yaml:"port,omitempty"`
	User        string   `yaml:"user"`
	Password    string   `yaml:"password,omitempty"`
	TokenID     string   `yaml:"token_id,omitempty"`
	TokenSecret string   `yaml:"token_secret,omitempty"`
	InsecureTLS bool     `yaml:"insecure_tls,omitempty"`
}

// LoadClientConfig reads the client config file and applies environment
// overrides. A missing file is not an error when the environment supplies
// the settings.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{}

	// #nosec G304
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("failed to unmarshal yaml: %w", err)}
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, &LoadError{Path: path, Err: err}
	}

	cfg.applyEnv()
	if cfg.Port == 0 {
		cfg.Port = DefaultAPIPort
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("client config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *ClientConfig) applyEnv() {
	if v := os.Getenv("PROXMOX_HOSTS"); v != "" {
		c.Hosts = ParseNodeList(v)
	}
	if v := os.Getenv("PROXMOX_USER"); v != "" {
		c.User = v
	}
	if v := os.Getenv("PROXMOX_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("PROXMOX_TOKEN_ID"); v != "" {
		c.TokenID = v
	}
	if v := os.Getenv("PROXMOX_TOKEN_SECRET"); v != "" {
		c.TokenSecret = v
	}
	if v := os.Getenv("PROXMOX_INSECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.InsecureTLS = b
		}
	}
}

// Validate checks that the client config can authenticate.
func (c *ClientConfig) Validate() error {
	if len(c.Hosts) == 0 {
		return errors.New("at least one host is required (hosts or PROXMOX_HOSTS)")
	}
	if c.User == "" {
		return errors.New("user is required (user or PROXMOX_USER)")
	}
	if !strings.Contains(c.User, "@") {
		return fmt.Errorf("user %q must include a realm, e.g. root@pam", c.User)
	}
	if c.UsesToken() {
		if c.TokenSecret == "" {
			return errors.New("token_secret is required when token_id is set")
		}
		return nil
	}
	if c.Password == "" {
		return errors.New("either token_id/token_secret or password is required")
	}
	return nil
}

// UsesToken reports whether API token authentication is configured.
func (c *ClientConfig) UsesToken() bool {
	return c.TokenID != ""
}

// Redacted returns a copy with secrets masked, for display.
func (c ClientConfig) Redacted() ClientConfig {
	if c.Password != "" {
		c.Password = "********"
	}
	if c.TokenSecret != "" {
		c.TokenSecret = "********"
	}
	return c
}

// WriteClientConfig writes cfg to path with owner-only permissions.
// An existing file is only replaced when overwrite is set.
func WriteClientConfig(path string, cfg *ClientConfig, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal client config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write client config: %w", err)
	}
	return nil
}
