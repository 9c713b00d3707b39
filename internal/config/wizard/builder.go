package wizard

import (
	"strconv"
	"strings"

	"github.com/imamik/proxcli/internal/config"
)

// BuildConfig creates a ClientConfig from the wizard result. Only the
// secret of the chosen authentication method is kept.
func BuildConfig(result *WizardResult) *config.ClientConfig {
	cfg := &config.ClientConfig{
		Hosts:       parseHosts(result.Hosts),
		User:        strings.TrimSpace(result.User),
		InsecureTLS: result.InsecureTLS,
	}

	if port, err := strconv.Atoi(strings.TrimSpace(result.Port)); err == nil && port != config.DefaultAPIPort {
		cfg.Port = port
	}

	if result.AuthMethod == AuthPassword {
		cfg.Password = result.Password
		return cfg
	}

	// A bare token name belongs to the configured user.
	tokenID := strings.TrimSpace(result.TokenID)
	if tokenID != "" && !strings.Contains(tokenID, "!") {
		tokenID = cfg.User + "!" + tokenID
	}
	cfg.TokenID = tokenID
	cfg.TokenSecret = result.TokenSecret
	return cfg
}

// SeedFromConfig turns an existing config into wizard defaults.
func SeedFromConfig(cfg *config.ClientConfig) *WizardResult {
	if cfg == nil {
		return nil
	}
	seed := &WizardResult{
		Hosts:       strings.Join(cfg.Hosts, ", "),
		User:        cfg.User,
		InsecureTLS: cfg.InsecureTLS,
		TokenID:     cfg.TokenID,
		AuthMethod:  AuthToken,
	}
	if cfg.Port != 0 {
		seed.Port = strconv.Itoa(cfg.Port)
	}
	if cfg.Password != "" && cfg.TokenID == "" {
		seed.AuthMethod = AuthPassword
	}
	return seed
}
