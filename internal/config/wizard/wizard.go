package wizard

import (
	"context"
	"fmt"
)

// WizardResult holds all the answers from the interactive wizard.
type WizardResult struct {
	// Connection
	Hosts       string // comma separated
	Port        string
	InsecureTLS bool

	// Authentication
	User        string
	AuthMethod  string // AuthToken or AuthPassword
	Password    string
	TokenID     string
	TokenSecret string
}

// RunWizard runs the interactive configuration wizard. Answers already
// present in seed are offered as defaults. The context is used for
// cancellation support (e.g., Ctrl+C).
func RunWizard(ctx context.Context, seed *WizardResult) (*WizardResult, error) {
	result := &WizardResult{Port: "8006", AuthMethod: AuthToken}
	if seed != nil {
		*result = *seed
		if result.Port == "" {
			result.Port = "8006"
		}
		if result.AuthMethod == "" {
			result.AuthMethod = AuthToken
		}
	}

	if err := runConnectionGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("connection: %w", err)
	}

	if err := runAuthMethodGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("authentication: %w", err)
	}

	if result.AuthMethod == AuthToken {
		if err := runTokenGroup(ctx, result); err != nil {
			return nil, fmt.Errorf("api token: %w", err)
		}
	} else if err := runPasswordGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("password: %w", err)
	}

	return result, nil
}
