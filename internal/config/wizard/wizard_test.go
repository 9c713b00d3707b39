package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imamik/proxcli/internal/config"
)

func TestValidateHosts(t *testing.T) {
	tests := []struct {
		input string
		err   error
	}{
		{"pve1.example.com", nil},
		{"pve1, pve2 ,10.0.0.3", nil},
		{"fd00::1", nil},
		{"", errHostsRequired},
		{" , ", errHostsRequired},
		{"pve_1", errHostInvalid},
		{"https://pve1", errHostInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.err, validateHosts(tt.input))
		})
	}
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, validatePort("8006"))
	assert.NoError(t, validatePort(" 443 "))
	assert.Equal(t, errPortNotNumeric, validatePort("https"))
	assert.Equal(t, errPortOutOfRange, validatePort("0"))
	assert.Equal(t, errPortOutOfRange, validatePort("70000"))
}

func TestValidateUser(t *testing.T) {
	assert.NoError(t, validateUser("root@pam"))
	assert.Equal(t, errUserRequired, validateUser("  "))
	assert.Equal(t, errUserRealm, validateUser("root"))
}

func TestValidateTokenID(t *testing.T) {
	assert.NoError(t, validateTokenID("root@pam!proxcli"))
	assert.NoError(t, validateTokenID("proxcli"))
	assert.Equal(t, errTokenIDInvalid, validateTokenID("root@pam!"))
	assert.Equal(t, errTokenIDInvalid, validateTokenID(""))
}

func TestBuildConfig_Token(t *testing.T) {
	cfg := BuildConfig(&WizardResult{
		Hosts:       "pve1, pve2",
		Port:        "8006",
		User:        "ops@pve",
		AuthMethod:  AuthToken,
		TokenID:     "proxcli",
		TokenSecret: "s3cret",
		Password:    "ignored",
	})

	assert.Equal(t, []string{"pve1", "pve2"}, cfg.Hosts)
	assert.Zero(t, cfg.Port, "default port is left implicit")
	assert.Equal(t, "ops@pve!proxcli", cfg.TokenID)
	assert.Equal(t, "s3cret", cfg.TokenSecret)
	assert.Empty(t, cfg.Password)
	assert.NoError(t, cfg.Validate())
}

func TestBuildConfig_Password(t *testing.T) {
	cfg := BuildConfig(&WizardResult{
		Hosts:       "10.0.0.1",
		Port:        "443",
		User:        "root@pam",
		AuthMethod:  AuthPassword,
		Password:    "hunter2",
		TokenSecret: "ignored",
		InsecureTLS: true,
	})

	assert.Equal(t, 443, cfg.Port)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.Empty(t, cfg.TokenID)
	assert.Empty(t, cfg.TokenSecret)
	assert.True(t, cfg.InsecureTLS)
}

func TestSeedFromConfig(t *testing.T) {
	assert.Nil(t, SeedFromConfig(nil))

	seed := SeedFromConfig(&config.ClientConfig{Hosts: []string{"a", "b"}, User: "root@pam", Password: "x", Port: 8443})
	assert.Equal(t, "a, b", seed.Hosts)
	assert.Equal(t, "8443", seed.Port)
	assert.Equal(t, AuthPassword, seed.AuthMethod)
	assert.Empty(t, seed.Password, "secrets are never pre-filled")
}
