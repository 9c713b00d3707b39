package wizard

import (
	"context"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

// hostnameRegex matches RFC 1123 host names.
var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// tokenIDRegex matches "user@realm!name" or a bare token name.
var tokenIDRegex = regexp.MustCompile(`^(?:[^@!\s]+@[^@!\s]+!)?[A-Za-z][A-Za-z0-9._-]*$`)

// runConnectionGroup prompts for the cluster hosts and API port.
func runConnectionGroup(ctx context.Context, result *WizardResult) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Proxmox Hosts").
				Description("Comma-separated cluster nodes; the first reachable one is used").
				Placeholder("pve1.example.com, pve2.example.com").
				Value(&result.Hosts).
				Validate(validateHosts),
			huh.NewInput().
				Title("API Port").
				Value(&result.Port).
				Validate(validatePort),
			huh.NewConfirm().
				Title("Skip TLS Verification?").
				Description("Only for clusters with self-signed certificates").
				Value(&result.InsecureTLS),
		).Title("Connection"),
	).RunWithContext(ctx)
}

// runAuthMethodGroup prompts for the user and the authentication method.
func runAuthMethodGroup(ctx context.Context, result *WizardResult) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("User").
				Description("Proxmox user including realm").
				Placeholder("root@pam").
				Value(&result.User).
				Validate(validateUser),
			huh.NewSelect[string]().
				Title("Authentication").
				Options(AuthMethodOptions...).
				Value(&result.AuthMethod),
		).Title("Authentication"),
	).RunWithContext(ctx)
}

// runTokenGroup prompts for the API token.
func runTokenGroup(ctx context.Context, result *WizardResult) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Token ID").
				Description("As shown under Datacenter > Permissions > API Tokens").
				Placeholder("root@pam!proxcli").
				Value(&result.TokenID).
				Validate(validateTokenID),
			huh.NewInput().
				Title("Token Secret").
				EchoMode(huh.EchoModePassword).
				Value(&result.TokenSecret).
				Validate(validateSecret),
		).Title("API Token"),
	).RunWithContext(ctx)
}

// runPasswordGroup prompts for the user's password.
func runPasswordGroup(ctx context.Context, result *WizardResult) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&result.Password).
				Validate(validateSecret),
		).Title("Password"),
	).RunWithContext(ctx)
}

func validateHosts(s string) error {
	hosts := parseHosts(s)
	if len(hosts) == 0 {
		return errHostsRequired
	}
	for _, h := range hosts {
		if net.ParseIP(h) == nil && !hostnameRegex.MatchString(h) {
			return errHostInvalid
		}
	}
	return nil
}

func validatePort(s string) error {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errPortNotNumeric
	}
	if port < 1 || port > 65535 {
		return errPortOutOfRange
	}
	return nil
}

func validateUser(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errUserRequired
	}
	if !strings.Contains(s, "@") {
		return errUserRealm
	}
	return nil
}

func validateTokenID(s string) error {
	if !tokenIDRegex.MatchString(strings.TrimSpace(s)) {
		return errTokenIDInvalid
	}
	return nil
}

func validateSecret(s string) error {
	if s == "" {
		return errSecretRequired
	}
	return nil
}

// parseHosts splits comma separated hosts, dropping blanks.
func parseHosts(s string) []string {
	var hosts []string
	for _, part := range strings.Split(s, ",") {
		if h := strings.TrimSpace(part); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
