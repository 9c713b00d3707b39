package config

import (
	"errors"
	"strings"

	"golang.org/x/crypto/ssh"
)

// Validate checks every stack for semantic errors. All violations are
// reported together, each as a *ValidationError.
func Validate(cfg *StackConfig) error {
	var errs []error
	for name, s := range cfg.Stacks.All() {
		if err := ValidateStack(name, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ValidateStack checks a single stack.
func ValidateStack(stackName string, s *Stack) error {
	if s == nil {
		return nil
	}
	var errs []error
	fail := func(kind, name, field, msg string) {
		errs = append(errs, &ValidationError{Stack: stackName, Kind: kind, Name: name, Field: field, Message: msg})
	}

	if strings.TrimSpace(stackName) == "" {
		fail("stack", stackName, "name", "must not be empty")
	}

	for name, g := range s.HaGroups.All() {
		if len(g.Nodes) == 0 {
			fail("ha_group", name, "nodes", "must list at least one node")
		}
		if g.MaxRestart < 1 {
			fail("ha_group", name, "max_restart", "must be >= 1")
		}
		if g.MaxRelocate < 1 {
			fail("ha_group", name, "max_relocate", "must be >= 1")
		}
	}

	for name, inst := range s.Instances.All() {
		if inst.Clone <= 0 {
			fail("instance", name, "clone", "must be a template VM id > 0")
		}
		if inst.Count < 0 {
			fail("instance", name, "count", "must be >= 0")
		}
		if inst.Cores < 0 {
			fail("instance", name, "cores", "must be >= 0")
		}
		if inst.Memory < 0 {
			fail("instance", name, "memory", "must be >= 0")
		}
		if inst.HaGroup != "" && !s.HaGroups.Has(inst.HaGroup) {
			fail("instance", name, "ha_group", "references unknown group "+inst.HaGroup)
		}
	}

	return errors.Join(errs...)
}

// ParseSSHPublicKey validates an authorized_keys formatted public key and
// returns it in canonical single-line form.
func ParseSSHPublicKey(data []byte) (string, error) {
	key, comment, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(key)))
	if comment != "" {
		line += " " + comment
	}
	return line, nil
}
