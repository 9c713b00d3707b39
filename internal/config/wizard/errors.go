package wizard

import "errors"

// Validation errors for the interactive wizard.
var (
	errHostsRequired  = errors.New("at least one host is required")
	errHostInvalid    = errors.New("hosts must be hostnames or IP addresses separated by commas")
	errUserRequired   = errors.New("user is required")
	errUserRealm      = errors.New("user must include a realm, e.g. root@pam")
	errSecretRequired = errors.New("this value is required")
	errTokenIDInvalid = errors.New("token id must look like user@realm!name or name")
	errPortOutOfRange = errors.New("port must be between 1 and 65535")
	errPortNotNumeric = errors.New("port must be a number")
)
