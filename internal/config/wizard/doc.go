// Package wizard provides an interactive setup wizard for the proxcli
// client configuration.
//
// It uses charmbracelet/huh forms to collect the cluster hosts, the API
// user and either an API token or a password. RunWizard returns the
// answers as a WizardResult; BuildConfig turns them into a
// config.ClientConfig ready to be written with config.WriteClientConfig.
package wizard
