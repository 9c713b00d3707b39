// Package handlers implements the business logic for proxcli CLI commands.
//
// Each handler loads what it needs (stack document, client config, state
// store), drives the internal packages and prints through internal/ui.
// Collaborators are created through package-level factory variables so
// tests can replace them with in-memory fakes.
package handlers
