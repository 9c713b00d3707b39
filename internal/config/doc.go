// Package config loads and expands the declarative stack configuration.
//
// A stack document maps stack names to their HA groups and instances.
// Each entity is merged over the templates of a separate defaults
// document, then instances flagged with ipsequence are expanded into
// count concrete members with consecutive addresses. The result, a
// [StackConfig], is the desired state that the stack differ compares
// against the last applied state.
//
// The package also holds the Proxmox client settings ([ClientConfig]),
// per-user directories and the timeout knobs read from the environment.
package config
