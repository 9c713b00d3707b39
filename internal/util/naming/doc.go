// Package naming provides consistent naming functions for stack resources.
//
// Every remote entity owned by a stack is named {stack}-{name}: VMs use the
// instance name ({stack}-{instance}, e.g. web-frontend-0) and HA groups the
// group name ({stack}-{group}). The shared prefix is what destroy and
// state discovery rely on to find a stack's resources.
package naming
