// Package tags provides the tag set algebra used for VM tag reconciliation.
//
// Proxmox stores a guest's tags as one string separated by ';' (older
// releases also emitted ','). This package parses and joins that string and
// computes additive/subtractive deltas so that reconciling a VM never
// clobbers tags it does not manage.
package tags
