// Package retry provides exponential backoff retry logic for transient failures.
//
// [WithExponentialBackoff] retries an operation with configurable attempts,
// initial delay, maximum delay and multiplier. proxcli uses it for Proxmox
// calls that fail while another task holds a guest's config lock, and for
// waiting until a freshly cloned VM shows up in cluster listings.
//
// Errors wrapped with [Fatal], or rejected by a [WithRetryIf] predicate, end
// the loop immediately.
package retry
