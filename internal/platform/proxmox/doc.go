// Package proxmox provides a client for the Proxmox VE REST API.
//
// The [ClusterClient] interface groups the node, VM and HA operations the
// stack reconciler needs. [RealClient] implements it over HTTPS against
// the first reachable cluster host; [MockClient] is a function-field stub
// for handler tests.
//
// Lookups return found-or-not results instead of errors for missing
// entities. Mutations that start Proxmox tasks block until the task stops
// and surface a failed exit status as a [*TaskError].
package proxmox
