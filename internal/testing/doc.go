// Package testing provides test utilities, builders, and fixtures for unit and integration tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - StackBuilder: Fluent builder for desired stack states
//   - FakeCluster: In-memory Proxmox cluster that records every call in order
//   - MockStateStore: testify mock of the plan and state store
//
// Usage:
//
//	desired := testing.NewStackBuilder().
//	    WithHaGroup("prod", "pve1", "pve2").
//	    WithInstance("web", testing.Instance(9000)).
//	    Build()
//
//	cluster := testing.NewFakeCluster().WithTemplate(9000, "debian-12")
package testing
