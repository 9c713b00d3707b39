// Package async provides utilities for parallel task execution with
// error collection.
//
// [RunParallel] executes independent operations concurrently, optionally
// bounded, and returns all of their errors joined. proxcli uses it for
// read-only fan-out such as guest agent address lookups.
package async
