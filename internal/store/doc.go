// Package store persists per-stack state and pending plans.
//
// A Store writes two artifacts per stack: "<stack>.state", the last
// successfully applied expanded stack, and "<stack>.plan", the pending
// diff consumed by the next apply. Both are indented JSON and are always
// overwritten whole. Storage is delegated to a Backend, either the local
// filesystem (FileBackend) or an S3 bucket (S3Backend).
//
// There is no locking. Two concurrent invocations for the same stack race.
package store
