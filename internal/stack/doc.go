// Package stack computes and represents the difference between the last
// applied state of a stack and its desired configuration.
//
// [Diff] walks two [config.Stack] values and produces a [Plan]: the HA
// groups and instances to add, to remove and to update. Updates carry
// per-property old/new pairs; instance tags carry a set delta instead.
// Plans serialize to JSON in declaration order so that a stored plan can
// be compared against a freshly computed one.
package stack
