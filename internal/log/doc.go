// Package log provides the structured logger shared by all proxcli packages.
//
// It wraps zerolog with a process-wide Logger configured once from the CLI
// flags, plus helpers that derive child loggers carrying the component or
// stack being worked on.
package log
