// Package ui renders proxcli output: pending stack plans, apply results,
// tables of cluster objects and JSON/YAML encodings for scripting.
//
// Colours follow the writer: a Printer bound to a terminal emits ANSI
// styles, one bound to a pipe or buffer emits plain text.
package ui
