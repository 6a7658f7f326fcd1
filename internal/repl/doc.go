// Package repl drives a wizard engine from an interactive terminal session.
//
// Each line is a command (set, next, back, submit, ...) that becomes one
// engine event; after every command the current step is rendered with the
// configured formatter. readline provides history and tab completion of
// commands, field names and reference kinds.
//
// Execute runs a single line without a terminal, which is what the tests and
// scripted sessions use.
package repl
