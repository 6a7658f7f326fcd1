// Package notify delivers the fire-and-forget user notifications a wizard
// emits once a submit resolves.
//
// Notifiers never return errors and must not block: the wizard engine calls
// them synchronously after releasing its lock. LogNotifier writes to the
// Notify logging subsystem, TemplateNotifier reformats title and message
// through per-kind text/template templates (with the sprig function map)
// before passing them on, and Recorder keeps notifications in memory for
// tests and the MCP surface.
package notify
