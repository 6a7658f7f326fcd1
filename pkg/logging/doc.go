// Package logging provides the subsystem-tagged structured logger used across
// plancraft.
//
// It wraps Go's slog package. Every entry carries a subsystem string so
// output can be filtered by component:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	logging.Info("Wizard", "advanced to step %d", 2)
//	logging.Error("Client", err, "submit of %s failed", kind)
//
// # Subsystems
//
//   - **Wizard**: engine transitions and submit lifecycle
//   - **Client**: execution-service HTTP calls
//   - **Reference**: reference list loading
//   - **Config**: configuration loading and validation
//   - **Notify**: user notifications
//   - **REPL**: interactive wizard session
//   - **MCP**: MCP tool server
//   - **DraftFile**: draft file loading and watching
//
// # REPL mode
//
// InitForREPL diverts entries into a buffered channel. The interactive wizard
// drains it and prints entries above the prompt. When the buffer is full,
// entries are dropped with a notice on stderr instead of blocking the caller.
//
// The logger is safe for concurrent use.
package logging
