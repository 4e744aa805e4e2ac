// Package logging provides structured logging utilities for runbook components.
//
// It wraps the standard library slog package with project defaults: JSON
// output to stderr, module/version context attributes, environment-based
// level configuration (LOG_LEVEL), and source location tracking for debug
// logs.
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("runbook", version)
//
//	    slog.Info("pipeline starting", "steps", 7)
//	    slog.Debug("resolved pod", "pod", podName)
//	    slog.Error("step failed", "error", err)
//	}
//
// The LOG_LEVEL environment variable controls verbosity (DEBUG, INFO, WARN,
// ERROR, case-insensitive); an explicit level passed by the caller wins over
// the environment. If neither is set, INFO is used.
package logging
