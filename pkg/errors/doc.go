// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Every failure surfaced by the orchestration core carries an ErrorCode so
// callers can distinguish expected absences (NOT_FOUND), wait expirations
// (TIMEOUT), command failures (COMMAND_FAILED), operator cancellations
// (INTERRUPTED), and an unreachable control plane (UNAVAILABLE).
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeTimeout,
//	    "waiting for cronjob to appear",
//	    ctx.Err(),
//	    map[string]interface{}{
//	        "resource": "cronjob/echo-job",
//	        "timeout":  "30s",
//	    },
//	)
package errors
