// Package pipeline sequences ordered lifecycle steps against an external
// control plane: cleanup-existing, apply, wait-for-created, verify, act,
// observe, teardown.
//
// Strict step failures abort the remaining pipeline and trigger teardown;
// best-effort steps log a warning and continue. Operator interrupts
// transition immediately to teardown, which runs detached from the canceled
// context so cleanup still happens, and the run reports cancellation rather
// than a defect.
package pipeline
