// Package wait implements bounded condition waiting against an eventually
// consistent external system.
//
// The Waiter interface separates call sites from the pacing strategy. The
// default Poller sleeps a fixed interval between evaluations; the k8swatch
// package provides a watch-accelerated strategy with the same contract.
// Every wait terminates: either the condition holds or the timeout elapses
// and the failure reports how many attempts were made.
package wait
