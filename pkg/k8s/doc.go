// Package k8s groups the direct Kubernetes API integrations: client
// construction (client) and the watch-accelerated wait strategy (watcher).
//
// The orchestration core drives the cluster through the kubectl subprocess
// interface; these packages exist for the one concern a subprocess cannot
// serve well, reacting to resource events without fixed-interval sleeps.
package k8s
