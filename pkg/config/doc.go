// Package config loads declarative runbook definitions. Resource names,
// namespaces, label selectors, and every timeout/interval pair are explicit
// configuration passed into the orchestration core, never ambient global
// state.
package config
