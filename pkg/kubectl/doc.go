// Package kubectl executes kubectl as a subprocess and exposes typed
// operations over its command/status interface.
//
// The cluster is an opaque, eventually consistent collaborator: this package
// never talks to the API server directly, it only shells out. Every
// invocation produces an immutable Result (exit code, stdout, stderr,
// duration) and non-zero exits surface as structured COMMAND_FAILED errors
// unless the caller explicitly opts into "absence is not an error"
// semantics, as Exists and Delete do.
//
// Status fields are read back through typed accessors: `get -o json` output
// is decoded into k8s.io/api types rather than queried with ad hoc JSONPath
// strings.
package kubectl
