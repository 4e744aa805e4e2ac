// Package oci resolves and fetches runbook definitions stored as OCI
// artifacts.
//
// A runbook source can be a local file path or an OCI reference
// (oci://registry/repository:tag). OCI-hosted runbooks are fetched with the
// ORAS library and unpacked to a local directory before parsing.
//
// # Authentication
//
// The package automatically uses Docker credential helpers for
// authentication. Credentials are loaded from the standard Docker
// configuration (~/.docker/config.json) using the ORAS credentials package.
//
// # Artifact Type
//
// Runbook artifacts carry the media type
// "application/vnd.nvidia.runbook.artifact". This custom media type
// distinguishes runbook definitions from runnable container images.
package oci
