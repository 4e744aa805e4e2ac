/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package oci

import (
	"context"
	"crypto/tls"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	apperrors "github.com/NVIDIA/runbook/pkg/errors"
)

// ArtifactType is the media type for runbook OCI artifacts.
const ArtifactType = "application/vnd.nvidia.runbook.artifact"

// DefaultTag is applied when an OCI reference carries no tag.
const DefaultTag = "latest"

// PullOptions configures the OCI pull operation.
type PullOptions struct {
	// Reference is the parsed OCI source.
	Reference *Reference
	// DestDir is where the artifact contents are unpacked.
	// A temporary directory is created when empty.
	DestDir string
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
}

// PullResult contains the result of a successful pull.
type PullResult struct {
	// Digest is the SHA256 digest of the fetched artifact.
	Digest string
	// Reference is the full image reference (registry/repository:tag).
	Reference string
	// Path is the runbook definition file found in the artifact.
	Path string
	// Dir is the directory the artifact was unpacked into.
	Dir string
}

// Pull fetches a runbook artifact from an OCI registry using ORAS and
// returns the path of the runbook definition it contains.
func Pull(ctx context.Context, opts PullOptions) (*PullResult, error) {
	if opts.Reference == nil || !opts.Reference.IsOCI {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "OCI reference is required for pull")
	}

	ref := opts.Reference
	if ref.Tag == "" {
		ref = ref.WithTag(DefaultTag)
	}

	destDir := opts.DestDir
	if destDir == "" {
		tmp, err := os.MkdirTemp("", "runbook-pull-*")
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create pull directory", err)
		}
		destDir = tmp
	}

	slog.Info("fetching runbook artifact",
		"registry", ref.Registry,
		"repository", ref.Repository,
		"tag", ref.Tag,
	)

	store, err := file.New(destDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create file store", err)
	}
	defer func() { _ = store.Close() }()

	repo, err := remote.NewRepository(ref.ImageReference())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = createAuthClient(opts.PlainHTTP, opts.InsecureTLS)

	desc, err := oras.Copy(ctx, repo, ref.Tag, store, ref.Tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeUnavailable,
			"failed to pull runbook artifact", err,
			map[string]any{"reference": ref.ImageReference()})
	}

	if desc.MediaType != ociv1.MediaTypeImageManifest {
		slog.Warn("unexpected artifact media type",
			"reference", ref.ImageReference(), "mediaType", desc.MediaType)
	}

	path, err := findRunbookFile(destDir)
	if err != nil {
		return nil, err
	}

	slog.Info("runbook artifact fetched",
		"reference", ref.ImageReference(),
		"digest", desc.Digest.String(),
		"path", path,
	)

	return &PullResult{
		Digest:    desc.Digest.String(),
		Reference: ref.ImageReference(),
		Path:      path,
		Dir:       destDir,
	}, nil
}

// findRunbookFile locates the first YAML file in the unpacked artifact.
func findRunbookFile(dir string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || found != "" {
			return err
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == ".yaml" || ext == ".yml" {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInternal, "failed to scan pulled artifact", err)
	}
	if found == "" {
		return "", apperrors.NewWithContext(apperrors.ErrCodeNotFound,
			"pulled artifact contains no runbook definition",
			map[string]any{"dir": dir})
	}
	return found, nil
}

// createAuthClient creates an HTTP client with optional TLS configuration
// and Docker credential support.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, _ := credentials.NewStoreFromDocker(credentials.StoreOptions{})

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	return &auth.Client{
		Client:     &http.Client{Transport: transport},
		Cache:      auth.NewCache(),
		Credential: credentials.Credential(credStore),
	}
}
