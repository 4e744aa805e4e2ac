// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package oci

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"

	apperrors "github.com/NVIDIA/runbook/pkg/errors"
)

// URIScheme is the URI scheme for OCI runbook sources
// (e.g., "oci://ghcr.io/org/runbooks:v1").
const URIScheme = "oci://"

// Reference represents a parsed runbook source, which can be either an OCI
// registry reference or a local file path.
type Reference struct {
	// IsOCI indicates whether this is an OCI registry reference (true) or local path (false).
	IsOCI bool
	// Registry is the OCI registry host (e.g., "ghcr.io", "localhost:5000").
	// Only populated when IsOCI is true.
	Registry string
	// Repository is the image repository path (e.g., "nvidia/runbooks").
	// Only populated when IsOCI is true.
	Repository string
	// Tag is the image tag (e.g., "v1.0.0").
	// Empty string means no tag was specified; caller should apply a default.
	// Only populated when IsOCI is true.
	Tag string
	// LocalPath is the local file path for non-OCI sources.
	// Only populated when IsOCI is false.
	LocalPath string
}

// ParseSource parses a runbook source string to detect an OCI URI or a local
// file path. For OCI URIs (oci://registry/repository:tag), it extracts the
// components.
//
// If no tag is specified in an OCI URI, Tag will be empty; the caller is
// responsible for applying a default.
func ParseSource(source string) (*Reference, error) {
	if !strings.HasPrefix(source, URIScheme) {
		return &Reference{
			IsOCI:     false,
			LocalPath: source,
		}, nil
	}

	// Strip oci:// and parse as standard image reference
	ref, err := reference.ParseNormalizedNamed(strings.TrimPrefix(source, URIScheme))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid OCI reference", err)
	}

	registry := reference.Domain(ref)
	repository := reference.Path(ref)

	var tag string
	if tagged, ok := ref.(reference.Tagged); ok {
		tag = tagged.Tag()
	}

	if registry == "" || repository == "" {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"OCI reference must include registry and repository",
			map[string]any{"source": source})
	}

	return &Reference{
		IsOCI:      true,
		Registry:   registry,
		Repository: repository,
		Tag:        tag,
	}, nil
}

// String returns the full reference string.
// For OCI references: "oci://registry/repository:tag" (or without tag if empty).
// For local paths: the local path.
func (r *Reference) String() string {
	if !r.IsOCI {
		return r.LocalPath
	}
	if r.Tag == "" {
		return fmt.Sprintf("%s%s/%s", URIScheme, r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s%s/%s:%s", URIScheme, r.Registry, r.Repository, r.Tag)
}

// ImageReference returns the Docker-style image reference (without oci:// scheme).
// Returns empty string for non-OCI references.
func (r *Reference) ImageReference() string {
	if !r.IsOCI {
		return ""
	}
	if r.Tag == "" {
		return fmt.Sprintf("%s/%s", r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// WithTag returns a copy of the reference with the specified tag.
// For non-OCI references, returns the same reference unchanged.
func (r *Reference) WithTag(tag string) *Reference {
	if !r.IsOCI {
		return r
	}
	return &Reference{
		IsOCI:      true,
		Registry:   r.Registry,
		Repository: r.Repository,
		Tag:        tag,
	}
}
