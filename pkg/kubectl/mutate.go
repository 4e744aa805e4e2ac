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

package kubectl

import (
	"context"
	"fmt"
	"sort"

	"github.com/NVIDIA/runbook/pkg/errors"
)

// Apply submits declarative configuration; create-or-update, idempotent.
func (r *Runner) Apply(ctx context.Context, manifest, namespace string) error {
	args := []string{"apply", "-f", manifest}
	if namespace != "" {
		args = append(args, "-n", namespace)
	}
	_, err := r.Run(ctx, args...)
	return err
}

// Delete removes a resource by reference. Absence is success: prior runs may
// have already cleaned up, or never created the resource at all.
func (r *Runner) Delete(ctx context.Context, ref ResourceRef) error {
	args := append([]string{"delete", ref.Kind, ref.Name}, ref.namespaceArgs()...)
	args = append(args, "--ignore-not-found")

	_, err := r.Run(ctx, args...)
	if err != nil && errors.HasCode(err, errors.ErrCodeNotFound) {
		return nil
	}
	return err
}

// DeleteBySelector removes all resources of a kind matching a label
// selector. Zero matches is success.
func (r *Runner) DeleteBySelector(ctx context.Context, kind, namespace, selector string) error {
	args := []string{"delete", kind, "-l", selector, "--ignore-not-found"}
	if namespace != "" {
		args = append(args, "-n", namespace)
	}

	_, err := r.Run(ctx, args...)
	if err != nil && errors.HasCode(err, errors.ErrCodeNotFound) {
		return nil
	}
	return err
}

// CreateJobFrom instantiates a Job from a CronJob's template, the manual
// trigger equivalent of a scheduled run.
func (r *Runner) CreateJobFrom(ctx context.Context, namespace, name string, from ResourceRef) (ResourceRef, error) {
	ref := ResourceRef{Kind: "job", Name: name, Namespace: namespace}

	args := []string{"create", "job", name, "--from=" + from.Slash()}
	if namespace != "" {
		args = append(args, "-n", namespace)
	}

	if _, err := r.Run(ctx, args...); err != nil {
		return ref, err
	}
	return ref, nil
}

// Label attaches labels to a resource so later steps and cleanup can find
// it. Existing values are overwritten.
func (r *Runner) Label(ctx context.Context, ref ResourceRef, labels map[string]string) error {
	if len(labels) == 0 {
		return nil
	}

	args := append([]string{"label", ref.Kind, ref.Name}, ref.namespaceArgs()...)

	// Sorted for deterministic command lines in logs and tests.
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, fmt.Sprintf("%s=%s", k, labels[k]))
	}
	args = append(args, "--overwrite")

	_, err := r.Run(ctx, args...)
	return err
}
