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
	"encoding/json"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"

	"github.com/NVIDIA/runbook/pkg/errors"
)

// getInto fetches a resource as JSON and decodes it into out.
func (r *Runner) getInto(ctx context.Context, ref ResourceRef, out any) error {
	args := append([]string{"get", ref.Kind, ref.Name}, ref.namespaceArgs()...)
	args = append(args, "-o", "json")

	res, err := r.Run(ctx, args...)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(res.Stdout), out); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal,
			"failed to decode resource", err,
			map[string]any{"resource": ref.String()})
	}
	return nil
}

// Exists reports whether the referenced resource exists. A NOT_FOUND result
// from the control plane is not an error here.
func (r *Runner) Exists(ctx context.Context, ref ResourceRef) (bool, error) {
	args := append([]string{"get", ref.Kind, ref.Name}, ref.namespaceArgs()...)
	args = append(args, "-o", "name")

	_, err := r.Run(ctx, args...)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CronJob fetches a CronJob with its status.
func (r *Runner) CronJob(ctx context.Context, namespace, name string) (*batchv1.CronJob, error) {
	var cj batchv1.CronJob
	ref := ResourceRef{Kind: "cronjob", Name: name, Namespace: namespace}
	if err := r.getInto(ctx, ref, &cj); err != nil {
		return nil, err
	}
	return &cj, nil
}

// Job fetches a Job with its status.
func (r *Runner) Job(ctx context.Context, namespace, name string) (*batchv1.Job, error) {
	var job batchv1.Job
	ref := ResourceRef{Kind: "job", Name: name, Namespace: namespace}
	if err := r.getInto(ctx, ref, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Pod fetches a Pod with its status.
func (r *Runner) Pod(ctx context.Context, namespace, name string) (*corev1.Pod, error) {
	var pod corev1.Pod
	ref := ResourceRef{Kind: "pod", Name: name, Namespace: namespace}
	if err := r.getInto(ctx, ref, &pod); err != nil {
		return nil, err
	}
	return &pod, nil
}

// Pods lists pods matching a label selector. Zero matches is a valid result,
// not an error; dependent resources appear asynchronously.
func (r *Runner) Pods(ctx context.Context, namespace, selector string) (*corev1.PodList, error) {
	args := []string{"get", "pods"}
	if namespace != "" {
		args = append(args, "-n", namespace)
	}
	if selector != "" {
		args = append(args, "-l", selector)
	}
	args = append(args, "-o", "json")

	res, err := r.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var list corev1.PodList
	if err := json.Unmarshal([]byte(res.Stdout), &list); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to decode pod list", err)
	}
	return &list, nil
}

// PersistentVolumeClaim fetches a PVC with its status.
func (r *Runner) PersistentVolumeClaim(ctx context.Context, namespace, name string) (*corev1.PersistentVolumeClaim, error) {
	var pvc corev1.PersistentVolumeClaim
	ref := ResourceRef{Kind: "pvc", Name: name, Namespace: namespace}
	if err := r.getInto(ctx, ref, &pvc); err != nil {
		return nil, err
	}
	return &pvc, nil
}

// PersistentVolume fetches a cluster-scoped PV with its status.
func (r *Runner) PersistentVolume(ctx context.Context, name string) (*corev1.PersistentVolume, error) {
	var pv corev1.PersistentVolume
	ref := ResourceRef{Kind: "pv", Name: name}
	if err := r.getInto(ctx, ref, &pv); err != nil {
		return nil, err
	}
	return &pv, nil
}

// Describe returns the human-readable state of a resource for operator
// diagnostics (state dumps during teardown). Absence is reported as a
// message, not an error.
func (r *Runner) Describe(ctx context.Context, ref ResourceRef) string {
	args := append([]string{"get", ref.Kind, ref.Name}, ref.namespaceArgs()...)
	args = append(args, "-o", "wide")

	res, err := r.Run(ctx, args...)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			return ref.String() + ": not found"
		}
		return ref.String() + ": state unavailable: " + err.Error()
	}
	return res.Stdout
}
