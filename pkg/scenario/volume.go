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

package scenario

import (
	"context"
	"fmt"
	"path"
	"strings"

	corev1 "k8s.io/api/core/v1"

	"github.com/NVIDIA/runbook/pkg/errors"
	"github.com/NVIDIA/runbook/pkg/kubectl"
	"github.com/NVIDIA/runbook/pkg/pipeline"
)

// markerFile is the file name under the claim's mount path that carries the
// persistence payload across pod restarts.
const markerFile = "runbook.marker"

// buildVolume assembles the persistence verification lifecycle: bind a
// claim, write a marker through a test pod, recreate the pod, and read the
// marker back.
func buildVolume(opts Options) *pipeline.Pipeline {
	rb := opts.Runbook
	r := opts.Runner

	claimRef := kubectl.ResourceRef{Kind: "pvc", Name: rb.Volume.Claim, Namespace: rb.Namespace}
	podRef := kubectl.ResourceRef{Kind: "pod", Name: rb.Volume.Pod, Namespace: rb.Namespace}
	marker := path.Join(rb.Volume.MountPath, markerFile)

	podRunning := func(ctx context.Context) (bool, error) {
		pod, err := r.Pod(ctx, rb.Namespace, rb.Volume.Pod)
		if err != nil {
			return false, err
		}
		return pod.Status.Phase == corev1.PodRunning, nil
	}

	p := &pipeline.Pipeline{
		Name: "volume/" + rb.Volume.Claim,
		Steps: []pipeline.Step{
			{
				Name: "cleanup-prior-pod",
				Mode: pipeline.BestEffort,
				Run: func(ctx context.Context) error {
					return r.Delete(ctx, podRef)
				},
			},
			{
				Name: "apply-manifest",
				Run: func(ctx context.Context) error {
					return r.Apply(ctx, rb.Resource.Manifest, rb.Namespace)
				},
			},
			{
				Name: "wait-claim-exists",
				Run: func(ctx context.Context) error {
					spec := rb.Waits.Exists.Spec(fmt.Sprintf("claim %s exists", rb.Volume.Claim))
					return opts.Waiter.Wait(ctx, spec, func(ctx context.Context) (bool, error) {
						return r.Exists(ctx, claimRef)
					})
				},
			},
			{
				Name: "wait-claim-bound",
				Run: func(ctx context.Context) error {
					spec := rb.Waits.Bound.Spec(fmt.Sprintf("claim %s bound", rb.Volume.Claim))
					return opts.Waiter.Wait(ctx, spec, func(ctx context.Context) (bool, error) {
						pvc, err := r.PersistentVolumeClaim(ctx, rb.Namespace, rb.Volume.Claim)
						if err != nil {
							return false, err
						}
						return pvc.Status.Phase == corev1.ClaimBound, nil
					})
				},
			},
			{
				Name: "wait-pod-running",
				Run: func(ctx context.Context) error {
					spec := rb.Waits.Active.Spec(fmt.Sprintf("pod %s running", rb.Volume.Pod))
					return opts.Waiter.Wait(ctx, spec, podRunning)
				},
			},
			{
				Name: "write-marker",
				Run: func(ctx context.Context) error {
					_, err := r.ExecInPod(ctx, podRef, "sh", "-c",
						fmt.Sprintf("echo %q > %s", rb.Volume.Marker, marker))
					return err
				},
			},
			{
				Name: "delete-pod",
				Run: func(ctx context.Context) error {
					return r.Delete(ctx, podRef)
				},
			},
			{
				Name: "wait-pod-gone",
				Run: func(ctx context.Context) error {
					spec := rb.Waits.Exists.Spec(fmt.Sprintf("pod %s removed", rb.Volume.Pod))
					return opts.Waiter.Wait(ctx, spec, func(ctx context.Context) (bool, error) {
						exists, err := r.Exists(ctx, podRef)
						return !exists, err
					})
				},
			},
			{
				Name: "recreate-pod",
				Run: func(ctx context.Context) error {
					return r.Apply(ctx, rb.Resource.Manifest, rb.Namespace)
				},
			},
			{
				Name: "wait-pod-running-again",
				Run: func(ctx context.Context) error {
					spec := rb.Waits.Active.Spec(fmt.Sprintf("pod %s running after recreate", rb.Volume.Pod))
					return opts.Waiter.Wait(ctx, spec, podRunning)
				},
			},
			{
				Name: "verify-marker",
				Run: func(ctx context.Context) error {
					res, err := r.ExecInPod(ctx, podRef, "cat", marker)
					if err != nil {
						return err
					}
					if !strings.Contains(res.Stdout, rb.Volume.Marker) {
						return errors.NewWithContext(errors.ErrCodeCommandFailed,
							"persisted marker does not match",
							map[string]any{
								"claim":    claimRef.String(),
								"expected": rb.Volume.Marker,
								"got":      strings.TrimSpace(res.Stdout),
							})
					}
					return nil
				},
			},
		},
		StateDump: stateDump(r, claimRef, podRef),
	}

	if !rb.Cleanup.Keep {
		p.Teardown = []pipeline.Step{
			{
				Name: "delete-pod",
				Run: func(ctx context.Context) error {
					return r.Delete(ctx, podRef)
				},
			},
			{
				Name: "delete-claim",
				Run: func(ctx context.Context) error {
					return r.Delete(ctx, claimRef)
				},
			},
		}
	}
	return p
}
