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

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"

	"github.com/NVIDIA/runbook/pkg/errors"
	"github.com/NVIDIA/runbook/pkg/kubectl"
	"github.com/NVIDIA/runbook/pkg/pipeline"
)

// buildCronJob assembles the manual-trigger lifecycle for a CronJob:
// clean up the prior run, apply the schedule, trigger a derived job,
// follow its pod's output, and wait for completion.
func buildCronJob(opts Options) *pipeline.Pipeline {
	rb := opts.Runbook
	r := opts.Runner
	runID := newRunID()

	cronRef := kubectl.ResourceRef{Kind: "cronjob", Name: rb.Resource.Name, Namespace: rb.Namespace}
	jobRef := kubectl.ResourceRef{Kind: "job", Name: rb.Trigger.Name, Namespace: rb.Namespace}

	runLabels := map[string]string{RunIDLabel: runID}
	for k, v := range rb.Trigger.Labels {
		runLabels[k] = v
	}

	p := &pipeline.Pipeline{
		Name: "cronjob/" + rb.Resource.Name,
		Steps: []pipeline.Step{
			{
				Name: "cleanup-prior-job",
				Mode: pipeline.BestEffort,
				Run: func(ctx context.Context) error {
					return r.Delete(ctx, jobRef)
				},
			},
			{
				Name: "apply-manifest",
				Run: func(ctx context.Context) error {
					return r.Apply(ctx, rb.Resource.Manifest, rb.Namespace)
				},
			},
			{
				Name: "wait-cronjob-exists",
				Run: func(ctx context.Context) error {
					spec := rb.Waits.Exists.Spec(fmt.Sprintf("cronjob %s exists", rb.Resource.Name))
					return opts.Waiter.Wait(ctx, spec, func(ctx context.Context) (bool, error) {
						return r.Exists(ctx, cronRef)
					})
				},
			},
			{
				Name: "verify-schedulable",
				Run: func(ctx context.Context) error {
					cj, err := r.CronJob(ctx, rb.Namespace, rb.Resource.Name)
					if err != nil {
						return err
					}
					if cj.Spec.Suspend != nil && *cj.Spec.Suspend {
						return errors.NewWithContext(errors.ErrCodeInvalidRequest,
							"cronjob is suspended and will not schedule runs",
							map[string]any{"cronjob": cronRef.String()})
					}
					return nil
				},
			},
			{
				Name: "trigger-job",
				Run: func(ctx context.Context) error {
					created, err := r.CreateJobFrom(ctx, rb.Namespace, rb.Trigger.Name, cronRef)
					if err != nil {
						return err
					}
					return r.Label(ctx, created, runLabels)
				},
			},
			{
				Name: "wait-job-active",
				Run: func(ctx context.Context) error {
					spec := rb.Waits.Active.Spec(fmt.Sprintf("job %s active", rb.Trigger.Name))
					return opts.Waiter.Wait(ctx, spec, func(ctx context.Context) (bool, error) {
						job, err := r.Job(ctx, rb.Namespace, rb.Trigger.Name)
						if err != nil {
							return false, err
						}
						// A fast job may finish before it is ever observed
						// active; either state satisfies the wait.
						return job.Status.Active > 0 || jobComplete(job) || jobFailed(job), nil
					})
				},
			},
			{
				Name: "follow-logs",
				Run: func(ctx context.Context) error {
					return opts.follower().Follow(ctx, rb.Namespace, rb.Trigger.Name, opts.Out)
				},
			},
			{
				Name: "wait-job-complete",
				Run: func(ctx context.Context) error {
					var failed bool
					spec := rb.Waits.Complete.Spec(fmt.Sprintf("job %s complete", rb.Trigger.Name))
					err := opts.Waiter.Wait(ctx, spec, func(ctx context.Context) (bool, error) {
						job, err := r.Job(ctx, rb.Namespace, rb.Trigger.Name)
						if err != nil {
							return false, err
						}
						if jobFailed(job) {
							failed = true
							return true, nil
						}
						return jobComplete(job), nil
					})
					if err != nil {
						return err
					}
					if failed {
						return errors.NewWithContext(errors.ErrCodeCommandFailed,
							"triggered job failed",
							map[string]any{"job": jobRef.String()})
					}
					return nil
				},
			},
		},
		StateDump: stateDump(r, cronRef, jobRef),
	}

	if !rb.Cleanup.Keep {
		p.Teardown = []pipeline.Step{
			{
				Name: "delete-triggered-job",
				Run: func(ctx context.Context) error {
					return r.Delete(ctx, jobRef)
				},
			},
			{
				Name: "delete-cronjob",
				Run: func(ctx context.Context) error {
					return r.Delete(ctx, cronRef)
				},
			},
		}
	}
	return p
}

func jobComplete(job *batchv1.Job) bool {
	if job.Status.Succeeded > 0 {
		return true
	}
	for _, c := range job.Status.Conditions {
		if c.Type == batchv1.JobComplete && c.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}

func jobFailed(job *batchv1.Job) bool {
	for _, c := range job.Status.Conditions {
		if c.Type == batchv1.JobFailed && c.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}
