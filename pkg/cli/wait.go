/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	corev1 "k8s.io/api/core/v1"

	"github.com/NVIDIA/runbook/pkg/errors"
	"github.com/NVIDIA/runbook/pkg/k8s/watcher"
	"github.com/NVIDIA/runbook/pkg/kubectl"
	"github.com/NVIDIA/runbook/pkg/wait"
)

func waitCmd() *cli.Command {
	return &cli.Command{
		Name:                  "wait",
		EnableShellCompletion: true,
		Usage:                 "Wait for a resource to reach a condition",
		Description: `Poll a single resource until it reaches the requested condition or
the timeout elapses. The exit code reports the outcome, which makes
this suitable for scripting.

# Conditions

  exists   - the resource is present
  gone     - the resource is absent
  running  - the pod reports phase Running
  bound    - the claim reports phase Bound
  complete - the job reports a Complete condition

# Examples

  runbook wait --kind job --name echo-job-manual --condition complete --timeout 2m
  runbook wait --kind pvc --name data-claim --condition bound
  runbook wait --kind pod --name volume-test-pod --condition gone --watch`,
		Flags: []cli.Flag{
			kubeconfigFlag(),
			namespaceFlag(),
			watchFlag(),
			&cli.StringFlag{
				Name:     "kind",
				Usage:    "resource kind (cronjob, job, pod, pvc)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "name",
				Usage:    "resource name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "condition",
				Usage: "condition to wait for (exists, gone, running, bound, complete)",
				Value: "exists",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "give up after this long",
				Value: 60 * time.Second,
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "pause between condition evaluations",
				Value: 2 * time.Second,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			runner := newRunner(nil, cmd.String("kubeconfig"))

			ref := kubectl.ResourceRef{
				Kind:      cmd.String("kind"),
				Name:      cmd.String("name"),
				Namespace: cmd.String("namespace"),
			}

			cond, err := buildCondition(runner, ref, cmd.String("condition"))
			if err != nil {
				return err
			}

			waiter := newWaiter(cmd.Bool("watch"), cmd.String("kubeconfig"), watcher.Target{
				Kind:      watchKind(ref.Kind),
				Namespace: ref.Namespace,
				Name:      ref.Name,
			})

			spec := wait.Spec{
				Description: fmt.Sprintf("%s is %s", ref.String(), cmd.String("condition")),
				Timeout:     cmd.Duration("timeout"),
				Interval:    cmd.Duration("interval"),
			}
			return waiter.Wait(ctx, spec, cond)
		},
	}
}

// buildCondition maps a named condition onto a concrete resource check.
func buildCondition(r *kubectl.Runner, ref kubectl.ResourceRef, condition string) (wait.Condition, error) {
	switch condition {
	case "exists":
		return func(ctx context.Context) (bool, error) {
			return r.Exists(ctx, ref)
		}, nil

	case "gone":
		return func(ctx context.Context) (bool, error) {
			exists, err := r.Exists(ctx, ref)
			return !exists, err
		}, nil

	case "running":
		return func(ctx context.Context) (bool, error) {
			pod, err := r.Pod(ctx, ref.Namespace, ref.Name)
			if err != nil {
				return false, err
			}
			return pod.Status.Phase == corev1.PodRunning, nil
		}, nil

	case "bound":
		return func(ctx context.Context) (bool, error) {
			pvc, err := r.PersistentVolumeClaim(ctx, ref.Namespace, ref.Name)
			if err != nil {
				return false, err
			}
			return pvc.Status.Phase == corev1.ClaimBound, nil
		}, nil

	case "complete":
		return func(ctx context.Context) (bool, error) {
			job, err := r.Job(ctx, ref.Namespace, ref.Name)
			if err != nil {
				return false, err
			}
			return job.Status.Succeeded > 0, nil
		}, nil

	default:
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"unknown wait condition", map[string]any{"condition": condition})
	}
}

// watchKind maps a kubectl resource kind to the watchable plural form.
func watchKind(kind string) string {
	switch kind {
	case "pod":
		return "pods"
	case "job":
		return "jobs"
	case "cronjob":
		return "cronjobs"
	default:
		return kind
	}
}
