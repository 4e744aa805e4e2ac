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

// Package follow locates the pod a job spawned and streams its output,
// tolerating the race between job creation and pod readiness.
package follow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/NVIDIA/runbook/pkg/errors"
	"github.com/NVIDIA/runbook/pkg/kubectl"
	"github.com/NVIDIA/runbook/pkg/wait"
)

const (
	// DefaultAttempts bounds dependent-pod resolution; a pod that never
	// appears (e.g. a misconfigured selector) must not hang the run.
	DefaultAttempts = 12
	// DefaultInterval is the pause between resolution attempts.
	DefaultInterval = 5 * time.Second
)

// Follower resolves and streams the single pod owned by a job. The pod's
// name is a side effect of job creation and only discoverable after the
// fact, so resolution polls with a bounded attempt budget.
type Follower struct {
	Runner *kubectl.Runner
	// Waiter paces the readiness wait; defaults to the fixed-interval
	// poller.
	Waiter wait.Waiter
	// Attempts is the resolution budget; zero means DefaultAttempts.
	Attempts int
	// Interval is the pause between resolution attempts; zero means
	// DefaultInterval.
	Interval time.Duration
	// ReadyTimeout bounds the running-or-completed wait once the pod is
	// resolved; zero means Attempts x Interval.
	ReadyTimeout time.Duration
}

func (f *Follower) attempts() int {
	if f.Attempts <= 0 {
		return DefaultAttempts
	}
	return f.Attempts
}

func (f *Follower) interval() time.Duration {
	if f.Interval <= 0 {
		return DefaultInterval
	}
	return f.Interval
}

func (f *Follower) waiter() wait.Waiter {
	if f.Waiter == nil {
		return wait.Poller{}
	}
	return f.Waiter
}

func (f *Follower) readyTimeout() time.Duration {
	if f.ReadyTimeout <= 0 {
		return time.Duration(f.attempts()) * f.interval()
	}
	return f.ReadyTimeout
}

// Resolve finds the pod owned by the named job. Zero matches is not a
// terminal failure until the attempt budget is exhausted; lookup errors are
// tolerated the same way.
func (f *Follower) Resolve(ctx context.Context, namespace, jobName string) (kubectl.ResourceRef, error) {
	selector := labels.Set{"job-name": jobName}.String()
	budget := f.attempts()

	for attempt := 1; attempt <= budget; attempt++ {
		list, err := f.Runner.Pods(ctx, namespace, selector)
		switch {
		case err != nil:
			slog.Debug("dependent pod lookup failed",
				"job", jobName, "attempt", attempt, "error", err)
		case len(list.Items) > 0:
			pod := list.Items[0]
			slog.Debug("dependent pod resolved",
				"job", jobName, "pod", pod.Name, "attempt", attempt)
			return kubectl.ResourceRef{Kind: "pod", Name: pod.Name, Namespace: namespace}, nil
		default:
			slog.Debug("dependent pod not scheduled yet",
				"job", jobName, "attempt", attempt)
		}

		if attempt == budget {
			break
		}
		select {
		case <-ctx.Done():
			return kubectl.ResourceRef{}, errors.Wrap(errors.ErrCodeInterrupted,
				"dependent pod resolution canceled", ctx.Err())
		case <-time.After(f.interval()):
		}
	}

	return kubectl.ResourceRef{}, errors.NewWithContext(errors.ErrCodeNotFound,
		fmt.Sprintf("could not find dependent resource for job %q", jobName),
		map[string]any{
			"selector": selector,
			"attempts": budget,
			"interval": f.interval().String(),
		})
}

// Follow resolves the job's pod, waits for it to reach a running or
// completed state, then streams its output to w until the stream ends or
// ctx is canceled. If the pod completed before streaming could start, the
// final output is fetched in one shot instead of failing.
func (f *Follower) Follow(ctx context.Context, namespace, jobName string, w io.Writer) error {
	podRef, err := f.Resolve(ctx, namespace, jobName)
	if err != nil {
		return err
	}

	var phase corev1.PodPhase
	spec := wait.Spec{
		Description: fmt.Sprintf("pod %s running or completed", podRef.Name),
		Timeout:     f.readyTimeout(),
		Interval:    f.interval(),
	}
	err = f.waiter().Wait(ctx, spec, func(ctx context.Context) (bool, error) {
		pod, err := f.Runner.Pod(ctx, namespace, podRef.Name)
		if err != nil {
			return false, err
		}
		phase = pod.Status.Phase
		switch phase {
		case corev1.PodRunning, corev1.PodSucceeded, corev1.PodFailed:
			return true, nil
		default:
			return false, nil
		}
	})
	if err != nil {
		return err
	}

	// Already finished: the follow stream would race the kubelet's log
	// rotation, so fetch the final output instead.
	if phase == corev1.PodSucceeded || phase == corev1.PodFailed {
		return f.fetchFinal(ctx, podRef, w)
	}

	err = f.Runner.StreamLogs(ctx, podRef, w, "")
	if err != nil && errors.HasCode(err, errors.ErrCodeCommandFailed) {
		slog.Debug("log stream failed, falling back to one-shot fetch",
			"pod", podRef.Name, "error", err)
		return f.fetchFinal(ctx, podRef, w)
	}
	return err
}

func (f *Follower) fetchFinal(ctx context.Context, podRef kubectl.ResourceRef, w io.Writer) error {
	out, err := f.Runner.FetchLogs(ctx, podRef)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
