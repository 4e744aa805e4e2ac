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

// Package watcher implements a watch-accelerated wait.Waiter. Resource
// events wake the condition early; the spec interval remains the fallback
// tick and the timeout always binds, so the contract is identical to the
// fixed-interval poller.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"

	"github.com/NVIDIA/runbook/pkg/errors"
	"github.com/NVIDIA/runbook/pkg/wait"
)

// Target names the resource stream whose events accelerate the wait.
type Target struct {
	// Kind is one of "pods", "jobs", "cronjobs".
	Kind      string
	Namespace string
	// Name narrows the stream to a single object when set.
	Name string
	// LabelSelector narrows the stream when Name is empty.
	LabelSelector string
}

// EventWaiter is a wait.Waiter that subscribes to resource events instead
// of relying on fixed-interval sleeps alone.
type EventWaiter struct {
	Client kubernetes.Interface
	Target Target
}

var _ wait.Waiter = (*EventWaiter)(nil)

// Wait implements wait.Waiter. The condition is evaluated immediately, then
// on every event for the target and on every interval tick, until it holds
// or the timeout elapses. Condition errors are "not yet" for that tick.
func (w *EventWaiter) Wait(ctx context.Context, spec wait.Spec, cond wait.Condition) error {
	attempts := 0
	evaluate := func(ctx context.Context) bool {
		attempts++
		ok, err := cond(ctx)
		if err != nil {
			slog.Debug("condition not yet met",
				"condition", spec.Description, "attempt", attempts, "error", err)
			return false
		}
		return ok
	}

	if evaluate(ctx) {
		return nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	events, err := w.openWatch(timeoutCtx)
	if err != nil {
		// Watch is an acceleration, not a requirement; degrade to ticks.
		slog.Warn("watch unavailable, falling back to interval polling",
			"condition", spec.Description, "error", err)
	} else {
		defer events.Stop()
	}

	interval := spec.Interval
	if interval <= 0 {
		interval = wait.DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var eventCh <-chan watch.Event
	if events != nil {
		eventCh = events.ResultChan()
	}

	for {
		select {
		case <-timeoutCtx.Done():
			if ctx.Err() != nil {
				return errors.Wrap(errors.ErrCodeInterrupted,
					"wait canceled: "+spec.Description, ctx.Err())
			}
			return errors.WrapWithContext(errors.ErrCodeTimeout,
				"timed out waiting for "+spec.Description,
				timeoutCtx.Err(),
				map[string]any{
					"attempts": attempts,
					"timeout":  spec.Timeout.String(),
				})

		case ev, ok := <-eventCh:
			if !ok {
				// Server closed the stream; interval ticks keep the wait
				// alive within the timeout.
				eventCh = nil
				continue
			}
			if ev.Type == watch.Error {
				slog.Debug("watch error event", "condition", spec.Description, "object", ev.Object)
				continue
			}
			if evaluate(timeoutCtx) {
				return nil
			}

		case <-ticker.C:
			if evaluate(timeoutCtx) {
				return nil
			}
		}
	}
}

func (w *EventWaiter) openWatch(ctx context.Context) (watch.Interface, error) {
	opts := metav1.ListOptions{Watch: true}
	if w.Target.Name != "" {
		opts.FieldSelector = "metadata.name=" + w.Target.Name
	} else if w.Target.LabelSelector != "" {
		opts.LabelSelector = w.Target.LabelSelector
	}

	switch w.Target.Kind {
	case "pods":
		return w.Client.CoreV1().Pods(w.Target.Namespace).Watch(ctx, opts)
	case "jobs":
		return w.Client.BatchV1().Jobs(w.Target.Namespace).Watch(ctx, opts)
	case "cronjobs":
		return w.Client.BatchV1().CronJobs(w.Target.Namespace).Watch(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported watch kind %q", w.Target.Kind)
	}
}
