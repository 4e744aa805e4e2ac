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

package wait

import (
	"context"
	"log/slog"
	"time"

	apiwait "k8s.io/apimachinery/pkg/util/wait"

	"github.com/NVIDIA/runbook/pkg/errors"
)

// DefaultInterval is used when a Spec does not set a poll interval.
const DefaultInterval = 2 * time.Second

// Condition reports whether the awaited cluster state has been observed.
// A returned error is treated as "condition not yet met" for that tick, not
// as a terminal failure; eventually consistent reads may fail transiently.
type Condition func(ctx context.Context) (bool, error)

// Spec describes a single condition-wait request. It is consumed once and
// holds no state between calls.
type Spec struct {
	// Description names the awaited condition in logs and errors.
	Description string
	// Timeout bounds the total wait. The wait never blocks past it.
	Timeout time.Duration
	// Interval is the pause between condition evaluations.
	Interval time.Duration
}

func (s Spec) interval() time.Duration {
	if s.Interval <= 0 {
		return DefaultInterval
	}
	return s.Interval
}

// Waiter evaluates a condition until it holds or the spec's timeout elapses.
// Implementations define the pacing strategy; call sites stay the same when
// the strategy is swapped.
type Waiter interface {
	Wait(ctx context.Context, spec Spec, cond Condition) error
}

// Poller is the fixed-interval Waiter. It evaluates the condition
// immediately, then sleeps spec.Interval between evaluations until the
// condition holds or spec.Timeout elapses.
type Poller struct{}

// Wait implements Waiter.
//
// On timeout it returns an errors.ErrCodeTimeout StructuredError carrying
// the attempt count. Operator cancellation of ctx surfaces as
// errors.ErrCodeInterrupted.
func (p Poller) Wait(ctx context.Context, spec Spec, cond Condition) error {
	start := time.Now()
	attempts := 0

	evaluate := func(ctx context.Context) (bool, error) {
		attempts++
		ok, err := cond(ctx)
		if err != nil {
			slog.Debug("condition not yet met",
				"condition", spec.Description,
				"attempt", attempts,
				"error", err,
			)
			return false, nil
		}
		return ok, nil
	}

	// First evaluation happens before any sleep so a zero timeout still
	// observes the condition once.
	if ok, _ := evaluate(ctx); ok {
		return nil
	}

	err := apiwait.PollUntilContextTimeout(ctx, spec.interval(), spec.Timeout, false, evaluate)
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return errors.Wrap(errors.ErrCodeInterrupted, "wait canceled: "+spec.Description, ctx.Err())
	}

	return errors.WrapWithContext(
		errors.ErrCodeTimeout,
		"timed out waiting for "+spec.Description,
		err,
		map[string]any{
			"attempts": attempts,
			"timeout":  spec.Timeout.String(),
			"elapsed":  time.Since(start).Round(time.Millisecond).String(),
		},
	)
}

// IsTimeout reports whether err is a condition-wait expiration.
func IsTimeout(err error) bool {
	return errors.HasCode(err, errors.ErrCodeTimeout)
}
