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

package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/NVIDIA/runbook/pkg/errors"
	"github.com/NVIDIA/runbook/pkg/metrics"
)

// Mode controls a step's failure semantics.
type Mode int

const (
	// Strict steps abort the remaining pipeline on failure and trigger
	// teardown.
	Strict Mode = iota
	// BestEffort steps log a warning on failure and the pipeline continues.
	// Cleanup steps are always best-effort: absence of the resource they
	// remove is success, not failure.
	BestEffort
)

func (m Mode) String() string {
	if m == BestEffort {
		return "best-effort"
	}
	return "strict"
}

// Step is one named unit of a lifecycle pipeline.
type Step struct {
	Name string
	Mode Mode
	Run  func(ctx context.Context) error
}

// Status is the recorded outcome of one step.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusWarned  Status = "warned"
	StatusSkipped Status = "skipped"
)

// StepResult records one step's outcome for the run report.
type StepResult struct {
	Name     string        `json:"name" yaml:"name"`
	Mode     string        `json:"mode" yaml:"mode"`
	Status   Status        `json:"status" yaml:"status"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// teardownTimeout bounds cleanup after a failure or interrupt so a wedged
// control plane cannot hang the exit path.
const teardownTimeout = 2 * time.Minute

// Pipeline executes an ordered sequence of steps with fail-fast semantics
// and interrupt-safe teardown. A single caller drives the whole pipeline;
// steps never run concurrently.
type Pipeline struct {
	// Name identifies the pipeline in logs and reports.
	Name string
	// Steps run strictly in declared order.
	Steps []Step
	// Teardown steps run after completion, failure, or interrupt. They are
	// always best-effort and their failures are surfaced, never hidden.
	Teardown []Step
	// StateDump, when set, reports current external-resource state to the
	// operator before the pipeline exits on failure or interrupt.
	StateDump func(ctx context.Context) string
}

// Run executes the pipeline. It returns the report in every case; the error
// is non-nil when a strict step failed (COMMAND_FAILED/TIMEOUT/...) or the
// operator interrupted the run (INTERRUPTED).
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := newReport(p.Name)

	for i, step := range p.Steps {
		if ctx.Err() != nil {
			p.skipRemaining(report, i)
			return p.finish(ctx, report, errors.Wrap(errors.ErrCodeInterrupted,
				"run interrupted by operator", ctx.Err()), true)
		}

		slog.Info("step starting", "pipeline", p.Name, "step", step.Name, "mode", step.Mode.String())

		start := time.Now()
		err := step.Run(ctx)
		elapsed := time.Since(start)

		switch {
		case err == nil:
			report.record(step, StatusOK, nil, elapsed)
			metrics.StepsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
			slog.Info("step complete", "pipeline", p.Name, "step", step.Name,
				"duration", elapsed.Round(time.Millisecond))

		case errors.HasCode(err, errors.ErrCodeInterrupted) || ctx.Err() != nil:
			report.record(step, StatusFailed, err, elapsed)
			p.skipRemaining(report, i+1)
			return p.finish(ctx, report, errors.Wrap(errors.ErrCodeInterrupted,
				"run interrupted by operator", err), true)

		case step.Mode == BestEffort:
			report.record(step, StatusWarned, err, elapsed)
			metrics.StepsTotal.WithLabelValues(metrics.OutcomeError).Inc()
			slog.Warn("best-effort step failed, continuing",
				"pipeline", p.Name, "step", step.Name, "error", err)

		default:
			report.record(step, StatusFailed, err, elapsed)
			metrics.StepsTotal.WithLabelValues(metrics.OutcomeError).Inc()
			p.skipRemaining(report, i+1)
			return p.finish(ctx, report, err, false)
		}
	}

	return p.finish(ctx, report, nil, false)
}

// finish runs teardown and closes out the report. Teardown runs detached
// from the (possibly canceled) run context so cleanup still reaches the
// control plane after an interrupt.
func (p *Pipeline) finish(ctx context.Context, report *Report, runErr error, interrupted bool) (*Report, error) {
	if runErr != nil && p.StateDump != nil {
		dumpCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		slog.Info("current resource state", "pipeline", p.Name, "state", p.StateDump(dumpCtx))
		cancel()
	}

	if len(p.Teardown) > 0 {
		tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		defer cancel()

		for _, step := range p.Teardown {
			slog.Info("teardown step", "pipeline", p.Name, "step", step.Name)

			start := time.Now()
			if err := step.Run(tctx); err != nil {
				report.record(step, StatusWarned, err, time.Since(start))
				metrics.StepsTotal.WithLabelValues(metrics.OutcomeError).Inc()
				slog.Warn("teardown step failed",
					"pipeline", p.Name, "step", step.Name, "error", err)
				continue
			}
			report.record(step, StatusOK, nil, time.Since(start))
			metrics.StepsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
		}
	}

	report.close(interrupted, runErr)

	if interrupted {
		slog.Info("run canceled by operator", "pipeline", p.Name)
	}
	return report, runErr
}

func (p *Pipeline) skipRemaining(report *Report, from int) {
	for _, step := range p.Steps[from:] {
		report.record(step, StatusSkipped, nil, 0)
		metrics.StepsTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
	}
}
