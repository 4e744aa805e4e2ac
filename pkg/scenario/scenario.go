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
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/NVIDIA/runbook/pkg/config"
	"github.com/NVIDIA/runbook/pkg/errors"
	"github.com/NVIDIA/runbook/pkg/follow"
	"github.com/NVIDIA/runbook/pkg/kubectl"
	"github.com/NVIDIA/runbook/pkg/pipeline"
	"github.com/NVIDIA/runbook/pkg/wait"
)

// RunIDLabel tags every resource a run creates so later steps and cleanup
// can find it.
const RunIDLabel = "runbook.nvidia.com/run-id"

// Options wires a runbook to its execution dependencies.
type Options struct {
	Runbook *config.Runbook
	Runner  *kubectl.Runner
	// Waiter paces condition waits; defaults to the fixed-interval poller.
	Waiter wait.Waiter
	// Out receives streamed workload output; defaults to stdout.
	Out io.Writer
}

func (o *Options) defaults() {
	if o.Waiter == nil {
		o.Waiter = wait.Poller{}
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
}

// Build assembles the lifecycle pipeline declared by the runbook.
func Build(opts Options) (*pipeline.Pipeline, error) {
	opts.defaults()

	switch opts.Runbook.Kind {
	case config.KindCronJob:
		return buildCronJob(opts), nil
	case config.KindVolume:
		return buildVolume(opts), nil
	default:
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"unknown runbook kind", map[string]any{"kind": opts.Runbook.Kind})
	}
}

// newRunID returns a short unique tag for this run's traceability label.
func newRunID() string {
	return uuid.NewString()[:8]
}

func (o *Options) follower() *follow.Follower {
	return &follow.Follower{
		Runner:   o.Runner,
		Waiter:   o.Waiter,
		Attempts: o.Runbook.Follow.Attempts,
		Interval: o.Runbook.Follow.Interval.Std(),
	}
}

// stateDump renders the current state of the run's resources for the
// operator, used when a pipeline exits on failure or interrupt.
func stateDump(r *kubectl.Runner, refs ...kubectl.ResourceRef) func(ctx context.Context) string {
	return func(ctx context.Context) string {
		var b strings.Builder
		for _, ref := range refs {
			b.WriteString(r.Describe(ctx, ref))
			if !strings.HasSuffix(b.String(), "\n") {
				b.WriteString("\n")
			}
		}
		return b.String()
	}
}
