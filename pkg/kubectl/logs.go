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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/NVIDIA/runbook/pkg/errors"
)

// StreamLogs follows a pod's output line by line until the stream ends
// naturally (the pod completed) or ctx is canceled. An optional prefix tags
// each line.
func (r *Runner) StreamLogs(ctx context.Context, pod ResourceRef, w io.Writer, prefix string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeInterrupted, "rate limiter wait canceled", err)
	}

	args := append([]string{"logs", "-f", pod.Name}, pod.namespaceArgs()...)
	full := r.fullArgs(args)

	cmd := exec.CommandContext(ctx, r.binary, full...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to open log pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrap(errors.ErrCodeCommandFailed, "failed to start log stream", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if prefix != "" {
			fmt.Fprintf(w, "%s %s\n", prefix, scanner.Text())
		} else {
			fmt.Fprintln(w, scanner.Text())
		}
	}

	waitErr := cmd.Wait()
	switch {
	case ctx.Err() != nil:
		return errors.Wrap(errors.ErrCodeInterrupted, "log stream canceled", ctx.Err())
	case waitErr != nil:
		return errors.WrapWithContext(errors.ErrCodeCommandFailed,
			"log stream ended with error", waitErr,
			map[string]any{"pod": pod.String(), "stderr": stderr.String()})
	default:
		return scanner.Err()
	}
}

// FetchLogs retrieves a pod's final output in one shot, the fallback when
// the pod completed before streaming could start.
func (r *Runner) FetchLogs(ctx context.Context, pod ResourceRef) (string, error) {
	args := append([]string{"logs", pod.Name}, pod.namespaceArgs()...)
	res, err := r.Run(ctx, args...)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// ExecInPod runs a command inside a pod, used to read and write workload
// data for persistence verification.
func (r *Runner) ExecInPod(ctx context.Context, pod ResourceRef, command ...string) (*Result, error) {
	args := append([]string{"exec", pod.Name}, pod.namespaceArgs()...)
	args = append(args, "--")
	args = append(args, command...)
	return r.Run(ctx, args...)
}
