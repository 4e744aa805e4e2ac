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
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/NVIDIA/runbook/pkg/errors"
	"github.com/NVIDIA/runbook/pkg/metrics"
	"github.com/NVIDIA/runbook/pkg/version"
)

const (
	defaultBinary = "kubectl"
	probeTimeout  = "5s"

	// Client-side pacing so tight poll loops cannot hammer the API server.
	defaultRateLimit = 10 // req/s
	defaultRateBurst = 20
)

// minServerVersion is the oldest control plane the runner is validated
// against. Older servers only produce a warning, not a failure.
var minServerVersion = version.NewVersion(1, 27, 0)

// Runner invokes kubectl subprocesses.
type Runner struct {
	binary     string
	kubeconfig string
	limiter    *rate.Limiter
}

// Option configures a Runner.
type Option func(*Runner)

// WithBinary overrides the kubectl binary path.
func WithBinary(path string) Option {
	return func(r *Runner) {
		if path != "" {
			r.binary = path
		}
	}
}

// WithKubeconfig sets an explicit kubeconfig passed to every invocation.
func WithKubeconfig(path string) Option {
	return func(r *Runner) {
		r.kubeconfig = path
	}
}

// WithRateLimit overrides the client-side invocation rate limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(r *Runner) {
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewRunner creates a Runner with defaults: `kubectl` from PATH, automatic
// kubeconfig discovery, and a 10 req/s client-side limiter.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		binary:  defaultBinary,
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultRateBurst),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes kubectl with the given arguments and returns the captured
// Result. A non-zero exit returns both the Result and a structured error:
// COMMAND_FAILED in general, NOT_FOUND when the failure is a missing
// resource, UNAVAILABLE when the control plane is unreachable. Callers that
// treat absence as success check for NOT_FOUND explicitly.
func (r *Runner) Run(ctx context.Context, args ...string) (*Result, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInterrupted, "rate limiter wait canceled", err)
	}

	full := r.fullArgs(args)
	verb := verbOf(args)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, full...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	res := &Result{
		Args:     full,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	metrics.CommandDuration.WithLabelValues(verb).Observe(duration.Seconds())

	if err == nil {
		metrics.CommandsTotal.WithLabelValues(verb, metrics.OutcomeOK).Inc()
		slog.Debug("command executed",
			"verb", verb,
			"args", strings.Join(full, " "),
			"duration", duration.Round(time.Millisecond),
		)
		return res, nil
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else {
		res.ExitCode = -1
	}

	slog.Debug("command failed",
		"verb", verb,
		"args", strings.Join(full, " "),
		"exit_code", res.ExitCode,
		"stderr", res.Stderr,
	)

	switch {
	case isNotFound(res.Stderr):
		metrics.CommandsTotal.WithLabelValues(verb, metrics.OutcomeNotFound).Inc()
		return res, errors.WrapWithContext(errors.ErrCodeNotFound,
			"resource not found", err, res.errorContext())
	case isUnreachable(res.Stderr):
		metrics.CommandsTotal.WithLabelValues(verb, metrics.OutcomeError).Inc()
		return res, errors.WrapWithContext(errors.ErrCodeUnavailable,
			"control plane unreachable", err, res.errorContext())
	case ctx.Err() != nil:
		metrics.CommandsTotal.WithLabelValues(verb, metrics.OutcomeError).Inc()
		return res, errors.Wrap(errors.ErrCodeInterrupted, "command canceled", ctx.Err())
	default:
		metrics.CommandsTotal.WithLabelValues(verb, metrics.OutcomeError).Inc()
		return res, errors.WrapWithContext(errors.ErrCodeCommandFailed,
			fmt.Sprintf("kubectl %s failed", verb), err, res.errorContext())
	}
}

// Probe verifies that the kubectl binary exists and the control plane
// answers a short version query. It returns the server version when
// reported. Any failure here is fatal to the whole run.
func (r *Runner) Probe(ctx context.Context) (version.Version, error) {
	if _, err := exec.LookPath(r.binary); err != nil {
		return version.Version{}, errors.Wrap(errors.ErrCodeUnavailable,
			fmt.Sprintf("%s not found in PATH", r.binary), err)
	}

	res, err := r.Run(ctx, "version", "--request-timeout="+probeTimeout, "-o", "json")
	if err != nil {
		return version.Version{}, errors.Wrap(errors.ErrCodeUnavailable,
			"control plane connectivity probe failed", err)
	}

	var payload struct {
		ServerVersion struct {
			GitVersion string `json:"gitVersion"`
		} `json:"serverVersion"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &payload); err != nil {
		return version.Version{}, errors.Wrap(errors.ErrCodeInternal,
			"failed to parse version output", err)
	}

	srv, err := version.ParseVersion(payload.ServerVersion.GitVersion)
	if err != nil {
		// Some distributions report vendor-specific version strings;
		// connectivity is confirmed either way.
		slog.Warn("could not parse server version",
			"git_version", payload.ServerVersion.GitVersion, "error", err)
		return version.Version{}, nil
	}

	if srv.Compare(minServerVersion) < 0 {
		slog.Warn("server version is older than the validated minimum",
			"server", srv.String(), "minimum", minServerVersion.String())
	}

	return srv, nil
}

func (r *Runner) fullArgs(args []string) []string {
	if r.kubeconfig == "" {
		return args
	}
	return append([]string{"--kubeconfig", r.kubeconfig}, args...)
}

// verbOf extracts the kubectl verb for logging and metrics labels.
func verbOf(args []string) string {
	if len(args) == 0 {
		return "unknown"
	}
	return args[0]
}

func isNotFound(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "notfound") || strings.Contains(s, "not found")
}

func isUnreachable(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "unable to connect to the server") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "no such host")
}
