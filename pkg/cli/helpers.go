/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/runbook/pkg/config"
	"github.com/NVIDIA/runbook/pkg/errors"
	"github.com/NVIDIA/runbook/pkg/k8s/client"
	"github.com/NVIDIA/runbook/pkg/k8s/watcher"
	"github.com/NVIDIA/runbook/pkg/kubectl"
	"github.com/NVIDIA/runbook/pkg/oci"
	"github.com/NVIDIA/runbook/pkg/serializer"
	"github.com/NVIDIA/runbook/pkg/wait"
)

func fileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "runbook definition: local path or oci://registry/repository:tag",
		Sources:  cli.EnvVars("RUNBOOK_FILE"),
		Required: true,
	}
}

func kubeconfigFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "kubeconfig",
		Usage:   "path to kubeconfig passed to every kubectl invocation",
		Sources: cli.EnvVars("KUBECONFIG"),
	}
}

func namespaceFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "namespace",
		Aliases: []string{"n"},
		Usage:   "Kubernetes namespace",
		Value:   "default",
	}
}

func formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "format",
		Usage: fmt.Sprintf("output format: %s", strings.Join(serializer.SupportedFormats(), ", ")),
		Value: string(serializer.FormatJSON),
	}
}

func outputFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "write the run report to this file instead of stdout",
	}
}

func watchFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "watch",
		Usage: "use a watch-stream wait strategy instead of fixed-interval polling",
	}
}

// resolveRunbook loads a runbook from a local path or an OCI registry.
func resolveRunbook(ctx context.Context, source string) (*config.Runbook, error) {
	ref, err := oci.ParseSource(source)
	if err != nil {
		return nil, err
	}

	path := ref.LocalPath
	if ref.IsOCI {
		res, err := oci.Pull(ctx, oci.PullOptions{Reference: ref})
		if err != nil {
			return nil, err
		}
		path = res.Path
	}
	return config.Load(path)
}

// newRunner builds the kubectl runner from runbook settings; the kubeconfig
// flag takes precedence over the runbook's value.
func newRunner(rb *config.Runbook, kubeconfig string) *kubectl.Runner {
	var opts []kubectl.Option
	if rb != nil {
		if rb.Kubectl.Binary != "" {
			opts = append(opts, kubectl.WithBinary(rb.Kubectl.Binary))
		}
		if rb.Kubectl.RateLimit > 0 {
			opts = append(opts, kubectl.WithRateLimit(rb.Kubectl.RateLimit, rb.Kubectl.RateBurst))
		}
		if kubeconfig == "" {
			kubeconfig = rb.Kubectl.Kubeconfig
		}
	}
	if kubeconfig != "" {
		opts = append(opts, kubectl.WithKubeconfig(kubeconfig))
	}
	return kubectl.NewRunner(opts...)
}

// newWaiter picks the wait strategy. With watch enabled, API watch events on
// the target wake waits early; waits on other resources still fall back to
// interval ticks. Watch setup failure degrades to polling rather than
// failing the run.
func newWaiter(watch bool, kubeconfig string, target watcher.Target) wait.Waiter {
	if !watch {
		return wait.Poller{}
	}

	var cs client.Interface
	var err error
	if kubeconfig == "" {
		cs, err = client.Get()
	} else {
		cs, err = client.Build(kubeconfig)
	}
	if err != nil {
		slog.Warn("watch strategy unavailable, falling back to polling", "error", err)
		return wait.Poller{}
	}
	return &watcher.EventWaiter{Client: cs, Target: target}
}

// parseLabels converts repeated key=value flags into a label map.
func parseLabels(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"label must be in key=value form", map[string]any{"label": kv})
		}
		out[k] = v
	}
	return out, nil
}
