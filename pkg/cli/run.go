/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/runbook/pkg/k8s/watcher"
	"github.com/NVIDIA/runbook/pkg/scenario"
	"github.com/NVIDIA/runbook/pkg/serializer"
	"github.com/NVIDIA/runbook/pkg/server"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:                  "run",
		EnableShellCompletion: true,
		Usage:                 "Execute a runbook end to end",
		Description: `Execute the full lifecycle a runbook declares: cleanup of prior
runs, manifest apply, condition waits, workload trigger, log follow,
verification, and teardown.

The runbook definition can be a local YAML file or an OCI artifact
(oci://registry/repository:tag).

# Examples

Run a cronjob lifecycle:
  runbook run -f examples/runbook-cronjob.yaml

Run from an OCI registry with the watch-stream wait strategy:
  runbook run -f oci://ghcr.io/nvidia/runbooks:v1 --watch

Keep created resources for debugging and save the report:
  runbook run -f examples/runbook-volume.yaml --keep -o report.json`,
		Flags: []cli.Flag{
			fileFlag(),
			kubeconfigFlag(),
			formatFlag(),
			outputFlag(),
			watchFlag(),
			&cli.BoolFlag{
				Name:  "keep",
				Usage: "leave created resources in place after the run",
			},
			&cli.BoolFlag{
				Name:  "serve",
				Usage: "expose /health, /ready, /status, and /metrics while the run is in progress",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rb, err := resolveRunbook(ctx, cmd.String("file"))
			if err != nil {
				return err
			}
			if cmd.Bool("keep") {
				rb.Cleanup.Keep = true
			}

			runner := newRunner(rb, cmd.String("kubeconfig"))
			if _, err := runner.Probe(ctx); err != nil {
				return err
			}

			waiter := newWaiter(cmd.Bool("watch"), cmd.String("kubeconfig"), watcher.Target{
				Kind:      "jobs",
				Namespace: rb.Namespace,
				Name:      rb.Trigger.Name,
			})

			p, err := scenario.Build(scenario.Options{
				Runbook: rb,
				Runner:  runner,
				Waiter:  waiter,
				Out:     os.Stdout,
			})
			if err != nil {
				return err
			}

			var srv *server.Server
			if cmd.Bool("serve") {
				cfg := server.DefaultConfig()
				cfg.Version = version
				srv = server.NewServer(cfg)

				srvCtx, srvCancel := context.WithCancel(context.WithoutCancel(ctx))
				defer srvCancel()
				go func() {
					if err := srv.Start(srvCtx); err != nil {
						slog.Error("operational endpoint failed", "error", err)
					}
				}()
			}

			report, runErr := p.Run(ctx)
			if srv != nil {
				srv.SetStatus(report)
			}

			w := serializer.NewFileWriterOrStdout(serializer.Format(cmd.String("format")), cmd.String("output"))
			defer func() { _ = w.Close() }()
			if err := w.Serialize(ctx, report); err != nil {
				return err
			}

			fmt.Fprint(os.Stderr, report.Summary())
			return runErr
		},
	}
}
