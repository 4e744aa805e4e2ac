/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/runbook/pkg/follow"
)

func followCmd() *cli.Command {
	return &cli.Command{
		Name:                  "follow",
		EnableShellCompletion: true,
		Usage:                 "Stream the output of a job's pod",
		Description: `Resolve the pod a job spawned and stream its output to stdout until
the pod completes or the command is interrupted. Resolution tolerates
the scheduling race with a bounded attempt budget; a pod that never
appears fails the command instead of hanging it.

# Examples

  runbook follow --job echo-job-manual
  runbook follow --job echo-job-manual --attempts 24 --interval 10s`,
		Flags: []cli.Flag{
			kubeconfigFlag(),
			namespaceFlag(),
			&cli.StringFlag{
				Name:     "job",
				Usage:    "job whose pod to follow",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "attempts",
				Usage: "pod resolution attempt budget",
				Value: follow.DefaultAttempts,
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "pause between resolution attempts",
				Value: follow.DefaultInterval,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f := &follow.Follower{
				Runner:   newRunner(nil, cmd.String("kubeconfig")),
				Attempts: cmd.Int("attempts"),
				Interval: cmd.Duration("interval"),
			}
			return f.Follow(ctx, cmd.String("namespace"), cmd.String("job"), os.Stdout)
		},
	}
}
