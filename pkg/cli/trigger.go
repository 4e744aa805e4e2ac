/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/runbook/pkg/kubectl"
	"github.com/NVIDIA/runbook/pkg/scenario"
)

func triggerCmd() *cli.Command {
	return &cli.Command{
		Name:                  "trigger",
		EnableShellCompletion: true,
		Usage:                 "Create a job from a cronjob's template",
		Description: `Instantiate a one-off job from a cronjob's template, the manual
equivalent of a scheduled run. The created job is tagged with a unique
run-id label plus any labels given on the command line so later
commands and cleanup can find it.

# Examples

  runbook trigger --cronjob echo-job
  runbook trigger --cronjob echo-job --name echo-job-manual --label app=backup`,
		Flags: []cli.Flag{
			kubeconfigFlag(),
			namespaceFlag(),
			&cli.StringFlag{
				Name:     "cronjob",
				Usage:    "source cronjob name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "name for the created job (default: <cronjob>-manual)",
			},
			&cli.StringSliceFlag{
				Name:  "label",
				Usage: "label for the created job (format: key=value, can be repeated)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			labels, err := parseLabels(cmd.StringSlice("label"))
			if err != nil {
				return err
			}
			if labels == nil {
				labels = map[string]string{}
			}
			labels[scenario.RunIDLabel] = uuid.NewString()[:8]

			jobName := cmd.String("name")
			if jobName == "" {
				jobName = cmd.String("cronjob") + "-manual"
			}

			runner := newRunner(nil, cmd.String("kubeconfig"))
			cronRef := kubectl.ResourceRef{
				Kind:      "cronjob",
				Name:      cmd.String("cronjob"),
				Namespace: cmd.String("namespace"),
			}

			jobRef, err := runner.CreateJobFrom(ctx, cmd.String("namespace"), jobName, cronRef)
			if err != nil {
				return err
			}
			if err := runner.Label(ctx, jobRef, labels); err != nil {
				return err
			}

			fmt.Printf("%s created\n", jobRef.String())
			return nil
		},
	}
}
