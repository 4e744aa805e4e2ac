/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/runbook/pkg/config"
	"github.com/NVIDIA/runbook/pkg/errors"
	"github.com/NVIDIA/runbook/pkg/kubectl"
)

func cleanupCmd() *cli.Command {
	return &cli.Command{
		Name:                  "cleanup",
		EnableShellCompletion: true,
		Usage:                 "Remove resources a runbook created",
		Description: `Delete the resources a runbook's lifecycle creates. Absence is
success: a prior run may already have cleaned up, or never created the
resource at all. Alternatively delete by label selector, which removes
every tagged resource a run left behind.

# Examples

  runbook cleanup -f examples/runbook-cronjob.yaml
  runbook cleanup --kind job --selector runbook.nvidia.com/run-id=4fa2b1c8 -n batch-jobs`,
		Flags: []cli.Flag{
			kubeconfigFlag(),
			namespaceFlag(),
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "runbook whose resources to remove",
			},
			&cli.StringFlag{
				Name:  "kind",
				Usage: "resource kind for selector-based cleanup",
			},
			&cli.StringFlag{
				Name:  "selector",
				Usage: "label selector for selector-based cleanup",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			kubeconfig := cmd.String("kubeconfig")

			if source := cmd.String("file"); source != "" {
				rb, err := resolveRunbook(ctx, source)
				if err != nil {
					return err
				}
				return cleanupRunbook(ctx, newRunner(rb, kubeconfig), rb)
			}

			if cmd.String("kind") == "" || cmd.String("selector") == "" {
				return errors.New(errors.ErrCodeInvalidRequest,
					"either --file or both --kind and --selector are required")
			}
			runner := newRunner(nil, kubeconfig)
			return runner.DeleteBySelector(ctx,
				cmd.String("kind"), cmd.String("namespace"), cmd.String("selector"))
		},
	}
}

// cleanupRunbook removes every resource the runbook's lifecycle creates.
func cleanupRunbook(ctx context.Context, runner *kubectl.Runner, rb *config.Runbook) error {
	var refs []kubectl.ResourceRef
	switch rb.Kind {
	case config.KindCronJob:
		refs = []kubectl.ResourceRef{
			{Kind: "job", Name: rb.Trigger.Name, Namespace: rb.Namespace},
			{Kind: "cronjob", Name: rb.Resource.Name, Namespace: rb.Namespace},
		}
	case config.KindVolume:
		refs = []kubectl.ResourceRef{
			{Kind: "pod", Name: rb.Volume.Pod, Namespace: rb.Namespace},
			{Kind: "pvc", Name: rb.Volume.Claim, Namespace: rb.Namespace},
		}
	}

	for _, ref := range refs {
		if err := runner.Delete(ctx, ref); err != nil {
			return err
		}
	}
	return nil
}
