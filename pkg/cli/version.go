/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/runbook/pkg/serializer"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Flags: []cli.Flag{
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := struct {
				Name    string `json:"name" yaml:"name"`
				Version string `json:"version" yaml:"version"`
				Commit  string `json:"commit" yaml:"commit"`
				Date    string `json:"date" yaml:"date"`
			}{
				Name:    name,
				Version: version,
				Commit:  commit,
				Date:    date,
			}

			w := serializer.NewWriter(serializer.Format(cmd.String("format")), os.Stdout)
			return w.Serialize(ctx, info)
		},
	}
}
