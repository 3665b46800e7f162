// Copyright 2025 walteh LLC
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

package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/walteh/sbmod/cmd/sbmod/opts"
	"github.com/walteh/sbmod/pkg/log"
)

// 🔨 NewBuildCmd creates the build stage command
func NewBuildCmd(o *opts.RootOpts) *cobra.Command {
	var source, mod string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Stage the mod into the build directory",
		Long: `Build walks the mod directory and fills the build directory.
It will:
1. Write a JSON patch for every .config file, diffed against the unpacked original
2. Copy every other file as is`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.Plan.Add("build", func(ctx context.Context) error {
				op, cfg, err := o.Operator(ctx)
				if err != nil {
					return err
				}

				src := source
				if src == "" {
					src = cfg.SourceDir
				}

				res, err := op.Build(ctx, src, mod)
				if err != nil {
					return err
				}
				log.FromContext(ctx).Successf("%d patches, %d copies, %d unchanged", res.Patches, res.Copies, res.Skipped)
				return nil
			})
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "unpacked original assets (default <starbound>/_origAssets)")
	cmd.Flags().StringVarP(&mod, "mod", "m", "", "modified assets (default _modAssets/)")

	return cmd
}
