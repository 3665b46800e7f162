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

// 📦 NewPrepareCmd creates the prepare stage command
func NewPrepareCmd(o *opts.RootOpts) *cobra.Command {
	var destination string

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Unpack the game's stock assets",
		Long: `Prepare runs the game's asset unpacker on assets/packed.pak.
The unpacked tree is what build diffs modified configs against.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.Plan.Add("prepare", func(ctx context.Context) error {
				op, _, err := o.Operator(ctx)
				if err != nil {
					return err
				}
				if err := op.Prepare(ctx, destination); err != nil {
					return err
				}
				log.FromContext(ctx).Success("stock assets unpacked")
				return nil
			})
			return nil
		},
	}

	cmd.Flags().StringVarP(&destination, "destination", "d", "", "directory to unpack into (default <starbound>/_origAssets)")

	return cmd
}
