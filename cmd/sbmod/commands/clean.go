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

// 🧹 NewCleanCmd creates the clean stage command
func NewCleanCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the build directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.Plan.Add("clean", func(ctx context.Context) error {
				op, _, err := o.Operator(ctx)
				if err != nil {
					return err
				}
				if err := op.Clean(ctx); err != nil {
					return err
				}
				log.FromContext(ctx).Success("build directory removed")
				return nil
			})
			return nil
		},
	}

	return cmd
}
