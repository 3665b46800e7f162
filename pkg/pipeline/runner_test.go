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

package pipeline

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sbmod/pkg/log"
)

func TestRunner(t *testing.T) {
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

	t.Run("runs_in_order", func(t *testing.T) {
		var ran []string
		r := NewRunner()
		for _, name := range []string{"prepare", "build", "pack"} {
			r.Add(name, func(ctx context.Context) error {
				ran = append(ran, name)
				return nil
			})
		}

		assert.Equal(t, []string{"prepare", "build", "pack"}, r.Steps())
		require.NoError(t, r.Run(ctx))
		assert.Equal(t, []string{"prepare", "build", "pack"}, ran)
	})

	t.Run("stops_at_first_failure", func(t *testing.T) {
		var ran []string
		boom := errors.New("boom")

		r := NewRunner()
		r.Add("clean", func(ctx context.Context) error {
			ran = append(ran, "clean")
			return nil
		})
		r.Add("build", func(ctx context.Context) error {
			ran = append(ran, "build")
			return boom
		})
		r.Add("pack", func(ctx context.Context) error {
			ran = append(ran, "pack")
			return nil
		})

		buf := &bytes.Buffer{}
		err := r.Run(log.NewContext(ctx, log.New(buf, zerolog.New(zerolog.NewTestWriter(t)))))
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "build: boom")
		assert.Equal(t, []string{"clean", "build"}, ran)
		assert.Contains(t, buf.String(), "build failed, skipping 1 remaining steps")
	})

	t.Run("cancelled_context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		called := false
		r := NewRunner()
		r.Add("clean", func(ctx context.Context) error {
			called = true
			return nil
		})

		err := r.Run(cctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("empty_plan", func(t *testing.T) {
		require.NoError(t, NewRunner().Run(ctx))
	})
}
