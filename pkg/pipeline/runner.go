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
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sbmod/pkg/log"
)

// 🪜 Step is one named unit of a plan
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// 🏃 Runner executes steps in the order they were added
type Runner struct {
	steps []Step
}

// 🏗️ NewRunner creates an empty runner
func NewRunner() *Runner {
	return &Runner{}
}

// Add appends a step to the plan
func (r *Runner) Add(name string, run func(ctx context.Context) error) {
	r.steps = append(r.steps, Step{Name: name, Run: run})
}

// Steps returns the planned step names in order
func (r *Runner) Steps() []string {
	names := make([]string, len(r.steps))
	for i, s := range r.steps {
		names[i] = s.Name
	}
	return names
}

// 🏃 Run executes every step, stopping at the first failure. Steps after a
// failure, or after the context is cancelled, never start.
func (r *Runner) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	for i, step := range r.steps {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("%s cancelled: %w", step.Name, err)
		}

		logger.Debug().Int("step", i+1).Int("of", len(r.steps)).Str("name", step.Name).Msg("running step")
		if err := step.Run(ctx); err != nil {
			log.FromContext(ctx).Errorf("%s failed, skipping %d remaining steps", step.Name, len(r.steps)-i-1)
			return errors.Errorf("%s: %w", step.Name, err)
		}
	}
	return nil
}
