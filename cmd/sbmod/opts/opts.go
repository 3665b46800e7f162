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

package opts

import (
	"context"
	"sync"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sbmod/pkg/config"
	"github.com/walteh/sbmod/pkg/pipeline"
	"github.com/walteh/sbmod/pkg/toolchain"
)

// 🎯 RootOpts is shared by every command of one invocation. Flags from all
// chained stages accumulate here before anything runs.
type RootOpts struct {
	// Flags holds the global flags that were set explicitly
	Flags config.Config
	// ConfigFile is the project file given with --config
	ConfigFile string
	// WorkDir is searched for a project file when ConfigFile is empty
	WorkDir string
	Debug   bool
	// Plan collects one step per stage, in command line order
	Plan *pipeline.Runner

	// NewToolchain builds the toolchain for the resolved context; tests swap it
	NewToolchain func(pc pipeline.Context) (toolchain.Toolchain, error)
	// Platform is the platform tools are looked up for
	Platform toolchain.Platform

	once     sync.Once
	config   config.Config
	operator pipeline.Operator
	err      error
}

// 🏭 New creates options for an invocation started in workDir
func New(workDir string) *RootOpts {
	return &RootOpts{
		WorkDir:      workDir,
		Plan:         pipeline.NewRunner(),
		NewToolchain: execToolchain,
		Platform:     toolchain.Current(),
	}
}

func execToolchain(pc pipeline.Context) (toolchain.Toolchain, error) {
	exes, err := pc.Executables()
	if err != nil {
		return nil, err
	}
	return toolchain.NewExec(exes), nil
}

// 🔧 Operator resolves the configuration and builds the operator. It does the
// work once; later calls return the same operator or error.
func (o *RootOpts) Operator(ctx context.Context) (pipeline.Operator, config.Config, error) {
	o.once.Do(func() {
		o.config, o.operator, o.err = o.resolve(ctx)
	})
	return o.operator, o.config, o.err
}

func (o *RootOpts) resolve(ctx context.Context) (config.Config, pipeline.Operator, error) {
	cfg, err := config.Resolve(ctx, o.ConfigFile, o.WorkDir, o.Flags)
	if err != nil {
		return config.Config{}, nil, err
	}

	pc, err := cfg.Context(o.Platform)
	if err != nil {
		return config.Config{}, nil, err
	}

	stager, err := cfg.Stager()
	if err != nil {
		return config.Config{}, nil, err
	}

	tc, err := o.NewToolchain(pc)
	if err != nil {
		return config.Config{}, nil, errors.Errorf("creating toolchain: %w", err)
	}

	op, err := pipeline.New(pipeline.Options{
		Context:   pc,
		Toolchain: tc,
		Stager:    stager,
	})
	if err != nil {
		return config.Config{}, nil, errors.Errorf("creating operator: %w", err)
	}
	return cfg, op, nil
}
