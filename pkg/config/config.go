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

package config

import (
	"fmt"
	"path/filepath"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sbmod/pkg/asset"
	"github.com/walteh/sbmod/pkg/pipeline"
	"github.com/walteh/sbmod/pkg/stage"
	"github.com/walteh/sbmod/pkg/toolchain"
)

// ❌ ConfigurationError reports settings that cannot drive a pipeline
type ConfigurationError struct {
	Source string // file, env, flags or validation
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration (%s): %v", e.Source, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configErr(source string, err error) error {
	return &ConfigurationError{Source: source, Err: err}
}

// 📚 Config is the complete set of user settings. Zero values mean unset.
type Config struct {
	Starbound       string   `json:"starbound" yaml:"starbound" toml:"starbound"`
	ModName         string   `json:"modname" yaml:"modname" toml:"modname"`
	BuildDir        string   `json:"build_dir" yaml:"build_dir" toml:"build_dir"`
	ModDir          string   `json:"mod_dir" yaml:"mod_dir" toml:"mod_dir"`
	SourceDir       string   `json:"source_dir" yaml:"source_dir" toml:"source_dir"`
	Ignore          []string `json:"ignore" yaml:"ignore" toml:"ignore"`
	ConfigSuffixes  []string `json:"config_suffixes" yaml:"config_suffixes" toml:"config_suffixes"`
	MissingOriginal string   `json:"missing_original" yaml:"missing_original" toml:"missing_original"`
	Jobs            int      `json:"jobs" yaml:"jobs" toml:"jobs"`
}

// 🔀 Merge returns c with every set field of over laid on top
func (c Config) Merge(over Config) Config {
	if over.Starbound != "" {
		c.Starbound = over.Starbound
	}
	if over.ModName != "" {
		c.ModName = over.ModName
	}
	if over.BuildDir != "" {
		c.BuildDir = over.BuildDir
	}
	if over.ModDir != "" {
		c.ModDir = over.ModDir
	}
	if over.SourceDir != "" {
		c.SourceDir = over.SourceDir
	}
	if over.Ignore != nil {
		c.Ignore = over.Ignore
	}
	if over.ConfigSuffixes != nil {
		c.ConfigSuffixes = over.ConfigSuffixes
	}
	if over.MissingOriginal != "" {
		c.MissingOriginal = over.MissingOriginal
	}
	if over.Jobs != 0 {
		c.Jobs = over.Jobs
	}
	return c
}

// 🔍 Validate checks the configuration, cleans paths and fills defaults
func (c *Config) Validate() error {
	if c.Starbound == "" {
		return configErr("validation", errors.Errorf("starbound directory is required (--starbound or BUILDER_STARBOUND)"))
	}
	if c.Jobs < 0 {
		return configErr("validation", errors.Errorf("jobs must not be negative, got %d", c.Jobs))
	}
	if _, err := stage.ParseMissingOriginalPolicy(c.MissingOriginal); err != nil {
		return configErr("validation", err)
	}
	if err := asset.ValidatePatterns(c.Ignore); err != nil {
		return configErr("validation", err)
	}
	for _, s := range c.ConfigSuffixes {
		if s == "" {
			return configErr("validation", errors.Errorf("config suffixes must not be empty"))
		}
	}

	// Set defaults
	if c.ModName == "" {
		c.ModName = pipeline.DefaultModName
	}
	if c.BuildDir == "" {
		c.BuildDir = pipeline.DefaultBuildDir
	}
	if c.ModDir == "" {
		c.ModDir = pipeline.DefaultModAssets
	}
	if c.MissingOriginal == "" {
		c.MissingOriginal = string(stage.MissingOriginalFail)
	}

	// Clean up paths
	c.Starbound = filepath.Clean(c.Starbound)
	c.BuildDir = filepath.Clean(c.BuildDir)
	c.ModDir = filepath.Clean(c.ModDir)
	if c.SourceDir != "" {
		c.SourceDir = filepath.Clean(c.SourceDir)
	}

	return nil
}

// 🗺️ Context builds the pipeline context for the given platform. An
// unsupported platform is a configuration error.
func (c Config) Context(platform toolchain.Platform) (pipeline.Context, error) {
	if err := c.Validate(); err != nil {
		return pipeline.Context{}, err
	}
	pc, err := pipeline.NewContext(c.Starbound, c.ModName, c.BuildDir, c.ModDir, platform)
	if err != nil {
		return pipeline.Context{}, configErr("validation", err)
	}
	return pc, nil
}

// 🏗️ Stager builds the stager the configuration describes
func (c Config) Stager() (*stage.Stager, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	policy, err := stage.ParseMissingOriginalPolicy(c.MissingOriginal)
	if err != nil {
		return nil, configErr("validation", err)
	}
	return &stage.Stager{
		Classifier:      asset.NewClassifier(c.ConfigSuffixes...),
		Ignore:          c.Ignore,
		MissingOriginal: policy,
		Jobs:            c.Jobs,
	}, nil
}
