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
	"context"
	"strconv"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// EnvPrefix prefixes every environment variable sbmod reads
const EnvPrefix = "BUILDER_"

// 🌱 FromEnv reads BUILDER_ prefixed variables. BUILDER_BUILD_DIR maps to
// build_dir and so on; list values are comma separated.
func FromEnv(ctx context.Context) (Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return Config{}, configErr("env", errors.Errorf("loading env vars: %w", err))
	}

	logger := zerolog.Ctx(ctx)
	for _, key := range k.Keys() {
		logger.Debug().Str("key", key).Msg("setting from environment")
	}

	cfg := Config{
		Starbound:       k.String("starbound"),
		ModName:         k.String("modname"),
		BuildDir:        k.String("build_dir"),
		ModDir:          k.String("mod_dir"),
		SourceDir:       k.String("source_dir"),
		Ignore:          splitList(k.String("ignore")),
		ConfigSuffixes:  splitList(k.String("config_suffixes")),
		MissingOriginal: k.String("missing_original"),
	}

	if raw := k.String("jobs"); raw != "" {
		jobs, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, configErr("env", errors.Errorf("%sJOBS: %q is not a number", EnvPrefix, raw))
		}
		cfg.Jobs = jobs
	}

	return cfg, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// 🧩 Resolve layers the project file, the environment and flags, in increasing
// precedence, and validates the result. path may be empty, in which case dir
// is searched for a project file.
func Resolve(ctx context.Context, path, dir string, flags Config) (Config, error) {
	var cfg Config

	if path == "" {
		found, ok, err := Discover(dir)
		if err != nil {
			return Config{}, err
		}
		if ok {
			path = found
		}
	}
	if path != "" {
		file, err := Load(ctx, path)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.Merge(*file)
	}

	fromEnv, err := FromEnv(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.Merge(fromEnv).Merge(flags)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
