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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

var fullConfig = Config{
	Starbound:       "/games/starbound",
	ModName:         "rebalance",
	BuildDir:        "build",
	ModDir:          "mod",
	SourceDir:       "unpacked",
	Ignore:          []string{"**/*.bak", ".git"},
	ConfigSuffixes:  []string{".config", ".object"},
	MissingOriginal: "copy",
	Jobs:            4,
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name          string
		file          string
		content       string
		want          *Config
		expectedError string
	}{
		{
			name: "yaml",
			file: "sbmod.yaml",
			content: `
starbound: /games/starbound
modname: rebalance
build_dir: build
mod_dir: mod
source_dir: unpacked
ignore:
  - "**/*.bak"
  - .git
config_suffixes: [".config", ".object"]
missing_original: copy
jobs: 4
`,
			want: &fullConfig,
		},
		{
			name: "yml",
			file: "sbmod.yml",
			content: `
starbound: /games/starbound
`,
			want: &Config{Starbound: "/games/starbound"},
		},
		{
			name: "toml",
			file: "sbmod.toml",
			content: `
starbound = "/games/starbound"
modname = "rebalance"
build_dir = "build"
mod_dir = "mod"
source_dir = "unpacked"
ignore = ["**/*.bak", ".git"]
config_suffixes = [".config", ".object"]
missing_original = "copy"
jobs = 4
`,
			want: &fullConfig,
		},
		{
			name: "hcl",
			file: "sbmod.hcl",
			content: `
starbound        = "/games/starbound"
modname          = "rebalance"
build_dir        = "build"
mod_dir          = "mod"
source_dir       = "unpacked"
ignore           = ["**/*.bak", ".git"]
config_suffixes  = [".config", ".object"]
missing_original = "copy"
jobs             = 4
`,
			want: &fullConfig,
		},
		{
			name: "json",
			file: "sbmod.json",
			content: `{
	"starbound": "/games/starbound",
	"modname": "rebalance",
	"build_dir": "build",
	"mod_dir": "mod",
	"source_dir": "unpacked",
	"ignore": ["**/*.bak", ".git"],
	"config_suffixes": [".config", ".object"],
	"missing_original": "copy",
	"jobs": 4
}`,
			want: &fullConfig,
		},
		{
			name:    "empty_yaml",
			file:    "sbmod.yaml",
			content: "",
			want:    &Config{},
		},
		{
			name:          "yaml_unknown_field",
			file:          "sbmod.yaml",
			content:       "starbound: sb\nprovider: github\n",
			expectedError: "parsing YAML",
		},
		{
			name:          "toml_unknown_field",
			file:          "sbmod.toml",
			content:       "starbound = \"sb\"\nprovider = \"github\"\n",
			expectedError: "parsing TOML",
		},
		{
			name:          "hcl_unknown_field",
			file:          "sbmod.hcl",
			content:       "starbound = \"sb\"\nprovider = \"github\"\n",
			expectedError: "decoding HCL",
		},
		{
			name:          "json_unknown_field",
			file:          "sbmod.json",
			content:       `{"starbound": "sb", "provider": "github"}`,
			expectedError: "parsing JSON",
		},
		{
			name:          "hcl_syntax_error",
			file:          "sbmod.hcl",
			content:       "starbound = ",
			expectedError: "parsing HCL",
		},
		{
			name:          "unsupported_extension",
			file:          "sbmod.ini",
			content:       "starbound=sb",
			expectedError: "no parser found for file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			cfg, err := Load(testContext(t), path)
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)

				var cfgErr *ConfigurationError
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, "file", cfgErr.Source)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestHCLEnvironmentVariables(t *testing.T) {
	t.Setenv("SBMOD_TEST_GAMES", "/opt/games")

	path := filepath.Join(t.TempDir(), "sbmod.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`starbound = "${env.SBMOD_TEST_GAMES}/starbound"`), 0644))

	cfg, err := Load(testContext(t), path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/games/starbound", cfg.Starbound)
}

func TestDiscover(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		_, ok, err := Discover(t.TempDir())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	for _, name := range []string{"sbmod.yaml", "sbmod.yml", "sbmod.toml", "sbmod.hcl", "sbmod.json"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))

			path, ok, err := Discover(dir)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, filepath.Join(dir, name), path)
		})
	}

	t.Run("directory_is_not_a_project_file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sbmod.yaml"), 0755))

		_, ok, err := Discover(dir)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
