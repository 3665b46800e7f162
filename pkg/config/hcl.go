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
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return hasExtension(filename, p.Extensions()...)
}

func (p *HCLParser) Extensions() []string {
	return []string{".hcl"}
}

// 📝 Parse parses the config from HCL. Expressions may read environment
// variables through the env object, e.g. starbound = "${env.HOME}/starbound".
func (p *HCLParser) Parse(ctx context.Context, name string, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": environment(),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		Starbound       string   `hcl:"starbound,optional"`
		ModName         string   `hcl:"modname,optional"`
		BuildDir        string   `hcl:"build_dir,optional"`
		ModDir          string   `hcl:"mod_dir,optional"`
		SourceDir       string   `hcl:"source_dir,optional"`
		Ignore          []string `hcl:"ignore,optional"`
		ConfigSuffixes  []string `hcl:"config_suffixes,optional"`
		MissingOriginal string   `hcl:"missing_original,optional"`
		Jobs            int      `hcl:"jobs,optional"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	return &Config{
		Starbound:       hclCfg.Starbound,
		ModName:         hclCfg.ModName,
		BuildDir:        hclCfg.BuildDir,
		ModDir:          hclCfg.ModDir,
		SourceDir:       hclCfg.SourceDir,
		Ignore:          hclCfg.Ignore,
		ConfigSuffixes:  hclCfg.ConfigSuffixes,
		MissingOriginal: hclCfg.MissingOriginal,
		Jobs:            hclCfg.Jobs,
	}, nil
}

func environment() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	return cty.ObjectVal(vars)
}
