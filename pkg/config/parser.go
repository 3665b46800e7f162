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
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ProjectFileName is the base name Discover looks for
const ProjectFileName = "sbmod"

// 🔌 Parser is the interface for project file parsers
type Parser interface {
	// 📝 Parse parses the config from bytes; name labels diagnostics
	Parse(ctx context.Context, name string, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool

	// Extensions lists the file extensions the parser claims, in discovery order
	Extensions() []string
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

func hasExtension(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// 🎯 Load reads a project file. The format is chosen by extension; the result
// is not validated, since env and flags still get layered on top.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading project file")

	p := GetParser(path)
	if p == nil {
		return nil, configErr("file", errors.Errorf("no parser found for file: %s", path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configErr("file", errors.Errorf("reading config file: %w", err))
	}

	cfg, err := p.Parse(ctx, path, data)
	if err != nil {
		return nil, configErr("file", err)
	}
	return cfg, nil
}

// 🔍 Discover returns the first sbmod project file present in dir
func Discover(dir string) (string, bool, error) {
	for _, p := range parsers {
		for _, ext := range p.Extensions() {
			path := filepath.Join(dir, ProjectFileName+ext)
			info, err := os.Stat(path)
			if err == nil && info.Mode().IsRegular() {
				return path, true, nil
			}
			if err != nil && !os.IsNotExist(err) {
				return "", false, configErr("file", errors.Errorf("checking %s: %w", path, err))
			}
		}
	}
	return "", false, nil
}
