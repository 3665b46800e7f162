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
	"path/filepath"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sbmod/pkg/toolchain"
)

const (
	DefaultModName   = "modcontent"
	DefaultBuildDir  = "out"
	DefaultModAssets = "_modAssets"
)

// 🗺️ Context holds the resolved locations every stage works with. It is built
// once per invocation and never changed afterwards.
type Context struct {
	// Starbound is the game installation directory
	Starbound string
	// ModName names the packed output, without the .pak extension
	ModName string
	// BuildDir receives the staged build tree
	BuildDir string
	// ModAssets is the default modified asset tree
	ModAssets string
	Platform  toolchain.Platform
}

// NewContext fills defaults for empty fields and validates the result
func NewContext(starbound, modName, buildDir, modAssets string, platform toolchain.Platform) (Context, error) {
	c := Context{
		Starbound: starbound,
		ModName:   modName,
		BuildDir:  buildDir,
		ModAssets: modAssets,
		Platform:  platform,
	}
	if c.ModName == "" {
		c.ModName = DefaultModName
	}
	if c.BuildDir == "" {
		c.BuildDir = DefaultBuildDir
	}
	if c.ModAssets == "" {
		c.ModAssets = DefaultModAssets
	}
	if err := c.Validate(); err != nil {
		return Context{}, err
	}
	c.Starbound = filepath.Clean(c.Starbound)
	c.BuildDir = filepath.Clean(c.BuildDir)
	c.ModAssets = filepath.Clean(c.ModAssets)
	return c, nil
}

// Validate checks that the context can drive a pipeline
func (c Context) Validate() error {
	if c.Starbound == "" {
		return errors.Errorf("starbound directory is required")
	}
	if c.ModName == "" {
		return errors.Errorf("mod name is required")
	}
	if c.BuildDir == "" {
		return errors.Errorf("build directory is required")
	}
	if c.Platform == toolchain.PlatformUnsupported {
		_, err := c.Platform.Executables(c.Starbound)
		return err
	}
	return nil
}

// PackedAssets is the game's stock asset archive
func (c Context) PackedAssets() string {
	return filepath.Join(c.Starbound, "assets", "packed.pak")
}

// DefaultAssets is where prepare unpacks the stock assets by default
func (c Context) DefaultAssets() string {
	return filepath.Join(c.Starbound, "_origAssets")
}

// Executables locates the asset tools for the context's platform
func (c Context) Executables() (toolchain.Executables, error) {
	return c.Platform.Executables(c.Starbound)
}
