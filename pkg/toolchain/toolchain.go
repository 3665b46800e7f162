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

package toolchain

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🖥️ Platform selects which build of the game's asset tools to run
type Platform int

const (
	PlatformUnsupported Platform = iota
	PlatformWindows
	PlatformLinux
	PlatformDarwin
)

func (p Platform) String() string {
	switch p {
	case PlatformWindows:
		return "windows"
	case PlatformLinux:
		return "linux"
	case PlatformDarwin:
		return "darwin"
	default:
		return "unsupported"
	}
}

// PlatformFromGOOS maps a GOOS value onto the platforms the game ships tools for
func PlatformFromGOOS(goos string) Platform {
	switch goos {
	case "windows":
		return PlatformWindows
	case "linux":
		return PlatformLinux
	case "darwin":
		return PlatformDarwin
	default:
		return PlatformUnsupported
	}
}

// Current is the platform of the running binary
func Current() Platform {
	return PlatformFromGOOS(runtime.GOOS)
}

// UnsupportedPlatformError is returned when the game ships no tools for a platform
type UnsupportedPlatformError struct {
	Platform Platform
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("no asset tools for %s platform", e.Platform)
}

// 🔧 Executables are the paths of the unpacker and packer binaries
type Executables struct {
	Unpacker string
	Packer   string
}

// Executables returns the tool paths inside a game installation
func (p Platform) Executables(starbound string) (Executables, error) {
	var dir, ext string
	switch p {
	case PlatformWindows:
		dir, ext = "win32", ".exe"
	case PlatformLinux:
		dir = "linux"
	case PlatformDarwin:
		dir = "osx"
	default:
		return Executables{}, &UnsupportedPlatformError{Platform: p}
	}
	return Executables{
		Unpacker: filepath.Join(starbound, dir, "asset_unpacker"+ext),
		Packer:   filepath.Join(starbound, dir, "asset_packer"+ext),
	}, nil
}

// 🧰 Toolchain runs the game's asset tools
type Toolchain interface {
	// Unpack extracts archive into dest
	Unpack(ctx context.Context, archive, dest string) error
	// Pack archives the contents of source into archive
	Pack(ctx context.Context, source, archive string) error
}

// ❌ ToolError reports an asset tool that exited unsuccessfully
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s %s exited with code %d", filepath.Base(e.Tool), strings.Join(e.Args, " "), e.ExitCode)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// ⚙️ ExecToolchain runs the tools as child processes. Their output streams go
// straight to Stdout and Stderr, which default to the process's own.
type ExecToolchain struct {
	Executables Executables
	Stdout      io.Writer
	Stderr      io.Writer
}

var _ Toolchain = (*ExecToolchain)(nil)

func NewExec(exes Executables) *ExecToolchain {
	return &ExecToolchain{
		Executables: exes,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
}

func (t *ExecToolchain) Unpack(ctx context.Context, archive, dest string) error {
	return t.run(ctx, t.Executables.Unpacker, archive, dest)
}

func (t *ExecToolchain) Pack(ctx context.Context, source, archive string) error {
	return t.run(ctx, t.Executables.Packer, source, archive)
}

func (t *ExecToolchain) run(ctx context.Context, tool string, args ...string) error {
	zerolog.Ctx(ctx).Debug().Str("tool", tool).Strs("args", args).Msg("running asset tool")

	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Stdout = t.Stdout
	cmd.Stderr = t.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ToolError{
			Tool:     tool,
			Args:     args,
			ExitCode: exitErr.ExitCode(),
			Err:      err,
		}
	}
	return errors.Errorf("running %s: %w", tool, err)
}
