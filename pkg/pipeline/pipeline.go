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
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sbmod/pkg/buildfs"
	"github.com/walteh/sbmod/pkg/log"
	"github.com/walteh/sbmod/pkg/stage"
	"github.com/walteh/sbmod/pkg/toolchain"
)

// PakExtension is the extension of packed asset archives
const PakExtension = ".pak"

// 🎯 Operator runs the mod build stages
type Operator interface {
	// Prepare unpacks the game's stock assets into dest
	Prepare(ctx context.Context, dest string) error
	// Build stages the modified tree mod against the pristine tree source
	Build(ctx context.Context, source, mod string) (stage.Result, error)
	// Pack archives the build tree and returns the archive path
	Pack(ctx context.Context, out string, overwrite bool) (string, error)
	// Clean removes the build tree
	Clean(ctx context.Context) error
}

// 🔧 Options contains the collaborators of an operator
type Options struct {
	// Context holds the resolved paths
	Context Context
	// Toolchain runs the unpacker and packer
	Toolchain toolchain.Toolchain
	// Stager builds the build tree
	Stager *stage.Stager
}

// 🏭 New creates a new operator with the given options
func New(opts Options) (Operator, error) {
	if err := opts.Context.Validate(); err != nil {
		return nil, errors.Errorf("invalid context: %w", err)
	}
	if opts.Toolchain == nil {
		return nil, errors.Errorf("toolchain is required")
	}
	if opts.Stager == nil {
		return nil, errors.Errorf("stager is required")
	}
	return &operator{
		ctx:       opts.Context,
		toolchain: opts.Toolchain,
		stager:    opts.Stager,
	}, nil
}

type operator struct {
	ctx       Context
	toolchain toolchain.Toolchain
	stager    *stage.Stager
}

// 🚦 PreconditionKind names the check a stage failed before doing any work
type PreconditionKind int

const (
	NotBuilt PreconditionKind = iota
	AlreadyExists
	NotPrepared
	MissingMod
)

func (k PreconditionKind) String() string {
	switch k {
	case NotBuilt:
		return "not built"
	case AlreadyExists:
		return "already exists"
	case NotPrepared:
		return "not prepared"
	case MissingMod:
		return "missing mod"
	default:
		return "unknown"
	}
}

// ❌ PreconditionError reports a stage that refused to run, with the step that fixes it
type PreconditionError struct {
	Kind PreconditionKind
	Path string
	Hint string
}

func (e *PreconditionError) Error() string {
	var what string
	switch e.Kind {
	case NotBuilt:
		what = fmt.Sprintf("build directory %s does not exist", e.Path)
	case AlreadyExists:
		what = fmt.Sprintf("%s already exists", e.Path)
	case NotPrepared:
		what = fmt.Sprintf("original assets %s do not exist", e.Path)
	case MissingMod:
		what = fmt.Sprintf("mod directory %s does not exist", e.Path)
	default:
		what = e.Path
	}
	if e.Hint == "" {
		return what
	}
	return what + " (" + e.Hint + ")"
}

// 📦 Prepare unpacks the stock asset archive
func (o *operator) Prepare(ctx context.Context, dest string) error {
	if dest == "" {
		dest = o.ctx.DefaultAssets()
	}

	logger := log.FromContext(ctx)
	logger.StartStage(ctx, log.StageOperation{Name: "prepare", Source: o.ctx.PackedAssets(), Destination: dest})
	defer logger.EndStage(ctx)

	if err := o.toolchain.Unpack(ctx, o.ctx.PackedAssets(), dest); err != nil {
		return errors.Errorf("unpacking %s: %w", o.ctx.PackedAssets(), err)
	}
	return nil
}

// 🔨 Build fills the build directory from the modified tree
func (o *operator) Build(ctx context.Context, source, mod string) (stage.Result, error) {
	if source == "" {
		source = o.ctx.DefaultAssets()
	}
	if mod == "" {
		mod = o.ctx.ModAssets
	}

	if ok, err := isDir(mod); err != nil {
		return stage.Result{}, err
	} else if !ok {
		return stage.Result{}, &PreconditionError{Kind: MissingMod, Path: mod, Hint: "check --mod"}
	}
	if ok, err := isDir(source); err != nil {
		return stage.Result{}, err
	} else if !ok {
		return stage.Result{}, &PreconditionError{Kind: NotPrepared, Path: source, Hint: "run prepare first"}
	}

	logger := log.FromContext(ctx)
	logger.StartStage(ctx, log.StageOperation{Name: "build", Source: mod, Destination: o.ctx.BuildDir})
	defer logger.EndStage(ctx)

	res, err := o.stager.Stage(ctx, source, mod, o.ctx.BuildDir)
	if err != nil {
		return res, errors.Errorf("staging %s: %w", mod, err)
	}

	zerolog.Ctx(ctx).Info().
		Int("patches", res.Patches).
		Int("copies", res.Copies).
		Int("unchanged", res.Skipped).
		Msg("build tree staged")
	return res, nil
}

// 🎁 Pack archives the build directory. out defaults to the mod name and always
// ends up with the .pak extension.
func (o *operator) Pack(ctx context.Context, out string, overwrite bool) (string, error) {
	out = PakPath(out, o.ctx.ModName)

	built, err := buildfs.New(o.ctx.BuildDir).Exists()
	if err != nil {
		return "", err
	}
	if !built {
		return "", &PreconditionError{Kind: NotBuilt, Path: o.ctx.BuildDir, Hint: "run build first"}
	}

	if _, err := os.Stat(out); err == nil {
		if !overwrite {
			return "", &PreconditionError{Kind: AlreadyExists, Path: out, Hint: "use --overwrite to replace it"}
		}
		zerolog.Ctx(ctx).Debug().Str("out", out).Msg("overwriting existing archive")
	} else if !os.IsNotExist(err) {
		return "", errors.Errorf("checking %s: %w", out, err)
	}

	logger := log.FromContext(ctx)
	logger.StartStage(ctx, log.StageOperation{Name: "pack", Source: o.ctx.BuildDir, Destination: out})
	defer logger.EndStage(ctx)

	if err := o.toolchain.Pack(ctx, o.ctx.BuildDir, out); err != nil {
		return "", errors.Errorf("packing %s: %w", o.ctx.BuildDir, err)
	}
	return out, nil
}

// 🧹 Clean removes the build directory. A missing directory is fine.
func (o *operator) Clean(ctx context.Context) error {
	logger := log.FromContext(ctx)
	logger.StartStage(ctx, log.StageOperation{Name: "clean", Source: o.ctx.BuildDir})
	defer logger.EndStage(ctx)

	tree := buildfs.New(o.ctx.BuildDir)
	exists, err := tree.Exists()
	if err != nil {
		return err
	}
	if !exists {
		logger.Infof("%s already absent", o.ctx.BuildDir)
		return nil
	}

	if err := tree.Remove(ctx); err != nil {
		return err
	}
	logger.LogFileOperation(ctx, log.FileOperation{
		Path:      o.ctx.BuildDir,
		Type:      "dir",
		Status:    "removed",
		IsRemoved: true,
	})
	return nil
}

// PakPath normalises an archive name: empty means modName, and the .pak
// extension is appended when missing
func PakPath(out, modName string) string {
	if out == "" {
		out = modName
	}
	if !strings.HasSuffix(out, PakExtension) {
		out += PakExtension
	}
	return out
}

func isDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Errorf("checking %s: %w", path, err)
	}
	return info.IsDir(), nil
}
