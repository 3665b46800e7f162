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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sbmod/pkg/log"
	"github.com/walteh/sbmod/pkg/stage"
	"github.com/walteh/sbmod/pkg/toolchain"
)

type mockToolchain struct {
	mock.Mock
}

func (m *mockToolchain) Unpack(ctx context.Context, archive, dest string) error {
	return m.Called(ctx, archive, dest).Error(0)
}

func (m *mockToolchain) Pack(ctx context.Context, source, archive string) error {
	return m.Called(ctx, source, archive).Error(0)
}

type setup struct {
	ctx   context.Context
	pc    Context
	tools *mockToolchain
	op    Operator
	dir   string
}

func newSetup(t *testing.T) setup {
	t.Helper()
	dir := t.TempDir()

	pc, err := NewContext(
		filepath.Join(dir, "starbound"),
		"",
		filepath.Join(dir, "out"),
		filepath.Join(dir, "_modAssets"),
		toolchain.PlatformLinux,
	)
	require.NoError(t, err)

	tools := &mockToolchain{}
	t.Cleanup(func() { tools.AssertExpectations(t) })

	op, err := New(Options{Context: pc, Toolchain: tools, Stager: stage.New()})
	require.NoError(t, err)

	return setup{
		ctx:   zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background()),
		pc:    pc,
		tools: tools,
		op:    op,
		dir:   dir,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNewValidatesOptions(t *testing.T) {
	pc := Context{Starbound: "sb", ModName: "m", BuildDir: "out", Platform: toolchain.PlatformLinux}

	tests := []struct {
		name          string
		opts          Options
		expectedError string
	}{
		{
			name:          "missing_toolchain",
			opts:          Options{Context: pc, Stager: stage.New()},
			expectedError: "toolchain is required",
		},
		{
			name:          "missing_stager",
			opts:          Options{Context: pc, Toolchain: &mockToolchain{}},
			expectedError: "stager is required",
		},
		{
			name:          "empty_context",
			opts:          Options{Toolchain: &mockToolchain{}, Stager: stage.New()},
			expectedError: "starbound directory is required",
		},
		{
			name: "unsupported_platform",
			opts: Options{
				Context:   Context{Starbound: "sb", ModName: "m", BuildDir: "out"},
				Toolchain: &mockToolchain{},
				Stager:    stage.New(),
			},
			expectedError: "no asset tools for unsupported platform",
		},
		{
			name: "valid",
			opts: Options{Context: pc, Toolchain: &mockToolchain{}, Stager: stage.New()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := New(tt.opts)
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, op)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, op)
		})
	}
}

func TestContextDefaults(t *testing.T) {
	pc, err := NewContext("games/starbound/", "", "", "", toolchain.PlatformDarwin)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("games", "starbound"), pc.Starbound)
	assert.Equal(t, DefaultModName, pc.ModName)
	assert.Equal(t, DefaultBuildDir, pc.BuildDir)
	assert.Equal(t, DefaultModAssets, pc.ModAssets)
	assert.Equal(t, filepath.Join("games", "starbound", "assets", "packed.pak"), pc.PackedAssets())
	assert.Equal(t, filepath.Join("games", "starbound", "_origAssets"), pc.DefaultAssets())

	exes, err := pc.Executables()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("games", "starbound", "osx", "asset_packer"), exes.Packer)
}

func TestPrepare(t *testing.T) {
	t.Run("default_destination", func(t *testing.T) {
		s := newSetup(t)
		s.tools.On("Unpack", mock.Anything, s.pc.PackedAssets(), s.pc.DefaultAssets()).Return(nil).Once()

		require.NoError(t, s.op.Prepare(s.ctx, ""))
	})

	t.Run("explicit_destination", func(t *testing.T) {
		s := newSetup(t)
		dest := filepath.Join(s.dir, "unpacked")
		s.tools.On("Unpack", mock.Anything, s.pc.PackedAssets(), dest).Return(nil).Once()

		require.NoError(t, s.op.Prepare(s.ctx, dest))
	})

	t.Run("tool_failure", func(t *testing.T) {
		s := newSetup(t)
		toolErr := &toolchain.ToolError{Tool: "asset_unpacker", ExitCode: 1}
		s.tools.On("Unpack", mock.Anything, mock.Anything, mock.Anything).Return(toolErr).Once()

		err := s.op.Prepare(s.ctx, "")
		require.Error(t, err)

		var got *toolchain.ToolError
		require.True(t, errors.As(err, &got))
		assert.Equal(t, 1, got.ExitCode)
	})
}

func TestBuild(t *testing.T) {
	t.Run("stages_mod_against_default_assets", func(t *testing.T) {
		s := newSetup(t)
		writeFile(t, filepath.Join(s.pc.DefaultAssets(), "player.config"), `{"speed": 40}`)
		writeFile(t, filepath.Join(s.pc.ModAssets, "player.config"), `{"speed": 50}`)
		writeFile(t, filepath.Join(s.pc.ModAssets, "icon.png"), "png")

		res, err := s.op.Build(s.ctx, "", "")
		require.NoError(t, err)
		assert.Equal(t, stage.Result{Patches: 1, Copies: 1}, res)

		data, err := os.ReadFile(filepath.Join(s.pc.BuildDir, "player.config.patch"))
		require.NoError(t, err)
		assert.Equal(t, `[{"op":"replace","path":"/speed","value":50}]`, string(data))
		assert.FileExists(t, filepath.Join(s.pc.BuildDir, "icon.png"))
	})

	t.Run("missing_mod", func(t *testing.T) {
		s := newSetup(t)

		_, err := s.op.Build(s.ctx, "", "")
		var pre *PreconditionError
		require.True(t, errors.As(err, &pre), "want PreconditionError, got %v", err)
		assert.Equal(t, MissingMod, pre.Kind)
		assert.NoDirExists(t, s.pc.BuildDir)
	})

	t.Run("not_prepared", func(t *testing.T) {
		s := newSetup(t)
		writeFile(t, filepath.Join(s.pc.ModAssets, "player.config"), `{}`)

		_, err := s.op.Build(s.ctx, "", "")
		var pre *PreconditionError
		require.True(t, errors.As(err, &pre), "want PreconditionError, got %v", err)
		assert.Equal(t, NotPrepared, pre.Kind)
		assert.Contains(t, err.Error(), "run prepare first")
	})
}

func TestPack(t *testing.T) {
	t.Run("not_built", func(t *testing.T) {
		s := newSetup(t)

		out := filepath.Join(s.dir, "mymod")
		_, err := s.op.Pack(s.ctx, out, false)
		require.Error(t, err)

		var pre *PreconditionError
		require.True(t, errors.As(err, &pre))
		assert.Equal(t, NotBuilt, pre.Kind)
		assert.Contains(t, err.Error(), "run build first")
		assert.NoFileExists(t, out+".pak")
		s.tools.AssertNotCalled(t, "Pack", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already_exists", func(t *testing.T) {
		s := newSetup(t)
		require.NoError(t, os.MkdirAll(s.pc.BuildDir, 0755))
		out := filepath.Join(s.dir, "mymod.pak")
		writeFile(t, out, "previous archive")

		_, err := s.op.Pack(s.ctx, out, false)
		var pre *PreconditionError
		require.True(t, errors.As(err, &pre))
		assert.Equal(t, AlreadyExists, pre.Kind)
		assert.Contains(t, err.Error(), "--overwrite")
		s.tools.AssertNotCalled(t, "Pack", mock.Anything, mock.Anything, mock.Anything)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "previous archive", string(data), "existing archive is untouched")
	})

	t.Run("overwrite", func(t *testing.T) {
		s := newSetup(t)
		require.NoError(t, os.MkdirAll(s.pc.BuildDir, 0755))
		out := filepath.Join(s.dir, "mymod.pak")
		writeFile(t, out, "previous archive")
		s.tools.On("Pack", mock.Anything, s.pc.BuildDir, out).Return(nil).Once()

		got, err := s.op.Pack(s.ctx, out, true)
		require.NoError(t, err)
		assert.Equal(t, out, got)
	})

	t.Run("appends_extension", func(t *testing.T) {
		s := newSetup(t)
		require.NoError(t, os.MkdirAll(s.pc.BuildDir, 0755))
		out := filepath.Join(s.dir, "mymod")
		s.tools.On("Pack", mock.Anything, s.pc.BuildDir, out+".pak").Return(nil).Once()

		got, err := s.op.Pack(s.ctx, out, false)
		require.NoError(t, err)
		assert.Equal(t, out+".pak", got)
	})

	t.Run("extension_checked_before_overwrite_guard", func(t *testing.T) {
		s := newSetup(t)
		require.NoError(t, os.MkdirAll(s.pc.BuildDir, 0755))
		out := filepath.Join(s.dir, "mymod")
		writeFile(t, out+".pak", "previous archive")

		_, err := s.op.Pack(s.ctx, out, false)
		var pre *PreconditionError
		require.True(t, errors.As(err, &pre))
		assert.Equal(t, AlreadyExists, pre.Kind)
		assert.Equal(t, out+".pak", pre.Path)
	})
}

func TestPakPath(t *testing.T) {
	tests := []struct {
		out  string
		want string
	}{
		{out: "", want: "modcontent.pak"},
		{out: "mymod", want: "mymod.pak"},
		{out: "mymod.pak", want: "mymod.pak"},
		{out: "archive.zip", want: "archive.zip.pak"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, PakPath(tt.out, DefaultModName))
		})
	}
}

func TestClean(t *testing.T) {
	t.Run("removes_build_dir", func(t *testing.T) {
		s := newSetup(t)
		writeFile(t, filepath.Join(s.pc.BuildDir, "nested", "file.png"), "x")

		buf := &bytes.Buffer{}
		ctx := log.NewContext(s.ctx, log.New(buf, zerolog.New(zerolog.NewTestWriter(t))))

		require.NoError(t, s.op.Clean(ctx))
		assert.NoDirExists(t, s.pc.BuildDir)
		assert.Contains(t, buf.String(), "✗")
		assert.Contains(t, buf.String(), "removed")
		assert.NotContains(t, buf.String(), "already absent")
	})

	t.Run("missing_build_dir", func(t *testing.T) {
		s := newSetup(t)

		buf := &bytes.Buffer{}
		ctx := log.NewContext(s.ctx, log.New(buf, zerolog.New(zerolog.NewTestWriter(t))))

		require.NoError(t, s.op.Clean(ctx))
		assert.Contains(t, buf.String(), "already absent")
		assert.NotContains(t, buf.String(), "removed")
	})
}
