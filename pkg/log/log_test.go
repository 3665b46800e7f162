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

package log

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "log_file_operation",
			op: func(t *testing.T, logger *Logger) {
				logger.LogFileOperation(context.Background(), FileOperation{
					Path:       "items/sword.config.patch",
					Type:       "patch",
					Status:     "new",
					IsNew:      true,
					Operations: 2,
				})
			},
			wantLogs: []string{
				"✓ items/sword.config.patch            patch           new",
			},
		},
		{
			name: "log_stage_operation",
			op: func(t *testing.T, logger *Logger) {
				logger.StartStage(context.Background(), StageOperation{
					Name:        "build",
					Source:      "_modAssets",
					Destination: "out",
				})
			},
			wantLogs: []string{
				"◆ build _modAssets → out",
			},
		},
		{
			name: "log_stage_with_source_only",
			op: func(t *testing.T, logger *Logger) {
				logger.StartStage(context.Background(), StageOperation{Name: "clean", Source: "out"})
			},
			wantLogs: []string{
				"◆ clean out",
			},
		},
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("info message")
				logger.Warning("warning message")
				logger.Error("error message")
				logger.Success("success message")
			},
			wantLogs: []string{
				"ℹ️  info message",
				"⚠️  warning message",
				"❌ error message",
				"✅ success message",
			},
		},
		{
			name: "log_formatted_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Infof("info %s", "test")
				logger.Warningf("warning %s", "test")
				logger.Errorf("error %s", "test")
				logger.Successf("success %s", "test")
			},
			wantLogs: []string{
				"ℹ️  info test",
				"⚠️  warning test",
				"❌ error test",
				"✅ success test",
			},
		},
		{
			name: "log_header",
			op: func(t *testing.T, logger *Logger) {
				logger.Header("building mod")
			},
			wantLogs: []string{
				"sbmod • building mod",
			},
		},
		{
			name: "log_newline",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("first")
				logger.LogNewline()
				logger.Info("second")
			},
			wantLogs: []string{
				"ℹ️  first",
				"",
				"ℹ️  second",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.New(zerolog.NewTestWriter(t)))

			tt.op(t, logger)

			output := strings.TrimSpace(buf.String())
			lines := strings.Split(output, "\n")

			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, strings.TrimSpace(lines[i]), "log line %d should match", i)
			}
		})
	}
}

func TestLoggerContext(t *testing.T) {
	logger := New(io.Discard, zerolog.Nop())

	ctx := NewContext(context.Background(), logger)

	got := FromContext(ctx)
	assert.Same(t, logger, got, "logger from context should be the same instance")

	// a missing logger falls back to one that discards console output
	fallback := FromContext(context.Background())
	require.NotNil(t, fallback)
	assert.NotPanics(t, func() {
		fallback.Info("nobody is listening")
	})
}

func TestStageCollectsOperations(t *testing.T) {
	logger := New(io.Discard, zerolog.Nop())
	ctx := context.Background()

	assert.Nil(t, logger.EndStage(ctx), "ending without a stage returns nothing")

	logger.StartStage(ctx, StageOperation{Name: "build"})
	logger.LogFileOperation(ctx, FileOperation{Path: "a.config.patch", Type: "patch", IsNew: true})
	logger.LogFileOperation(ctx, FileOperation{Path: "b.png", Type: "copy"})

	ops := logger.EndStage(ctx)
	require.Len(t, ops, 2)
	assert.Equal(t, "a.config.patch", ops[0].Path)
	assert.Equal(t, "b.png", ops[1].Path)

	logger.StartStage(ctx, StageOperation{Name: "pack"})
	assert.Empty(t, logger.EndStage(ctx), "operations reset between stages")
}

func TestFileOperationFormatting(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name string
		op   FileOperation
		want string
	}{
		{
			name: "new_patch",
			op: FileOperation{
				Path:   "test.config.patch",
				Type:   "patch",
				Status: "new",
				IsNew:  true,
			},
			want: "    ✓ test.config.patch                   patch           new            ",
		},
		{
			name: "modified_copy",
			op: FileOperation{
				Path:       "test.png",
				Type:       "copy",
				Status:     "updated",
				IsModified: true,
			},
			want: "    ⟳ test.png                            copy            updated        ",
		},
		{
			name: "removed_file",
			op: FileOperation{
				Path:      "test.png",
				Type:      "copy",
				Status:    "removed",
				IsRemoved: true,
			},
			want: "    ✗ test.png                            copy            removed        ",
		},
		{
			name: "unchanged_file",
			op: FileOperation{
				Path:   "test.png",
				Type:   "copy",
				Status: "unchanged",
			},
			want: "    • test.png                            copy            unchanged      ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(io.Discard, zerolog.Nop())
			got := logger.formatFileOperation(tt.op)
			assert.Equal(t, tt.want, got)
		})
	}
}
