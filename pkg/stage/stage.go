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

package stage

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/sbmod/pkg/asset"
	"github.com/walteh/sbmod/pkg/buildfs"
	"github.com/walteh/sbmod/pkg/document"
	"github.com/walteh/sbmod/pkg/log"
	"github.com/walteh/sbmod/pkg/patch"
)

// PatchSuffix is appended to a config's relative path to name its patch file
const PatchSuffix = ".patch"

// 🧭 MissingOriginalPolicy decides what happens to a modified config that has
// no pristine counterpart
type MissingOriginalPolicy string

const (
	MissingOriginalFail MissingOriginalPolicy = "fail"
	MissingOriginalCopy MissingOriginalPolicy = "copy"
)

// ParseMissingOriginalPolicy accepts "fail", "copy" or "" (meaning fail)
func ParseMissingOriginalPolicy(s string) (MissingOriginalPolicy, error) {
	switch MissingOriginalPolicy(s) {
	case "", MissingOriginalFail:
		return MissingOriginalFail, nil
	case MissingOriginalCopy:
		return MissingOriginalCopy, nil
	}
	return "", errors.Errorf("unknown missing original policy %q (want fail or copy)", s)
}

// ❌ MissingOriginalError reports a modified config with no pristine file to diff against
type MissingOriginalError struct {
	Rel      string // relative path of the modified config
	Expected string // where the pristine file was looked for
}

func (e *MissingOriginalError) Error() string {
	return "no original for " + e.Rel + ": expected " + e.Expected
}

// 📊 Result counts what a staging run produced
type Result struct {
	Patches int // config patches written or refreshed
	Copies  int // assets copied or refreshed
	Skipped int // outputs that already held the right content
}

// 🏗️ Stager turns a modified asset tree into a build tree
type Stager struct {
	Classifier      asset.Classifier
	Ignore          []string
	MissingOriginal MissingOriginalPolicy
	// Jobs bounds how many files are staged at once; zero means GOMAXPROCS
	Jobs int
}

// New returns a stager with the default classifier and policy
func New() *Stager {
	return &Stager{
		Classifier:      asset.NewClassifier(),
		MissingOriginal: MissingOriginalFail,
	}
}

func (s *Stager) jobs() int {
	if s.Jobs > 0 {
		return s.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

// 🔄 Stage walks modifiedRoot and fills buildRoot: every structural config
// becomes a patch against its counterpart under pristineRoot and every other
// file is copied verbatim. Existing build outputs are overwritten in place.
func (s *Stager) Stage(ctx context.Context, pristineRoot, modifiedRoot, buildRoot string) (Result, error) {
	logger := zerolog.Ctx(ctx)

	entries, err := asset.Walk(ctx, modifiedRoot, asset.WalkOptions{
		Classifier: s.Classifier,
		Ignore:     s.Ignore,
	})
	if err != nil {
		return Result{}, errors.Errorf("listing modified assets: %w", err)
	}

	logger.Debug().
		Str("pristine", pristineRoot).
		Str("modified", modifiedRoot).
		Str("build", buildRoot).
		Int("files", len(entries)).
		Int("jobs", s.jobs()).
		Msg("staging build tree")

	tree := buildfs.New(buildRoot)

	var (
		mu     sync.Mutex
		result Result
	)
	record := func(class asset.Class, status buildfs.Status) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case status == buildfs.StatusUnchanged:
			result.Skipped++
		case class == asset.StructuralConfig:
			result.Patches++
		default:
			result.Copies++
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.jobs())

	for _, entry := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			class, status, err := s.stageEntry(gctx, tree, pristineRoot, entry)
			if err != nil {
				return err
			}
			record(class, status)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

// stageEntry returns the class the entry was actually handled as, which differs
// from entry.Class when a config without an original is copied
func (s *Stager) stageEntry(ctx context.Context, tree *buildfs.Tree, pristineRoot string, entry asset.Entry) (asset.Class, buildfs.Status, error) {
	if entry.Class != asset.StructuralConfig {
		status, err := s.copyAsset(ctx, tree, entry)
		return asset.OpaqueAsset, status, err
	}

	original := filepath.Join(pristineRoot, filepath.FromSlash(entry.Rel))
	if _, err := os.Stat(original); err != nil {
		if !os.IsNotExist(err) {
			return 0, 0, errors.Errorf("checking original %s: %w", original, err)
		}
		if s.MissingOriginal != MissingOriginalCopy {
			return 0, 0, &MissingOriginalError{Rel: entry.Rel, Expected: original}
		}
		log.FromContext(ctx).Warningf("no original for %s, copying it whole", entry.Rel)
		status, err := s.copyAsset(ctx, tree, entry)
		return asset.OpaqueAsset, status, err
	}

	status, err := s.patchConfig(ctx, tree, original, entry)
	return asset.StructuralConfig, status, err
}

func (s *Stager) patchConfig(ctx context.Context, tree *buildfs.Tree, original string, entry asset.Entry) (buildfs.Status, error) {
	pristine, err := readDocument(original)
	if err != nil {
		return 0, err
	}
	modified, err := readDocument(entry.Abs)
	if err != nil {
		return 0, err
	}

	ops := patch.Diff(pristine, modified)
	raw, err := patch.Serialize(ops)
	if err != nil {
		return 0, errors.Errorf("serializing patch for %s: %w", entry.Rel, err)
	}

	rel := entry.Rel + PatchSuffix
	status, err := tree.WriteFile(ctx, rel, raw)
	if err != nil {
		return 0, errors.Errorf("writing patch for %s: %w", entry.Rel, err)
	}

	log.FromContext(ctx).LogFileOperation(ctx, log.FileOperation{
		Path:       rel,
		Type:       "patch",
		Status:     status.String(),
		IsNew:      status == buildfs.StatusNew,
		IsModified: status == buildfs.StatusModified,
		Operations: len(ops),
	})
	return status, nil
}

func (s *Stager) copyAsset(ctx context.Context, tree *buildfs.Tree, entry asset.Entry) (buildfs.Status, error) {
	status, err := tree.CopyFile(ctx, entry.Abs, entry.Rel)
	if err != nil {
		return 0, errors.Errorf("copying %s: %w", entry.Rel, err)
	}

	log.FromContext(ctx).LogFileOperation(ctx, log.FileOperation{
		Path:       entry.Rel,
		Type:       "copy",
		Status:     status.String(),
		IsNew:      status == buildfs.StatusNew,
		IsModified: status == buildfs.StatusModified,
	})
	return status, nil
}

func readDocument(path string) (*document.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", path, err)
	}
	return document.Parse(path, data)
}
