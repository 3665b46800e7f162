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

package asset

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultConfigSuffix marks the files that are diffed instead of copied
const DefaultConfigSuffix = ".config"

// 🏷️ Class is the handling a file gets during staging
type Class int

const (
	OpaqueAsset Class = iota
	StructuralConfig
)

func (c Class) String() string {
	switch c {
	case StructuralConfig:
		return "config"
	default:
		return "asset"
	}
}

// 🔍 Classifier decides a file's Class from its name alone
type Classifier struct {
	Suffixes []string
}

// NewClassifier returns a classifier for the given suffixes, falling back to
// DefaultConfigSuffix when none are given
func NewClassifier(suffixes ...string) Classifier {
	if len(suffixes) == 0 {
		suffixes = []string{DefaultConfigSuffix}
	}
	return Classifier{Suffixes: suffixes}
}

// Classify returns StructuralConfig when name ends with a config suffix and
// OpaqueAsset otherwise
func (c Classifier) Classify(name string) Class {
	for _, suffix := range c.Suffixes {
		if suffix != "" && strings.HasSuffix(name, suffix) {
			return StructuralConfig
		}
	}
	return OpaqueAsset
}

// 📄 Entry is a regular file found under a root
type Entry struct {
	Rel   string // slash separated, relative to the root
	Abs   string
	Class Class
}

// 🚫 WalkOptions controls which files are visited
type WalkOptions struct {
	Classifier Classifier
	// Ignore holds doublestar globs matched against slash separated relative
	// paths. A glob matching a directory skips everything below it.
	Ignore []string
}

func (o WalkOptions) ignored(ctx context.Context, rel string) bool {
	for _, pattern := range o.Ignore {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Str("pattern", pattern).Str("path", rel).Err(err).Msg("error matching pattern")
			continue
		}
		if matched {
			zerolog.Ctx(ctx).Debug().Str("path", rel).Str("pattern", pattern).Msg("path ignored by pattern")
			return true
		}
	}
	return false
}

// ValidatePatterns reports the first malformed ignore glob
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("invalid ignore pattern %q", p)
		}
	}
	return nil
}

// 🚶 Walk lists every regular file below root in lexical order. Directories are
// descended but never returned. Symlinks and other non-regular files are skipped
// with a warning.
func Walk(ctx context.Context, root string, opts WalkOptions) ([]Entry, error) {
	logger := zerolog.Ctx(ctx)

	if len(opts.Classifier.Suffixes) == 0 {
		opts.Classifier = NewClassifier()
	}

	// a symlinked root is followed; links below it are not
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, errors.Errorf("resolving root %s: %w", root, err)
	}
	root = resolved

	var entries []Entry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Errorf("walking %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errors.Errorf("relative path for %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		if opts.ignored(ctx, rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		switch {
		case d.IsDir():
			return nil
		case d.Type().IsRegular():
			entries = append(entries, Entry{
				Rel:   rel,
				Abs:   path,
				Class: opts.Classifier.Classify(d.Name()),
			})
		default:
			logger.Warn().Str("path", rel).Str("type", d.Type().String()).Msg("skipping non-regular file")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// order by relative path, not by walk order ("a.txt" sorts before "a/b")
	sort.Slice(entries, func(i, j int) bool { return entries[i].Rel < entries[j].Rel })
	return entries, nil
}
