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

package buildfs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📊 Status describes what a write did to the destination
type Status int

const (
	StatusNew       Status = iota // destination did not exist
	StatusModified                // destination existed with other content
	StatusUnchanged               // destination already held this content
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusModified:
		return "updated"
	case StatusUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// 🏗️ Tree writes build artifacts below a root directory.
//
// Every write goes through a uniquely named temp file in the destination
// directory and is renamed into place, so concurrent writers of distinct files
// never observe partial content. Unchanged destinations are left alone.
type Tree struct {
	root string
}

func New(root string) *Tree {
	return &Tree{root: filepath.Clean(root)}
}

func (t *Tree) Root() string {
	return t.root
}

// Path maps a slash separated relative path into the tree
func (t *Tree) Path(rel string) string {
	return filepath.Join(t.root, filepath.FromSlash(rel))
}

// Exists reports whether the root is an existing directory
func (t *Tree) Exists() (bool, error) {
	info, err := os.Stat(t.root)
	if err == nil {
		return info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking %s: %w", t.root, err)
}

// Remove deletes the whole tree. A missing root is not an error.
func (t *Tree) Remove(ctx context.Context) error {
	zerolog.Ctx(ctx).Debug().Str("root", t.root).Msg("removing build tree")
	if err := os.RemoveAll(t.root); err != nil {
		return errors.Errorf("removing %s: %w", t.root, err)
	}
	return nil
}

// 📝 WriteFile stores content at rel
func (t *Tree) WriteFile(ctx context.Context, rel string, content []byte) (Status, error) {
	dst := t.Path(rel)

	status, err := statusFor(dst, checksum(content), int64(len(content)))
	if err != nil {
		return 0, err
	}
	if status == StatusUnchanged {
		return status, nil
	}

	if err := writeAtomic(dst, bytes.NewReader(content)); err != nil {
		return 0, err
	}
	zerolog.Ctx(ctx).Debug().Str("path", dst).Str("status", status.String()).Msg("wrote file")
	return status, nil
}

// 📋 CopyFile copies src byte for byte to rel, replacing whatever is there
func (t *Tree) CopyFile(ctx context.Context, src, rel string) (Status, error) {
	dst := t.Path(rel)

	in, err := os.Open(src)
	if err != nil {
		return 0, errors.Errorf("opening source file %s: %w", src, err)
	}
	defer in.Close()

	h := sha256.New()
	size, err := io.Copy(h, in)
	if err != nil {
		return 0, errors.Errorf("reading source file %s: %w", src, err)
	}

	status, err := statusFor(dst, h.Sum(nil), size)
	if err != nil {
		return 0, err
	}
	if status == StatusUnchanged {
		return status, nil
	}

	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return 0, errors.Errorf("rewinding source file %s: %w", src, err)
	}
	if err := writeAtomic(dst, in); err != nil {
		return 0, err
	}
	zerolog.Ctx(ctx).Debug().Str("src", src).Str("path", dst).Str("status", status.String()).Msg("copied file")
	return status, nil
}

func checksum(content []byte) []byte {
	sum := sha256.Sum256(content)
	return sum[:]
}

func statusFor(dst string, sum []byte, size int64) (Status, error) {
	info, err := os.Stat(dst)
	if os.IsNotExist(err) {
		return StatusNew, nil
	}
	if err != nil {
		return 0, errors.Errorf("checking destination %s: %w", dst, err)
	}
	if !info.Mode().IsRegular() || info.Size() != size {
		return StatusModified, nil
	}

	f, err := os.Open(dst)
	if err != nil {
		return 0, errors.Errorf("opening destination %s: %w", dst, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, errors.Errorf("reading destination %s: %w", dst, err)
	}
	if bytes.Equal(h.Sum(nil), sum) {
		return StatusUnchanged, nil
	}
	return StatusModified, nil
}

func writeAtomic(dst string, r io.Reader) error {
	dir := filepath.Dir(dst)

	// MkdirAll tolerates concurrent creators of the same directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Errorf("creating parent directories for %s: %w", dst, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return errors.Errorf("creating temp file for %s: %w", dst, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { os.Remove(tmpPath) }

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		cleanup()
		return errors.Errorf("writing %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Errorf("closing temp file for %s: %w", dst, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		cleanup()
		return errors.Errorf("setting mode on %s: %w", dst, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		cleanup()
		return errors.Errorf("renaming temp file to %s: %w", dst, err)
	}
	return nil
}
