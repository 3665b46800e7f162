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

package patch

import (
	"github.com/walteh/sbmod/pkg/document"
	"gitlab.com/tozd/go/errors"
)

// 🩹 Apply runs the patch against a copy of doc and returns the result. doc is
// never modified; the first failing operation aborts the whole patch.
func Apply(doc *document.Node, p Patch) (*document.Node, error) {
	root := doc.Clone()
	for i, op := range p {
		var err error
		root, err = applyOne(root, op)
		if err != nil {
			return nil, errors.Errorf("operation %d (%s %s): %w", i, op.Op, op.Path, err)
		}
	}
	return root, nil
}

func applyOne(root *document.Node, op Operation) (*document.Node, error) {
	path, err := document.ParsePointer(op.Path)
	if err != nil {
		return nil, err
	}

	switch op.Op {
	case OpAdd:
		if op.Value == nil {
			return nil, errors.Errorf("add requires a value")
		}
		return add(root, path, op.Value.Clone())
	case OpRemove:
		root, _, err = remove(root, path)
		return root, err
	case OpReplace:
		if op.Value == nil {
			return nil, errors.Errorf("replace requires a value")
		}
		return replace(root, path, op.Value.Clone())
	case OpMove:
		from, err := document.ParsePointer(op.From)
		if err != nil {
			return nil, err
		}
		if from.String() == path.String() {
			return root, nil
		}
		if from.IsPrefixOf(path) {
			return nil, errors.Errorf("cannot move %s into its own child %s", op.From, op.Path)
		}
		var value *document.Node
		root, value, err = remove(root, from)
		if err != nil {
			return nil, err
		}
		return add(root, path, value)
	case OpCopy:
		from, err := document.ParsePointer(op.From)
		if err != nil {
			return nil, err
		}
		value, err := from.Resolve(root)
		if err != nil {
			return nil, err
		}
		return add(root, path, value.Clone())
	case OpTest:
		value, err := path.Resolve(root)
		if err != nil {
			return nil, err
		}
		if !document.Equal(value, op.Value) {
			return nil, errors.Errorf("test failed at %s", op.Path)
		}
		return root, nil
	}
	return nil, errors.Errorf("unknown op %q", op.Op)
}

func parentOf(root *document.Node, path document.Pointer) (*document.Node, string, error) {
	parent, err := path[:len(path)-1].Resolve(root)
	if err != nil {
		return nil, "", err
	}
	return parent, path[len(path)-1], nil
}

func add(root *document.Node, path document.Pointer, value *document.Node) (*document.Node, error) {
	if len(path) == 0 {
		return value, nil
	}
	parent, last, err := parentOf(root, path)
	if err != nil {
		return nil, err
	}
	switch parent.Kind {
	case document.KindObject:
		parent.Set(last, value)
	case document.KindArray:
		i, err := document.ArrayIndex(last, len(parent.Items), true)
		if err != nil {
			return nil, errors.Errorf("%s: %w", path, err)
		}
		parent.Items = append(parent.Items, nil)
		copy(parent.Items[i+1:], parent.Items[i:])
		parent.Items[i] = value
	default:
		return nil, errors.Errorf("%s: cannot add into %s", path, parent.Kind)
	}
	return root, nil
}

func remove(root *document.Node, path document.Pointer) (*document.Node, *document.Node, error) {
	if len(path) == 0 {
		return nil, nil, errors.Errorf("cannot remove the document root")
	}
	parent, last, err := parentOf(root, path)
	if err != nil {
		return nil, nil, err
	}
	switch parent.Kind {
	case document.KindObject:
		value, ok := parent.Get(last)
		if !ok {
			return nil, nil, errors.Errorf("%s: member not found", path)
		}
		parent.Delete(last)
		return root, value, nil
	case document.KindArray:
		i, err := document.ArrayIndex(last, len(parent.Items), false)
		if err != nil {
			return nil, nil, errors.Errorf("%s: %w", path, err)
		}
		value := parent.Items[i]
		parent.Items = append(parent.Items[:i], parent.Items[i+1:]...)
		return root, value, nil
	}
	return nil, nil, errors.Errorf("%s: cannot remove from %s", path, parent.Kind)
}

func replace(root *document.Node, path document.Pointer, value *document.Node) (*document.Node, error) {
	if len(path) == 0 {
		return value, nil
	}
	parent, last, err := parentOf(root, path)
	if err != nil {
		return nil, err
	}
	switch parent.Kind {
	case document.KindObject:
		if _, ok := parent.Get(last); !ok {
			return nil, errors.Errorf("%s: member not found", path)
		}
		parent.Set(last, value)
	case document.KindArray:
		i, err := document.ArrayIndex(last, len(parent.Items), false)
		if err != nil {
			return nil, errors.Errorf("%s: %w", path, err)
		}
		parent.Items[i] = value
	default:
		return nil, errors.Errorf("%s: cannot replace inside %s", path, parent.Kind)
	}
	return root, nil
}
