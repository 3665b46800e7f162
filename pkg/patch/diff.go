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
)

// lcsBudget caps the cells of the array alignment table. Larger arrays are
// compared position by position instead.
const lcsBudget = 1 << 22

// 🔍 Diff computes the operations that turn pristine into modified.
//
// Objects produce removes (pristine order), recursive edits for shared members,
// then adds (modified order). A removed container member equal to an added one is
// emitted as a move. Arrays are aligned on their longest common subsequence.
func Diff(pristine, modified *document.Node) Patch {
	d := &differ{ops: Patch{}}
	d.diff(document.Pointer{}, pristine, modified)
	return d.ops
}

type differ struct {
	ops Patch
}

func (d *differ) emit(op Op, path document.Pointer, value *document.Node) {
	d.ops = append(d.ops, Operation{Op: op, Path: path.String(), Value: value})
}

func (d *differ) diff(path document.Pointer, a, b *document.Node) {
	switch {
	case a.Kind == document.KindObject && b.Kind == document.KindObject:
		d.diffObjects(path, a, b)
	case a.Kind == document.KindArray && b.Kind == document.KindArray:
		d.diffArrays(path, a.Items, b.Items)
	case !document.Equal(a, b):
		d.emit(OpReplace, path, b)
	}
}

func (d *differ) diffObjects(path document.Pointer, a, b *document.Node) {
	aIndex := a.FieldIndex()
	bIndex := b.FieldIndex()

	var removed, added []*document.Field
	for _, f := range a.Fields {
		if _, ok := bIndex[f.Key]; !ok {
			removed = append(removed, f)
		}
	}
	for _, f := range b.Fields {
		if _, ok := aIndex[f.Key]; !ok {
			added = append(added, f)
		}
	}

	// added key -> removed key it was renamed from
	renames := map[string]string{}
	claimed := map[string]bool{}
	for _, add := range added {
		if !movable(add.Value) {
			continue
		}
		for _, rem := range removed {
			if claimed[rem.Key] || !document.Equal(rem.Value, add.Value) {
				continue
			}
			renames[add.Key] = rem.Key
			claimed[rem.Key] = true
			break
		}
	}

	for _, rem := range removed {
		if !claimed[rem.Key] {
			d.emit(OpRemove, path.Append(rem.Key), nil)
		}
	}

	for _, f := range a.Fields {
		if other, ok := bIndex[f.Key]; ok {
			d.diff(path.Append(f.Key), f.Value, other)
		}
	}

	for _, add := range added {
		if from, ok := renames[add.Key]; ok {
			d.ops = append(d.ops, Operation{
				Op:   OpMove,
				From: path.Append(from).String(),
				Path: path.Append(add.Key).String(),
			})
			continue
		}
		d.emit(OpAdd, path.Append(add.Key), add.Value)
	}
}

// movable limits move detection to non-empty containers, where a move is
// shorter than a remove plus an add
func movable(n *document.Node) bool {
	switch n.Kind {
	case document.KindArray:
		return len(n.Items) > 0
	case document.KindObject:
		return len(n.Fields) > 0
	}
	return false
}

type editKind uint8

const (
	editKeep editKind = iota
	editDelete
	editInsert
)

type edit struct {
	kind editKind
	node *document.Node
}

func (d *differ) diffArrays(path document.Pointer, a, b []*document.Node) {
	start := 0
	for start < len(a) && start < len(b) && document.Equal(a[start], b[start]) {
		start++
	}
	endA, endB := len(a), len(b)
	for endA > start && endB > start && document.Equal(a[endA-1], b[endB-1]) {
		endA--
		endB--
	}

	script := alignItems(a[start:endA], b[start:endB])

	// pos tracks the index into the array as patched so far
	pos := start
	var dels, ins []*document.Node
	flush := func() {
		k := 0
		for ; k < len(dels) && k < len(ins); k++ {
			d.diff(path.AppendIndex(pos), dels[k], ins[k])
			pos++
		}
		for r := k; r < len(dels); r++ {
			d.emit(OpRemove, path.AppendIndex(pos), nil)
		}
		for r := k; r < len(ins); r++ {
			d.emit(OpAdd, path.AppendIndex(pos), ins[r])
			pos++
		}
		dels, ins = nil, nil
	}

	for _, e := range script {
		switch e.kind {
		case editKeep:
			flush()
			pos++
		case editDelete:
			dels = append(dels, e.node)
		case editInsert:
			ins = append(ins, e.node)
		}
	}
	flush()
}

// alignItems returns an edit script turning a into b
func alignItems(a, b []*document.Node) []edit {
	n, m := len(a), len(b)
	script := make([]edit, 0, n+m)

	if n == 0 || m == 0 || (n+1)*(m+1) > lcsBudget {
		for _, it := range a {
			script = append(script, edit{kind: editDelete, node: it})
		}
		for _, it := range b {
			script = append(script, edit{kind: editInsert, node: it})
		}
		return script
	}

	// table[i*(m+1)+j] is the LCS length of a[i:] and b[j:]
	width := m + 1
	table := make([]int32, (n+1)*width)
	equal := make([]bool, n*m)
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if document.Equal(a[i], b[j]) {
				equal[i*m+j] = true
				table[i*width+j] = table[(i+1)*width+j+1] + 1
			} else {
				table[i*width+j] = max(table[(i+1)*width+j], table[i*width+j+1])
			}
		}
	}

	i, j := 0, 0
	for i < n && j < m {
		switch {
		case equal[i*m+j]:
			script = append(script, edit{kind: editKeep, node: a[i]})
			i++
			j++
		case table[(i+1)*width+j] >= table[i*width+j+1]:
			script = append(script, edit{kind: editDelete, node: a[i]})
			i++
		default:
			script = append(script, edit{kind: editInsert, node: b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		script = append(script, edit{kind: editDelete, node: a[i]})
	}
	for ; j < m; j++ {
		script = append(script, edit{kind: editInsert, node: b[j]})
	}
	return script
}
