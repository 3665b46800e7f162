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
	"bytes"
	"encoding/json"

	"github.com/walteh/sbmod/pkg/document"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Op names an RFC 6902 operation
type Op string

const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpReplace Op = "replace"
	OpMove    Op = "move"
	OpCopy    Op = "copy"
	OpTest    Op = "test"
)

func (o Op) takesValue() bool {
	return o == OpAdd || o == OpReplace || o == OpTest
}

func (o Op) takesFrom() bool {
	return o == OpMove || o == OpCopy
}

func (o Op) valid() bool {
	switch o {
	case OpAdd, OpRemove, OpReplace, OpMove, OpCopy, OpTest:
		return true
	}
	return false
}

// 📝 Operation is a single patch step. Path and From are JSON Pointers.
type Operation struct {
	Op    Op
	Path  string
	From  string         // move, copy
	Value *document.Node // add, replace, test
}

// 📦 Patch is an ordered list of operations, applied strictly in order
type Patch []Operation

// MarshalJSON writes the record as {op, path, value} or {op, from, path}
func (o Operation) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"op":`)
	if err := writeJSONString(&buf, string(o.Op)); err != nil {
		return nil, err
	}
	if o.Op.takesFrom() {
		buf.WriteString(`,"from":`)
		if err := writeJSONString(&buf, o.From); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`,"path":`)
	if err := writeJSONString(&buf, o.Path); err != nil {
		return nil, err
	}
	if o.Op.takesValue() {
		buf.WriteString(`,"value":`)
		value := o.Value
		if value == nil {
			value = document.Null()
		}
		raw, err := value.MarshalJSON()
		if err != nil {
			return nil, errors.Errorf("encoding value at %s: %w", o.Path, err)
		}
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// 💾 Serialize renders the patch as a JSON array in operation order. An empty
// patch is exactly "[]".
func Serialize(p Patch) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, op := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		raw, err := op.MarshalJSON()
		if err != nil {
			return nil, errors.Errorf("serializing operation %d: %w", i, err)
		}
		buf.Write(raw)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// 📖 Decode parses a serialized patch
func Decode(data []byte) (Patch, error) {
	doc, err := document.Parse("patch", data)
	if err != nil {
		return nil, err
	}
	if doc.Kind != document.KindArray {
		return nil, errors.Errorf("patch must be an array, got %s", doc.Kind)
	}

	p := make(Patch, 0, len(doc.Items))
	for i, item := range doc.Items {
		op, err := decodeOperation(item)
		if err != nil {
			return nil, errors.Errorf("operation %d: %w", i, err)
		}
		p = append(p, op)
	}
	return p, nil
}

func decodeOperation(n *document.Node) (Operation, error) {
	if n.Kind != document.KindObject {
		return Operation{}, errors.Errorf("expected object, got %s", n.Kind)
	}

	str := func(key string) (string, error) {
		v, ok := n.Get(key)
		if !ok {
			return "", errors.Errorf("missing %q", key)
		}
		if v.Kind != document.KindString {
			return "", errors.Errorf("%q must be a string", key)
		}
		return v.Text, nil
	}

	name, err := str("op")
	if err != nil {
		return Operation{}, err
	}
	op := Operation{Op: Op(name)}
	if !op.Op.valid() {
		return Operation{}, errors.Errorf("unknown op %q", name)
	}
	if op.Path, err = str("path"); err != nil {
		return Operation{}, err
	}
	if op.Op.takesFrom() {
		if op.From, err = str("from"); err != nil {
			return Operation{}, err
		}
	}
	if op.Op.takesValue() {
		v, ok := n.Get("value")
		if !ok {
			return Operation{}, errors.Errorf("missing %q", "value")
		}
		op.Value = v
	}
	return op, nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return errors.Errorf("encoding string: %w", err)
	}
	// Encode terminates with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}
