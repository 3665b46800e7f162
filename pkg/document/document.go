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

package document

import (
	"math/big"
	"strconv"
)

// 🧩 Kind identifies the shape of a Node
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// 🌳 Node is one value of a parsed config document.
//
// Objects keep their members in document order. Member keys are unique; setting
// an existing key replaces its value in place. Numbers keep their literal text so
// that re-encoding does not change their representation.
type Node struct {
	Kind   Kind
	Bool   bool     // KindBool
	Text   string   // KindNumber literal or decoded KindString
	Items  []*Node  // KindArray
	Fields []*Field // KindObject
}

// 🔑 Field is a single object member
type Field struct {
	Key   string
	Value *Node
}

func Null() *Node { return &Node{Kind: KindNull} }

func Bool(b bool) *Node { return &Node{Kind: KindBool, Bool: b} }

func String(s string) *Node { return &Node{Kind: KindString, Text: s} }

// Number wraps a JSON number literal. The literal is not validated.
func Number(literal string) *Node { return &Node{Kind: KindNumber, Text: literal} }

func Int(i int64) *Node { return Number(strconv.FormatInt(i, 10)) }

func Array(items ...*Node) *Node {
	if items == nil {
		items = []*Node{}
	}
	return &Node{Kind: KindArray, Items: items}
}

// Object builds an object from alternating key/value pairs.
func Object(pairs ...any) *Node {
	n := &Node{Kind: KindObject, Fields: []*Field{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		n.Set(pairs[i].(string), pairs[i+1].(*Node))
	}
	return n
}

// IsContainer reports whether the node is an array or an object
func (n *Node) IsContainer() bool {
	return n.Kind == KindArray || n.Kind == KindObject
}

// IndexOf returns the position of key among the object's members, or -1
func (n *Node) IndexOf(key string) int {
	for i, f := range n.Fields {
		if f.Key == key {
			return i
		}
	}
	return -1
}

// Get returns the member value for key
func (n *Node) Get(key string) (*Node, bool) {
	if i := n.IndexOf(key); i >= 0 {
		return n.Fields[i].Value, true
	}
	return nil, false
}

// Set replaces the value of an existing member, keeping its position, or appends a new one.
func (n *Node) Set(key string, v *Node) {
	if i := n.IndexOf(key); i >= 0 {
		n.Fields[i].Value = v
		return
	}
	n.Fields = append(n.Fields, &Field{Key: key, Value: v})
}

// Delete removes key and reports whether it was present
func (n *Node) Delete(key string) bool {
	i := n.IndexOf(key)
	if i < 0 {
		return false
	}
	n.Fields = append(n.Fields[:i], n.Fields[i+1:]...)
	return true
}

// Keys returns member keys in document order
func (n *Node) Keys() []string {
	keys := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Clone returns a deep copy
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Kind: n.Kind, Bool: n.Bool, Text: n.Text}
	switch n.Kind {
	case KindArray:
		c.Items = make([]*Node, len(n.Items))
		for i, it := range n.Items {
			c.Items[i] = it.Clone()
		}
	case KindObject:
		c.Fields = make([]*Field, len(n.Fields))
		for i, f := range n.Fields {
			c.Fields[i] = &Field{Key: f.Key, Value: f.Value.Clone()}
		}
	}
	return c
}

// 🟰 Equal reports structural equality.
//
// Object member order is ignored, array order is not, and numbers compare by value
// so that 40 and 40.0 are equal.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindString:
		return a.Text == b.Text
	case KindNumber:
		return numbersEqual(a.Text, b.Text)
	case KindArray:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		index := b.fieldIndex()
		for _, f := range a.Fields {
			other, ok := index[f.Key]
			if !ok || !Equal(f.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}

// FieldIndex maps member keys to values for repeated lookups
func (n *Node) FieldIndex() map[string]*Node {
	return n.fieldIndex()
}

func (n *Node) fieldIndex() map[string]*Node {
	index := make(map[string]*Node, len(n.Fields))
	for _, f := range n.Fields {
		index[f.Key] = f.Value
	}
	return index
}

// numbersEqual compares literals by exact value, so 40 equals 40.0 but integers
// beyond float64 precision stay distinct
func numbersEqual(a, b string) bool {
	if a == b {
		return true
	}
	ra, okA := new(big.Rat).SetString(a)
	rb, okB := new(big.Rat).SetString(b)
	if !okA || !okB {
		return false
	}
	return ra.Cmp(rb) == 0
}
