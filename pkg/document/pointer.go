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
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 📍 Pointer is a parsed RFC 6901 JSON Pointer. The empty pointer addresses the root.
type Pointer []string

var tokenEscaper = strings.NewReplacer("~", "~0", "/", "~1")
var tokenUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// ParsePointer parses the textual form of a pointer
func ParsePointer(s string) (Pointer, error) {
	if s == "" {
		return Pointer{}, nil
	}
	if !strings.HasPrefix(s, "/") {
		return nil, errors.Errorf("pointer %q must start with /", s)
	}
	parts := strings.Split(s[1:], "/")
	p := make(Pointer, len(parts))
	for i, part := range parts {
		p[i] = tokenUnescaper.Replace(part)
	}
	return p, nil
}

func (p Pointer) String() string {
	var b strings.Builder
	for _, tok := range p {
		b.WriteByte('/')
		b.WriteString(tokenEscaper.Replace(tok))
	}
	return b.String()
}

// Append returns a new pointer with tok added; p is left untouched
func (p Pointer) Append(tok string) Pointer {
	out := make(Pointer, len(p), len(p)+1)
	copy(out, p)
	return append(out, tok)
}

// AppendIndex is Append for array positions
func (p Pointer) AppendIndex(i int) Pointer {
	return p.Append(strconv.Itoa(i))
}

// IsPrefixOf reports whether p addresses an ancestor of (or the same value as) other
func (p Pointer) IsPrefixOf(other Pointer) bool {
	if len(p) > len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// ArrayIndex resolves tok against an array of the given length. "-" resolves to
// length when allowEnd is set, as does an explicit index equal to length.
func ArrayIndex(tok string, length int, allowEnd bool) (int, error) {
	if tok == "-" {
		if allowEnd {
			return length, nil
		}
		return 0, errors.Errorf("index - is only valid when adding")
	}
	if tok == "" || (len(tok) > 1 && tok[0] == '0') {
		return 0, errors.Errorf("invalid array index %q", tok)
	}
	for _, c := range tok {
		if c < '0' || c > '9' {
			return 0, errors.Errorf("invalid array index %q", tok)
		}
	}
	i, err := strconv.Atoi(tok)
	if err != nil {
		return 0, errors.Errorf("invalid array index %q", tok)
	}
	limit := length - 1
	if allowEnd {
		limit = length
	}
	if i > limit {
		return 0, errors.Errorf("array index %d out of range (length %d)", i, length)
	}
	return i, nil
}

// Resolve returns the value p addresses within root
func (p Pointer) Resolve(root *Node) (*Node, error) {
	cur := root
	for depth, tok := range p {
		switch cur.Kind {
		case KindObject:
			next, ok := cur.Get(tok)
			if !ok {
				return nil, errors.Errorf("%s: member %q not found", p[:depth+1], tok)
			}
			cur = next
		case KindArray:
			i, err := ArrayIndex(tok, len(cur.Items), false)
			if err != nil {
				return nil, errors.Errorf("%s: %w", p[:depth+1], err)
			}
			cur = cur.Items[i]
		default:
			return nil, errors.Errorf("%s: cannot descend into %s", p[:depth+1], cur.Kind)
		}
	}
	return cur, nil
}
