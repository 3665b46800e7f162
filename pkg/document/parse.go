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
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tailscale/hujson"
	"gitlab.com/tozd/go/errors"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// ❌ ParseError reports a file that is not valid structural data
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// 📖 Parse decodes a config document. Game configs are JSON with comments and
// trailing commas, so the relaxed HuJSON grammar is accepted. name is only used
// to label errors.
func Parse(name string, data []byte) (*Node, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	v, err := hujson.Parse(data)
	if err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}

	n, err := fromValue(v.Value)
	if err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}
	return n, nil
}

func fromValue(v hujson.ValueTrimmed) (*Node, error) {
	switch t := v.(type) {
	case *hujson.Object:
		obj := &Node{Kind: KindObject, Fields: make([]*Field, 0, len(t.Members))}
		for _, m := range t.Members {
			name, ok := m.Name.Value.(hujson.Literal)
			if !ok {
				return nil, errors.Errorf("object member name is not a literal")
			}
			key, err := decodeString(name)
			if err != nil {
				return nil, errors.Errorf("decoding member name: %w", err)
			}
			val, err := fromValue(m.Value.Value)
			if err != nil {
				return nil, errors.Errorf("member %q: %w", key, err)
			}
			// duplicate keys: last value wins, first position is kept
			obj.Set(key, val)
		}
		return obj, nil
	case *hujson.Array:
		arr := &Node{Kind: KindArray, Items: make([]*Node, 0, len(t.Elements))}
		for i, e := range t.Elements {
			val, err := fromValue(e.Value)
			if err != nil {
				return nil, errors.Errorf("element %d: %w", i, err)
			}
			arr.Items = append(arr.Items, val)
		}
		return arr, nil
	case hujson.Literal:
		switch t.Kind() {
		case 'n':
			return Null(), nil
		case 't':
			return Bool(true), nil
		case 'f':
			return Bool(false), nil
		case '0':
			return Number(string(t)), nil
		case '"':
			s, err := decodeString(t)
			if err != nil {
				return nil, err
			}
			return String(s), nil
		}
		return nil, errors.Errorf("unexpected literal %q", string(t))
	}
	return nil, errors.Errorf("unexpected value type %T", v)
}

func decodeString(lit hujson.Literal) (string, error) {
	var s string
	if err := json.Unmarshal([]byte(lit), &s); err != nil {
		return "", errors.Errorf("decoding string literal: %w", err)
	}
	return s, nil
}
