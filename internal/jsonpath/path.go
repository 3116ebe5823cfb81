// Package jsonpath walks declarative field paths over decoded JSON payloads.
//
// A path is an ordered list of segments. A segment either descends into an
// object by key or into an array by index. Lookups never fail loudly: a missing
// key, an out-of-range index or a type mismatch all mean the value is absent.
package jsonpath

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Segment is one step of a Path. It is either a Key or an Index
type Segment interface {
	segment()
	String() string
}

// Key descends into an object member
type Key string

// Index descends into an array element
type Index int

func (Key) segment()   {}
func (Index) segment() {}

func (k Key) String() string   { return string(k) }
func (i Index) String() string { return strconv.Itoa(int(i)) }

// Path is an ordered sequence of segments
type Path []Segment

// String renders the path in a $.a.b[0] form for logs
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("$")
	for _, s := range p {
		switch seg := s.(type) {
		case Key:
			b.WriteString(".")
			b.WriteString(string(seg))
		case Index:
			fmt.Fprintf(&b, "[%d]", int(seg))
		}
	}
	return b.String()
}

// UnmarshalYAML decodes a sequence of scalars where integers become Index segments and
// everything else becomes Key segments
func (p *Path) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("path must be a sequence, got %s", node.ShortTag())
	}

	path := make(Path, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return fmt.Errorf("path segment must be a scalar at line %d", item.Line)
		}
		if item.ShortTag() == "!!int" {
			index, err := strconv.Atoi(item.Value)
			if err != nil {
				return fmt.Errorf("invalid array index %q: %w", item.Value, err)
			}
			if index < 0 {
				return fmt.Errorf("array index must not be negative: %d", index)
			}
			path = append(path, Index(index))
			continue
		}
		path = append(path, Key(item.Value))
	}

	*p = path
	return nil
}

// Decode parses a JSON payload into a generic value tree. Numbers are kept as json.Number
// so large integers survive untouched
func Decode(raw []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return value, nil
}

// Lookup walks the path over the value tree. It reports false when any descent fails
func Lookup(root any, path Path) (any, bool) {
	current := root
	for _, s := range path {
		switch seg := s.(type) {
		case Key:
			object, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			next, ok := object[string(seg)]
			if !ok {
				return nil, false
			}
			current = next
		case Index:
			array, ok := current.([]any)
			if !ok || int(seg) < 0 || int(seg) >= len(array) {
				return nil, false
			}
			current = array[seg]
		default:
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

// LookupString walks the path and renders a scalar result as text.
// Objects, arrays and empty strings count as absent
func LookupString(root any, path Path) (string, bool) {
	value, ok := Lookup(root, path)
	if !ok {
		return "", false
	}

	var s string
	switch v := value.(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case bool:
		s = strconv.FormatBool(v)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return "", false
	}

	if s == "" {
		return "", false
	}
	return s, true
}
