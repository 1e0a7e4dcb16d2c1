package annotations

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Value is either an Annotation or a *Group.
type Value interface {
	isValue()
}

// Annotation is the human-written description of a file.
type Annotation string

func (Annotation) isValue() {}

// Group maps names to values and keeps keys in insertion order, so a store
// read from disk is written back in the same order with new keys appended.
type Group struct {
	keys   []string
	values map[string]Value
}

func (*Group) isValue() {}

func NewGroup() *Group {
	return &Group{values: make(map[string]Value)}
}

func (g *Group) Len() int {
	if g == nil {
		return 0
	}
	return len(g.keys)
}

func (g *Group) Keys() []string {
	if g == nil {
		return nil
	}
	return append([]string(nil), g.keys...)
}

func (g *Group) Get(name string) (Value, bool) {
	if g == nil {
		return nil, false
	}
	v, ok := g.values[name]
	return v, ok
}

func (g *Group) Has(name string) bool {
	_, ok := g.Get(name)
	return ok
}

// Set stores v under name. An existing key keeps its position.
func (g *Group) Set(name string, v Value) {
	if g.values == nil {
		g.values = make(map[string]Value)
	}
	if _, ok := g.values[name]; !ok {
		g.keys = append(g.keys, name)
	}
	g.values[name] = v
}

// Text returns the annotation stored under name. ok is false when the key is
// absent or holds a group.
func (g *Group) Text(name string) (string, bool) {
	v, found := g.Get(name)
	if !found {
		return "", false
	}
	a, ok := v.(Annotation)
	return string(a), ok
}

// Sub returns the group stored under name, or nil when the key is absent or
// holds an annotation. A nil *Group behaves as an empty group for reads.
func (g *Group) Sub(name string) *Group {
	v, found := g.Get(name)
	if !found {
		return nil
	}
	sub, _ := v.(*Group)
	return sub
}

func (g *Group) Equal(other *Group) bool {
	if g.Len() != other.Len() {
		return false
	}
	for _, k := range g.Keys() {
		a, _ := g.Get(k)
		b, ok := other.Get(k)
		if !ok {
			return false
		}
		switch av := a.(type) {
		case Annotation:
			bv, ok := b.(Annotation)
			if !ok || av != bv {
				return false
			}
		case *Group:
			bv, ok := b.(*Group)
			if !ok || !av.Equal(bv) {
				return false
			}
		}
	}
	return true
}

func (g *Group) Clone() *Group {
	out := NewGroup()
	for _, k := range g.Keys() {
		v, _ := g.Get(k)
		if sub, ok := v.(*Group); ok {
			out.Set(k, sub.Clone())
			continue
		}
		out.Set(k, v)
	}
	return out
}

func (g *Group) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := g.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Group) encode(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, k := range g.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')

		v, _ := g.Get(k)
		switch val := v.(type) {
		case Annotation:
			if err := encodeString(buf, string(val)); err != nil {
				return err
			}
		case *Group:
			if err := val.encode(buf); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported value at %q: %T", k, v)
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode always terminates with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

func (g *Group) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	parsed, err := decodeDocument(dec)
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}

// decodeDocument reads exactly one JSON object from dec.
func decodeDocument(dec *json.Decoder) (*Group, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("top level must be an object, got %v", describeToken(tok))
	}

	g, err := decodeGroup(dec, nil)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level object")
	}
	return g, nil
}

// decodeGroup reads object members after the opening brace has been consumed.
func decodeGroup(dec *json.Decoder, path []string) (*Group, error) {
	g := NewGroup()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected key at %s", joinPath(path))
		}
		keyPath := append(append([]string(nil), path...), key)

		tok, err = dec.Token()
		if err != nil {
			return nil, err
		}
		switch val := tok.(type) {
		case string:
			g.Set(key, Annotation(val))
		case nil:
			g.Set(key, Annotation(""))
		case json.Delim:
			if val != '{' {
				return nil, fmt.Errorf("unexpected %s at %s: expected string or object", describeToken(tok), joinPath(keyPath))
			}
			sub, err := decodeGroup(dec, keyPath)
			if err != nil {
				return nil, err
			}
			g.Set(key, sub)
		default:
			return nil, fmt.Errorf("unexpected %s at %s: expected string or object", describeToken(tok), joinPath(keyPath))
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return g, nil
}

func describeToken(tok json.Token) string {
	switch v := tok.(type) {
	case json.Delim:
		if v == '[' {
			return "array"
		}
		return fmt.Sprintf("%q", v.String())
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case nil:
		return "null"
	case string:
		return "string"
	}
	return fmt.Sprintf("%T", tok)
}

func joinPath(path []string) string {
	if len(path) == 0 {
		return "<root>"
	}
	return strings.Join(path, "/")
}
