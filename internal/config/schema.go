package config

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Node is one position in the configuration schema. Merge overlays raw on
// top of current and returns the merged value; raw is whatever the YAML
// decoder produced for that position.
type Node interface {
	Default() any
	Merge(path string, current, raw any) (any, error)
}

// Field names a child of a map node.
type Field struct {
	Name string
	Node Node
}

// F is shorthand for building a Field.
func F(name string, n Node) Field {
	return Field{Name: name, Node: n}
}

type boolNode struct{ def bool }

// Bool is a boolean scalar.
func Bool(def bool) Node { return boolNode{def: def} }

func (n boolNode) Default() any { return n.def }

func (n boolNode) Merge(path string, current, raw any) (any, error) {
	if raw == nil {
		return current, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return nil, typeError(path, "boolean", raw)
	}
	return b, nil
}

type intNode struct{ def int }

// Int is an integer scalar.
func Int(def int) Node { return intNode{def: def} }

func (n intNode) Default() any { return n.def }

func (n intNode) Merge(path string, current, raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return current, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		if v <= math.MaxInt {
			return int(v), nil
		}
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
	}
	return nil, typeError(path, "integer", raw)
}

type stringNode struct{ def string }

// String is a string scalar.
func String(def string) Node { return stringNode{def: def} }

func (n stringNode) Default() any { return n.def }

func (n stringNode) Merge(path string, current, raw any) (any, error) {
	if raw == nil {
		return current, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, typeError(path, "string", raw)
	}
	return s, nil
}

// StringListNode is a sequence of strings. User values replace the current
// sequence unless Append is set.
type StringListNode struct {
	def    []string
	append bool
}

// StringList is a sequence of strings with the given default.
func StringList(def ...string) *StringListNode {
	return &StringListNode{def: def}
}

// Append switches the node to append semantics.
func (n *StringListNode) Append() *StringListNode {
	return &StringListNode{def: n.def, append: true}
}

func (n *StringListNode) Default() any {
	return append([]string{}, n.def...)
}

func (n *StringListNode) Merge(path string, current, raw any) (any, error) {
	if raw == nil {
		return current, nil
	}
	seq, ok := raw.([]any)
	if !ok {
		return nil, typeError(path, "sequence", raw)
	}
	var out []string
	if n.append {
		cur, _ := current.([]string)
		out = append(out, cur...)
	}
	for i, item := range seq {
		s, ok := item.(string)
		if !ok {
			return nil, typeError(indexPath(path, i), "string", item)
		}
		out = append(out, s)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

type listNode struct {
	elem Node
}

// List is a sequence whose items are validated by elem. User values always
// replace the default.
func List(elem Node) Node { return listNode{elem: elem} }

func (n listNode) Default() any { return []any{} }

func (n listNode) Merge(path string, current, raw any) (any, error) {
	if raw == nil {
		return current, nil
	}
	seq, ok := raw.([]any)
	if !ok {
		return nil, typeError(path, "sequence", raw)
	}
	out := make([]any, 0, len(seq))
	for i, item := range seq {
		v, err := n.elem.Merge(indexPath(path, i), n.elem.Default(), item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// MapNode is a mapping with a fixed set of keys. Unknown keys are rejected.
type MapNode struct {
	fields []Field
	index  map[string]int
}

// Map builds a mapping node from fields. Later fields with the same name
// replace earlier ones.
func Map(fields ...Field) *MapNode {
	m := &MapNode{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if i, ok := m.index[f.Name]; ok {
			m.fields[i] = f
			continue
		}
		m.index[f.Name] = len(m.fields)
		m.fields = append(m.fields, f)
	}
	return m
}

// Fields returns the field names in declaration order.
func (n *MapNode) Fields() []string {
	names := make([]string, len(n.fields))
	for i, f := range n.fields {
		names[i] = f.Name
	}
	return names
}

func (n *MapNode) Default() any {
	out := make(map[string]any, len(n.fields))
	for _, f := range n.fields {
		out[f.Name] = f.Node.Default()
	}
	return out
}

func (n *MapNode) Merge(path string, current, raw any) (any, error) {
	cur, _ := current.(map[string]any)
	if cur == nil {
		cur, _ = n.Default().(map[string]any)
	}
	if raw == nil {
		return cur, nil
	}
	in, ok := raw.(map[string]any)
	if !ok {
		return nil, typeError(path, "mapping", raw)
	}
	var unknown []string
	for key := range in {
		if _, known := n.index[key]; !known {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &ConfigurationError{Path: joinPath(path, unknown[0]), Msg: "unrecognized option"}
	}

	out := make(map[string]any, len(n.fields))
	for _, f := range n.fields {
		v, err := f.Node.Merge(joinPath(path, f.Name), cur[f.Name], in[f.Name])
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

func typeError(path, expected string, actual any) error {
	return &ConfigurationError{Path: path, Expected: expected, Actual: kindOf(actual)}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case int, int64, uint64:
		return "integer"
	case float64:
		return "float"
	case string:
		return "string"
	case []any:
		return "sequence"
	case map[string]any:
		return "mapping"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
