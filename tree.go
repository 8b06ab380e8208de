package tiktok

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Node is one value of a decoded JSON document: a Mapping, a Sequence or
// a Scalar.
type Node interface {
	node()
}

// Mapping is a JSON object. Keys holds the field names in visit order.
type Mapping struct {
	Keys   []string
	Fields map[string]Node
}

// Sequence is a JSON array.
type Sequence []Node

// Scalar is a JSON string, number, bool or null. Numbers are json.Number.
type Scalar struct {
	Value any
}

func (Mapping) node()  {}
func (Sequence) node() {}
func (Scalar) node()   {}

// Get returns the field named key.
func (m Mapping) Get(key string) (Node, bool) {
	n, ok := m.Fields[key]
	return n, ok
}

// ParseTree decodes a JSON document into a Node tree. Mapping keys are
// sorted so that walks are deterministic.
func ParseTree(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return toNode(v), nil
}

func toNode(v any) Node {
	switch t := v.(type) {
	case map[string]any:
		m := Mapping{Keys: make([]string, 0, len(t)), Fields: make(map[string]Node, len(t))}
		for k, child := range t {
			m.Keys = append(m.Keys, k)
			m.Fields[k] = toNode(child)
		}
		sort.Strings(m.Keys)
		return m
	case []any:
		seq := make(Sequence, 0, len(t))
		for _, child := range t {
			seq = append(seq, toNode(child))
		}
		return seq
	default:
		return Scalar{Value: t}
	}
}

// FindMapping walks root pre-order and returns the first Mapping for which
// match is true. Nodes deeper than maxDepth (root is depth 0) are not
// visited, so the walk always terminates.
func FindMapping(root Node, maxDepth int, match func(Mapping) bool) (Mapping, bool) {
	return findMapping(root, 0, maxDepth, match)
}

func findMapping(n Node, depth, maxDepth int, match func(Mapping) bool) (Mapping, bool) {
	if n == nil || depth > maxDepth {
		return Mapping{}, false
	}
	switch t := n.(type) {
	case Mapping:
		if match(t) {
			return t, true
		}
		for _, k := range t.Keys {
			if m, ok := findMapping(t.Fields[k], depth+1, maxDepth, match); ok {
				return m, true
			}
		}
	case Sequence:
		for _, child := range t {
			if m, ok := findMapping(child, depth+1, maxDepth, match); ok {
				return m, true
			}
		}
	}
	return Mapping{}, false
}

// countOf reads a non-negative integer from the first alias present in m.
// Numeric strings are accepted. found is false when no alias holds a
// usable count.
func countOf(m Mapping, aliases []string) (n int64, found bool) {
	for _, key := range aliases {
		child, ok := m.Get(key)
		if !ok {
			continue
		}
		s, ok := child.(Scalar)
		if !ok {
			continue
		}
		if v, ok := scalarCount(s.Value); ok {
			return v, true
		}
	}
	return 0, false
}

func scalarCount(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil && i >= 0 {
			return i, true
		}
		if f, err := t.Float64(); err == nil && f >= 0 && f == float64(int64(f)) {
			return int64(f), true
		}
	case float64:
		if t >= 0 && t == float64(int64(t)) {
			return int64(t), true
		}
	case string:
		return parseCount(t)
	}
	return 0, false
}

// parseCount parses a decimal count, ignoring thousands separators.
func parseCount(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
