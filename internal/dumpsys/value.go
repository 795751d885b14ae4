// Package dumpsys parses the indentation-nested text reports printed by
// Android's dumpsys into a tree of typed values.
//
// The parser is tolerant by construction: any input produces a tree, and
// lines it cannot classify are kept as raw strings under ItemsKey rather
// than rejected.
package dumpsys

import (
	"strconv"
)

// ItemsKey collects bare lines (no "key:" prefix) found at one indentation level.
const ItemsKey = "_items"

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindNull is a key that appeared with no value and no children.
	KindNull Kind = iota
	// KindBool is a true/false literal.
	KindBool
	// KindNumber is any text that parsed fully as a number.
	KindNumber
	// KindString is the fallback primitive.
	KindString
	// KindNode is a nested block.
	KindNode
	// KindList holds the values of a key repeated at one level, in input order.
	KindList
)

// String returns the kind name.
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
	case KindNode:
		return "node"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a tagged variant over the shapes a dump field can take.
// The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string // string value, or the source text of a parsed primitive
	node Node
	list []Value
}

// Node is one nested block of a dump. Children are owned exclusively by
// their parent; the parser never shares a Node between two keys.
type Node map[string]Value

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a number.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// NodeValue wraps a nested node. A nil node is stored as an empty one.
func NodeValue(n Node) Value {
	if n == nil {
		n = Node{}
	}
	return Value{kind: KindNode, node: n}
}

// List wraps an ordered sequence of values.
func List(vs ...Value) Value {
	return Value{kind: KindList, list: vs}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string held by v. Only KindString succeeds; use Text
// for a rendering of any primitive.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsNode returns the nested node held by v.
func (v Value) AsNode() (Node, bool) {
	if v.kind != KindNode {
		return nil, false
	}
	return v.node, true
}

// AsList returns the sequence held by v.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// Items normalizes v to a slice: a list yields its elements, null yields
// nothing, and anything else yields a single element.
func (v Value) Items() []Value {
	switch v.kind {
	case KindList:
		return v.list
	case KindNull:
		return nil
	default:
		return []Value{v}
	}
}

// IsPrimitive reports whether v is a bool, number, or string.
func (v Value) IsPrimitive() bool {
	return v.kind == KindBool || v.kind == KindNumber || v.kind == KindString
}

// Text renders a primitive as it would appear in a dump. Values produced
// by ParsePrimitive render their source text verbatim. Nodes, lists, and
// null render as the empty string.
func (v Value) Text() string {
	if v.IsPrimitive() && v.s != "" {
		return v.s
	}
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindString:
		return v.s
	default:
		return ""
	}
}

// Interface converts v into plain Go values (bool, float64, string,
// map[string]any, []any, nil) for JSON and YAML encoders.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindNode:
		return v.node.Interface()
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// Get returns the value stored under key.
func (n Node) Get(key string) (Value, bool) {
	v, ok := n[key]
	return v, ok
}

// Lookup walks nested nodes along path. Every step except the last must
// hold a node.
func (n Node) Lookup(path ...string) (Value, bool) {
	if len(path) == 0 {
		return NodeValue(n), true
	}
	cur := n
	for i, key := range path {
		v, ok := cur[key]
		if !ok {
			return Value{}, false
		}
		if i == len(path)-1 {
			return v, true
		}
		next, ok := v.AsNode()
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return Value{}, false
}

// Interface converts n into a map[string]any.
func (n Node) Interface() map[string]any {
	out := make(map[string]any, len(n))
	for k, v := range n {
		out[k] = v.Interface()
	}
	return out
}
