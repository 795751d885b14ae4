package dumpsys

import (
	"math"
	"strconv"
	"strings"
)

// ParsePrimitive coerces a raw field value. "true"/"false" in any case
// become booleans, text that parses fully as a finite number becomes a
// number, and everything else is kept as the original string. Coerced
// values remember raw, so Text of "007" is still "007".
func ParsePrimitive(raw string) Value {
	if strings.EqualFold(raw, "true") {
		return Value{kind: KindBool, b: true, s: raw}
	}
	if strings.EqualFold(raw, "false") {
		return Value{kind: KindBool, b: false, s: raw}
	}
	if strings.TrimSpace(raw) != "" {
		if n, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
			return Value{kind: KindNumber, n: n, s: raw}
		}
	}
	return String(raw)
}

// Accumulate stores v under key. A second value for the same key turns the
// entry into a list; later values append to it.
func Accumulate(n Node, key string, v Value) {
	existing, ok := n[key]
	if !ok {
		n[key] = v
		return
	}
	if list, ok := existing.AsList(); ok {
		n[key] = List(append(list, v)...)
		return
	}
	n[key] = List(existing, v)
}

type frame struct {
	indent int
	node   Node
}

// Parse converts indentation-nested "key: value" text into a Node.
//
// A "key:" line with nothing after the colon opens a nested block when the
// next non-blank line is indented deeper; otherwise the key is stored as
// null. Lines without a key are collected under ItemsKey. Parse never fails
// and runs in a single pass over the input.
func Parse(text string) Node {
	lines := strings.Split(text, "\n")
	indents := make([]int, len(lines))
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		lines[i] = line
		if strings.TrimSpace(line) == "" {
			indents[i] = -1
			continue
		}
		indents[i] = indentWidth(line)
	}

	// next[i] is the indentation of the first non-blank line after i, or -1.
	next := make([]int, len(lines))
	following := -1
	for i := len(lines) - 1; i >= 0; i-- {
		next[i] = following
		if indents[i] >= 0 {
			following = indents[i]
		}
	}

	root := Node{}
	stack := []frame{{indent: -1, node: root}}

	for i, line := range lines {
		indent := indents[i]
		if indent < 0 {
			continue
		}
		for len(stack) > 1 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		content := strings.TrimSpace(line)

		key, value, ok := splitField(content)
		if !ok {
			Accumulate(parent, ItemsKey, String(content))
			continue
		}
		if value != "" {
			Accumulate(parent, key, ParsePrimitive(value))
			continue
		}
		if next[i] > indent {
			child := Node{}
			Accumulate(parent, key, NodeValue(child))
			stack = append(stack, frame{indent: indent, node: child})
			continue
		}
		Accumulate(parent, key, Null())
	}

	return root
}

// splitField splits "key: value" on the first colon. The key must be
// non-empty; the value is trimmed and may be empty.
func splitField(content string) (key, value string, ok bool) {
	key, value, found := strings.Cut(content, ":")
	if !found || key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

func indentWidth(line string) int {
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return n
}
