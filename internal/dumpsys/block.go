package dumpsys

import "strings"

// ExtractBlock finds the first occurrence of start in text and returns the
// brace-balanced span beginning at the first '{' after it, braces included.
// It reports false when start is missing, no '{' follows it, or the text
// ends before the braces balance.
func ExtractBlock(text, start string) (string, bool) {
	idx := strings.Index(text, start)
	if idx < 0 {
		return "", false
	}
	rest := text[idx+len(start):]
	open := strings.IndexByte(rest, '{')
	if open < 0 {
		return "", false
	}

	depth := 0
	for i := open; i < len(rest); i++ {
		switch rest[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[open : i+1], true
			}
		}
	}
	return "", false
}

// Reindent rewrites a brace-delimited block as an indented sub-block under
// header, so the result can be handed to Parse. Each '{' opens one level of
// two-space indentation and each '}' closes one; text before a '{' becomes
// a "key:" opener. Comma-separated fields land on separate lines at the
// current depth.
func Reindent(header, block string) string {
	var out strings.Builder
	out.WriteString(header)
	out.WriteByte('\n')

	depth := 0
	var seg strings.Builder
	flush := func(opener bool) {
		line := strings.TrimSpace(seg.String())
		seg.Reset()
		if line == "" {
			return
		}
		if opener && !strings.HasSuffix(line, ":") {
			line += ":"
		}
		out.WriteString(strings.Repeat("  ", depth))
		out.WriteString(line)
		out.WriteByte('\n')
	}

	for i := 0; i < len(block); i++ {
		switch c := block[i]; c {
		case '{':
			flush(true)
			depth++
		case '}':
			flush(false)
			if depth > 0 {
				depth--
			}
		case '\n', ',':
			flush(false)
		default:
			seg.WriteByte(c)
		}
	}
	flush(false)

	return out.String()
}
