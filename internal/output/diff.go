package output

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DumpDiff returns a line-oriented diff between two telecom dumps, with
// "+"/"-" prefixed changed lines and unchanged lines omitted. It returns ""
// when the dumps are equal.
func DumpDiff(prev, cur string) string {
	if prev == cur {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(prev, cur)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var sb strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(strings.TrimSuffix(line, "\n"))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
