package diff

import (
	"bytes"
	"fmt"
	"strings"
)

// DefaultContext is the number of unchanged lines shown around a change.
const DefaultContext = 3

// Hunk is a contiguous window of a diff with its line ranges. Starts are
// 1-based; a zero count is reported with the start of the preceding line,
// as unified diffs do.
type Hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
	Lines              []Line
}

// Hunks groups lines into windows around each change with context lines of
// surrounding context. Overlapping or adjacent windows are merged.
func Hunks(lines []Line, context int) []Hunk {
	if context < 0 {
		context = 0
	}

	type span struct{ start, end int }
	var spans []span
	for i, l := range lines {
		if l.Op == Context {
			continue
		}
		start := max(i-context, 0)
		end := min(i+context+1, len(lines))
		if len(spans) == 0 || start > spans[len(spans)-1].end {
			spans = append(spans, span{start: start, end: end})
			continue
		}
		if end > spans[len(spans)-1].end {
			spans[len(spans)-1].end = end
		}
	}

	hunks := make([]Hunk, 0, len(spans))
	oldLine, newLine, pos := 1, 1, 0
	advance := func(l Line) {
		switch l.Op {
		case Context:
			oldLine++
			newLine++
		case Removed:
			oldLine++
		case Added:
			newLine++
		}
	}
	for _, s := range spans {
		for ; pos < s.start; pos++ {
			advance(lines[pos])
		}
		h := Hunk{OldStart: oldLine, NewStart: newLine, Lines: lines[s.start:s.end]}
		for ; pos < s.end; pos++ {
			switch lines[pos].Op {
			case Context:
				h.OldCount++
				h.NewCount++
			case Removed:
				h.OldCount++
			case Added:
				h.NewCount++
			}
			advance(lines[pos])
		}
		if h.OldCount == 0 {
			h.OldStart--
		}
		if h.NewCount == 0 {
			h.NewStart--
		}
		hunks = append(hunks, h)
	}
	return hunks
}

// Header renders the "@@ -a,b +c,d @@" line of a hunk.
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
}

// Unified renders a unified diff of before and after for path, labelled
// with fromLabel and toLabel ("a/<path>" and "b/<path>" when empty). Equal
// contents render as "".
func Unified(path string, before, after []byte, context int, fromLabel, toLabel string) string {
	if bytes.Equal(before, after) {
		return ""
	}
	if fromLabel == "" {
		fromLabel = "a/" + path
	}
	if toLabel == "" {
		toLabel = "b/" + path
	}

	var b strings.Builder
	fmt.Fprintf(&b, "diff --myvcs a/%s b/%s\n", path, path)
	fmt.Fprintf(&b, "--- %s\n", fromLabel)
	fmt.Fprintf(&b, "+++ %s\n", toLabel)

	lines := Bytes(before, after)
	for _, h := range Hunks(lines, context) {
		b.WriteString(h.Header())
		b.WriteByte('\n')
		for _, l := range h.Lines {
			switch l.Op {
			case Context:
				b.WriteByte(' ')
			case Added:
				b.WriteByte('+')
			case Removed:
				b.WriteByte('-')
			}
			b.WriteString(l.Text)
			b.WriteByte('\n')
			if l.NoEOL {
				b.WriteString("\\ No newline at end of file\n")
			}
		}
	}
	return b.String()
}
