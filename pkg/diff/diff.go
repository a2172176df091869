// Package diff aligns two texts line by line with a longest common
// subsequence and renders the result as unified hunks.
package diff

import "strings"

// Op classifies a line in a diff.
type Op int

const (
	Context Op = iota // Line is present in both texts.
	Added             // Line is present in the new text only.
	Removed           // Line is present in the old text only.
)

func (o Op) String() string {
	switch o {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "context"
	}
}

// Line is one record of a diff.
type Line struct {
	Op   Op
	Text string
	// NoEOL marks the final line of a text that did not end in a newline.
	NoEOL bool
}

// token is a line still carrying its terminator, so "a" and "a\n" differ.
type token struct {
	text  string
	noEOL bool
}

func tokenize(data []byte) []token {
	if len(data) == 0 {
		return nil
	}
	s := string(data)
	parts := strings.SplitAfter(s, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	out := make([]token, len(parts))
	for i, p := range parts {
		if strings.HasSuffix(p, "\n") {
			out[i] = token{text: strings.TrimSuffix(p, "\n")}
		} else {
			out[i] = token{text: p, noEOL: true}
		}
	}
	return out
}

// SplitLines splits data into lines without their terminators. A trailing
// newline does not produce an empty final line.
func SplitLines(data []byte) []string {
	toks := tokenize(data)
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.text
	}
	return out
}

// Bytes diffs two contents. See Lines for the alignment rules.
func Bytes(a, b []byte) []Line {
	return align(tokenize(a), tokenize(b))
}

// Lines diffs two line slices.
//
// The alignment is a longest common subsequence. When several alignments
// are equally long, the one matching the earliest possible line of a wins,
// and within each run of changes removals precede additions, so output is
// reproducible.
func Lines(a, b []string) []Line {
	ta := make([]token, len(a))
	for i, s := range a {
		ta[i] = token{text: s}
	}
	tb := make([]token, len(b))
	for i, s := range b {
		tb[i] = token{text: s}
	}
	return align(ta, tb)
}

func align(a, b []token) []Line {
	// Common prefix is always matched first under the earliest-match rule.
	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	out := make([]Line, 0, len(a)+len(b)-prefix)
	for _, t := range a[:prefix] {
		out = append(out, Line{Op: Context, Text: t.text, NoEOL: t.noEOL})
	}
	a, b = a[prefix:], b[prefix:]
	n, m := len(a), len(b)
	tbl := newSuffixTable(a, b)

	var removed, added []Line
	flush := func() {
		out = append(out, removed...)
		out = append(out, added...)
		removed, added = removed[:0], added[:0]
	}
	i, j := 0, 0
	for i < n || j < m {
		var row, below []int32
		if i < n {
			row, below = tbl.rows(i)
		}
		switch {
		case i < n && j < m && a[i] == b[j]:
			flush()
			out = append(out, Line{Op: Context, Text: a[i].text, NoEOL: a[i].noEOL})
			i++
			j++
		case j < m && (i == n || row[j+1] >= below[j]):
			// Skipping b[j] keeps a[i] available for an earlier match.
			added = append(added, Line{Op: Added, Text: b[j].text, NoEOL: b[j].noEOL})
			j++
		default:
			removed = append(removed, Line{Op: Removed, Text: a[i].text, NoEOL: a[i].noEOL})
			i++
		}
	}
	flush()
	return out
}

// suffixTable serves rows of L, where L[i][j] is the LCS length of a[i:]
// and b[j:], without holding all n+1 rows. Every step-th row is kept as a
// checkpoint; the rows of the block being walked are recomputed from the
// checkpoint below it. Memory is O(m*sqrt(n)) and the work is about twice
// the full table's.
type suffixTable struct {
	a, b []token
	step int

	// checkpoints[k] is row k*step; row n is all zeros and never stored.
	checkpoints [][]int32

	// block holds rows start..start+step of the current block.
	block [][]int32
	start int
}

func newSuffixTable(a, b []token) *suffixTable {
	n, m := len(a), len(b)
	step := 1
	for step*step < n {
		step++
	}
	t := &suffixTable{a: a, b: b, step: step, start: -1}
	if n == 0 {
		return t
	}
	t.checkpoints = make([][]int32, (n-1)/step+1)
	next := make([]int32, m+1)
	cur := make([]int32, m+1)
	for i := n - 1; i >= 0; i-- {
		t.fillRow(cur, next, i)
		if i%step == 0 {
			t.checkpoints[i/step] = append([]int32(nil), cur...)
		}
		cur, next = next, cur
	}
	t.block = make([][]int32, step+1)
	for k := range t.block {
		t.block[k] = make([]int32, m+1)
	}
	return t
}

// fillRow computes row i of L into dst from row i+1 in next.
func (t *suffixTable) fillRow(dst, next []int32, i int) {
	m := len(t.b)
	dst[m] = 0
	for j := m - 1; j >= 0; j-- {
		switch {
		case t.a[i] == t.b[j]:
			dst[j] = next[j+1] + 1
		case next[j] >= dst[j+1]:
			dst[j] = next[j]
		default:
			dst[j] = dst[j+1]
		}
	}
}

// rows returns rows i and i+1 of L for 0 <= i < n. Calls must not move
// backwards across blocks; align only ever increases i.
func (t *suffixTable) rows(i int) (row, below []int32) {
	start := i / t.step * t.step
	if start != t.start {
		t.loadBlock(start)
	}
	return t.block[i-start], t.block[i-start+1]
}

func (t *suffixTable) loadBlock(start int) {
	n := len(t.a)
	end := min(start+t.step, n)
	last := t.block[end-start]
	if end == n {
		clear(last)
	} else {
		copy(last, t.checkpoints[end/t.step])
	}
	for i := end - 1; i >= start; i-- {
		t.fillRow(t.block[i-start], t.block[i-start+1], i)
	}
	t.start = start
}

// Changed reports whether lines contain any addition or removal.
func Changed(lines []Line) bool {
	for _, l := range lines {
		if l.Op != Context {
			return true
		}
	}
	return false
}

// Stat counts added and removed lines.
func Stat(lines []Line) (added, removed int) {
	for _, l := range lines {
		switch l.Op {
		case Added:
			added++
		case Removed:
			removed++
		}
	}
	return added, removed
}
