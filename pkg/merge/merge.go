// Package merge reconciles snapshots path by path against a common base.
// Files are the unit of merging: a path changed differently on both sides
// is a conflict, whatever its lines look like.
package merge

import (
	"bytes"
	"sort"

	"github.com/odvcencio/myvcs/pkg/object"
)

// Conflict is a path both sides changed to different values. An empty
// hash means the side deleted the path (or the base lacked it).
type Conflict struct {
	Path   string
	Base   object.Hash
	Ours   object.Hash
	Theirs object.Hash
}

// Result is the outcome of a three-way snapshot merge.
type Result struct {
	// Snapshot holds every non-conflicted path with its resolved blob.
	Snapshot object.Snapshot
	// Conflicts is sorted by path.
	Conflicts []Conflict
}

// Clean reports whether the merge produced no conflicts.
func (r Result) Clean() bool { return len(r.Conflicts) == 0 }

// ConflictPaths returns the conflicted paths in order.
func (r Result) ConflictPaths() []string {
	out := make([]string, len(r.Conflicts))
	for i, c := range r.Conflicts {
		out[i] = c.Path
	}
	return out
}

// Snapshots merges ours and theirs against base. For each path in the union
// of the three, absence counts as a value:
//
//	ours == theirs   -> ours
//	ours == base     -> theirs
//	theirs == base   -> ours
//	otherwise        -> conflict
func Snapshots(base, ours, theirs object.Snapshot) Result {
	paths := make(map[string]struct{}, len(ours)+len(theirs))
	for _, s := range []object.Snapshot{base, ours, theirs} {
		for p := range s {
			paths[p] = struct{}{}
		}
	}

	res := Result{Snapshot: make(object.Snapshot, len(paths))}
	for p := range paths {
		b, o, t := base[p], ours[p], theirs[p]
		var resolved object.Hash
		switch {
		case o == t:
			resolved = o
		case o == b:
			resolved = t
		case t == b:
			resolved = o
		default:
			res.Conflicts = append(res.Conflicts, Conflict{Path: p, Base: b, Ours: o, Theirs: t})
			continue
		}
		if resolved != "" {
			res.Snapshot[p] = resolved
		}
	}
	sort.Slice(res.Conflicts, func(i, j int) bool { return res.Conflicts[i].Path < res.Conflicts[j].Path })
	return res
}

// Markers renders a whole-file conflict: the ours content and the theirs
// content between standard markers, each labelled.
func Markers(ours, theirs []byte, oursLabel, theirsLabel string) []byte {
	var buf bytes.Buffer
	buf.WriteString("<<<<<<< " + oursLabel + "\n")
	buf.Write(ours)
	if len(ours) > 0 && ours[len(ours)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString("=======\n")
	buf.Write(theirs)
	if len(theirs) > 0 && theirs[len(theirs)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(">>>>>>> " + theirsLabel + "\n")
	return buf.Bytes()
}
