package merge

import (
	"sort"

	"github.com/odvcencio/myvcs/pkg/object"
)

// ChangeKind classifies one path's change between two snapshots.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Modified
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "modified"
	}
}

// Change records one path moving from Old to New. Old is empty for an
// addition and New is empty for a removal.
type Change struct {
	Path string
	Kind ChangeKind
	Old  object.Hash
	New  object.Hash
}

// Changeset is a sorted list of path changes.
type Changeset []Change

// Diff returns the changes that turn from into to.
func Diff(from, to object.Snapshot) Changeset {
	var cs Changeset
	for p, old := range from {
		nw, ok := to[p]
		switch {
		case !ok:
			cs = append(cs, Change{Path: p, Kind: Removed, Old: old})
		case nw != old:
			cs = append(cs, Change{Path: p, Kind: Modified, Old: old, New: nw})
		}
	}
	for p, nw := range to {
		if _, ok := from[p]; !ok {
			cs = append(cs, Change{Path: p, Kind: Added, New: nw})
		}
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i].Path < cs[j].Path })
	return cs
}

// Inverse returns the changeset that undoes cs.
func (cs Changeset) Inverse() Changeset {
	out := make(Changeset, len(cs))
	for i, c := range cs {
		inv := Change{Path: c.Path, Old: c.New, New: c.Old, Kind: Modified}
		switch c.Kind {
		case Added:
			inv.Kind = Removed
		case Removed:
			inv.Kind = Added
		}
		out[i] = inv
	}
	return out
}

// Apply returns a copy of s with cs applied. Changes are applied
// unconditionally; callers that need to detect drift merge instead.
func (cs Changeset) Apply(s object.Snapshot) object.Snapshot {
	out := s.Clone()
	for _, c := range cs {
		if c.Kind == Removed {
			delete(out, c.Path)
			continue
		}
		out[c.Path] = c.New
	}
	return out
}

// Paths returns the changed paths in order.
func (cs Changeset) Paths() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Path
	}
	return out
}
