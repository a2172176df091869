package merge

import (
	"reflect"
	"testing"

	"github.com/odvcencio/myvcs/pkg/object"
)

func TestSnapshotsDecisionTable(t *testing.T) {
	base := object.Snapshot{
		"same.txt":       "b1",
		"ours-only.txt":  "b2",
		"theirs-only":    "b3",
		"both-same.txt":  "b4",
		"both-diff.txt":  "b5",
		"del-ours.txt":   "b6",
		"del-both.txt":   "b7",
		"del-vs-mod.txt": "b8",
	}
	ours := object.Snapshot{
		"same.txt":       "b1",
		"ours-only.txt":  "o2",
		"theirs-only":    "b3",
		"both-same.txt":  "x4",
		"both-diff.txt":  "o5",
		"del-vs-mod.txt": "o8",
		"new-ours.txt":   "n1",
		"new-clash.txt":  "n2",
	}
	theirs := object.Snapshot{
		"same.txt":      "b1",
		"ours-only.txt": "b2",
		"theirs-only":   "t3",
		"both-same.txt": "x4",
		"both-diff.txt": "t5",
		"del-ours.txt":  "b6",
		"new-theirs":    "n3",
		"new-clash.txt": "n4",
	}

	res := Snapshots(base, ours, theirs)

	wantSnap := object.Snapshot{
		"same.txt":      "b1",
		"ours-only.txt": "o2",
		"theirs-only":   "t3",
		"both-same.txt": "x4",
		"new-ours.txt":  "n1",
		"new-theirs":    "n3",
	}
	if !res.Snapshot.Equal(wantSnap) {
		t.Fatalf("Snapshot = %v, want %v", res.Snapshot, wantSnap)
	}
	wantConflicts := []string{"both-diff.txt", "del-vs-mod.txt", "new-clash.txt"}
	if got := res.ConflictPaths(); !reflect.DeepEqual(got, wantConflicts) {
		t.Fatalf("conflicts = %v, want %v", got, wantConflicts)
	}
	if res.Clean() {
		t.Fatal("Clean() = true with conflicts")
	}
	c := res.Conflicts[1]
	if c.Base != "b8" || c.Ours != "o8" || c.Theirs != "" {
		t.Fatalf("del-vs-mod conflict = %+v", c)
	}
}

func TestSnapshotsOneSidedIsSide(t *testing.T) {
	base := object.Snapshot{"a": "1"}
	side := object.Snapshot{"a": "2", "b": "3"}
	if res := Snapshots(base, base, side); !res.Clean() || !res.Snapshot.Equal(side) {
		t.Fatalf("theirs-only change = %+v", res)
	}
	if res := Snapshots(base, side, base); !res.Clean() || !res.Snapshot.Equal(side) {
		t.Fatalf("ours-only change = %+v", res)
	}
}

func TestChangesetInverseRestoresParent(t *testing.T) {
	parent := object.Snapshot{"keep": "k", "mod": "m1", "gone": "g"}
	child := object.Snapshot{"keep": "k", "mod": "m2", "new": "n"}

	cs := Diff(parent, child)
	if got := cs.Paths(); !reflect.DeepEqual(got, []string{"gone", "mod", "new"}) {
		t.Fatalf("Diff paths = %v", got)
	}
	kinds := []ChangeKind{Removed, Modified, Added}
	for i, c := range cs {
		if c.Kind != kinds[i] {
			t.Fatalf("change %s kind = %s, want %s", c.Path, c.Kind, kinds[i])
		}
	}

	if got := cs.Apply(parent); !got.Equal(child) {
		t.Fatalf("Apply = %v, want %v", got, child)
	}
	if got := cs.Inverse().Apply(child); !got.Equal(parent) {
		t.Fatalf("Inverse().Apply = %v, want %v", got, parent)
	}
	if _, ok := parent["new"]; ok {
		t.Fatal("Apply mutated its input")
	}
}

func TestRevertAsThreeWayMerge(t *testing.T) {
	// c1 -> c2 changes a.txt; c3 changes b.txt afterwards. Reverting c2 on
	// top of c3 restores a.txt and keeps b.txt.
	c1 := object.Snapshot{"a.txt": "hello", "b.txt": "b"}
	c2 := object.Snapshot{"a.txt": "hello world", "b.txt": "b"}
	c3 := object.Snapshot{"a.txt": "hello world", "b.txt": "b2"}

	theirs := Diff(c1, c2).Inverse().Apply(c2)
	res := Snapshots(c2, c3, theirs)
	want := object.Snapshot{"a.txt": "hello", "b.txt": "b2"}
	if !res.Clean() || !res.Snapshot.Equal(want) {
		t.Fatalf("revert merge = %+v, want %v", res, want)
	}
}

func TestMarkers(t *testing.T) {
	got := string(Markers([]byte("ours"), []byte("theirs\n"), "HEAD", "feature"))
	want := "<<<<<<< HEAD\nours\n=======\ntheirs\n>>>>>>> feature\n"
	if got != want {
		t.Fatalf("Markers = %q, want %q", got, want)
	}
	if got := string(Markers(nil, []byte("t"), "HEAD", "x")); got != "<<<<<<< HEAD\n=======\nt\n>>>>>>> x\n" {
		t.Fatalf("Markers with deleted ours = %q", got)
	}
}
