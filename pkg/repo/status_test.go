package repo

import (
	"testing"
)

func TestStatusSetsAreDisjoint(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "base", "tracked.txt", "1\n", "edited.txt", "1\n", "gone.txt", "1\n")

	writeFile(t, r, "staged.txt", "new\n")
	if err := r.Add("staged.txt"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, r, "edited.txt", "2\n")
	removeFile(t, r, "gone.txt")
	writeFile(t, r, "loose.txt", "?\n")

	st := mustStatus(t, r)
	assertPaths(t, "staged", st.Staged, "staged.txt")
	assertPaths(t, "modified", st.Modified, "edited.txt", "gone.txt")
	assertPaths(t, "untracked", st.Untracked, "loose.txt")
	assertPaths(t, "partly staged", st.PartlyStaged)
}

func TestStatusStagedThenEditedIsModified(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "base", "a.txt", "1\n")
	writeFile(t, r, "a.txt", "2\n")
	if err := r.Add("a.txt"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, r, "a.txt", "3\n")

	writeFile(t, r, "b.txt", "new\n")
	if err := r.Add("b.txt"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, r, "b.txt", "newer\n")

	st := mustStatus(t, r)
	assertPaths(t, "staged", st.Staged)
	assertPaths(t, "modified", st.Modified, "a.txt", "b.txt")
	assertPaths(t, "partly staged", st.PartlyStaged, "a.txt", "b.txt")

	// Back to the staged content: plain staged again.
	writeFile(t, r, "a.txt", "2\n")
	st = mustStatus(t, r)
	assertPaths(t, "staged", st.Staged, "a.txt")
	assertPaths(t, "modified", st.Modified, "b.txt")
	assertPaths(t, "partly staged", st.PartlyStaged, "b.txt")
}

func TestAddMissingFile(t *testing.T) {
	r := newTestRepo(t)
	err := r.Add("nope.txt")
	assertCode(t, err, ErrFileNotFound)

	err = r.Add("../escape.txt")
	assertCode(t, err, ErrInvalidArgument)
	err = r.Add(".myvcs/HEAD")
	assertCode(t, err, ErrInvalidArgument)
}

func TestAddDeletedTrackedFileStagesRemoval(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "base", "a.txt", "1\n", "b.txt", "2\n")
	removeFile(t, r, "a.txt")

	if err := r.Add("a.txt"); err != nil {
		t.Fatalf("Add(deleted): %v", err)
	}
	st := mustStatus(t, r)
	assertPaths(t, "staged", st.Staged, "a.txt")
	assertPaths(t, "modified", st.Modified)

	id, err := r.Commit("drop a")
	if err != nil {
		t.Fatal(err)
	}
	snap := mustCommitObj(t, r, id).Snapshot
	if _, ok := snap["a.txt"]; ok || len(snap) != 1 {
		t.Fatalf("snapshot after removal = %v", snap)
	}
}

func TestUnstageAndResetIndex(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "base", "a.txt", "1\n")
	writeFile(t, r, "a.txt", "2\n")
	writeFile(t, r, "b.txt", "new\n")
	if err := r.Add("a.txt", "b.txt"); err != nil {
		t.Fatal(err)
	}

	if err := r.Unstage("b.txt"); err != nil {
		t.Fatalf("Unstage: %v", err)
	}
	st := mustStatus(t, r)
	assertPaths(t, "staged", st.Staged, "a.txt")
	assertPaths(t, "untracked", st.Untracked, "b.txt")
	if got := readFile(t, r, "b.txt"); got != "new\n" {
		t.Fatalf("unstage touched the working file: %q", got)
	}

	err := r.Unstage("b.txt")
	assertCode(t, err, ErrFileNotFound)

	if err := r.ResetIndex(); err != nil {
		t.Fatalf("ResetIndex: %v", err)
	}
	st = mustStatus(t, r)
	assertPaths(t, "staged", st.Staged)
	assertPaths(t, "modified", st.Modified, "a.txt")
}

func TestIgnoredFilesAreNotUntracked(t *testing.T) {
	r := newTestRepo(t)
	writeFile(t, r, ".myvcsignore", "*.log\nbuild/\n")
	writeFile(t, r, "app.log", "noise\n")
	writeFile(t, r, "build/out.bin", "bin\n")
	writeFile(t, r, "main.go", "package main\n")

	st := mustStatus(t, r)
	assertPaths(t, "untracked", st.Untracked, ".myvcsignore", "main.go")

	if err := r.AddAll(); err != nil {
		t.Fatalf("AddAll: %v", err)
	}
	assertPaths(t, "staged", mustStatus(t, r).Staged, ".myvcsignore", "main.go")
}
