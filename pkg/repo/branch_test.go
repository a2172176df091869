package repo

import (
	"testing"
)

func TestCreateBranch(t *testing.T) {
	r := newTestRepo(t)
	if err := r.CreateBranch("early"); err != nil {
		t.Fatalf("CreateBranch on empty repo: %v", err)
	}
	id := commitFiles(t, r, "one", "a.txt", "1\n")
	if err := r.CreateBranch("feature"); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	assertCode(t, r.CreateBranch("feature"), ErrAlreadyExists)
	assertCode(t, r.CreateBranch("bad..name"), ErrInvalidArgument)

	branches, err := r.Branches()
	if err != nil {
		t.Fatal(err)
	}
	if len(branches) != 3 {
		t.Fatalf("Branches = %+v", branches)
	}
	want := []Branch{
		{Name: "early", Hash: ""},
		{Name: "feature", Hash: id},
		{Name: "main", Hash: id, Current: true},
	}
	for i, b := range branches {
		if b != want[i] {
			t.Fatalf("Branches[%d] = %+v, want %+v", i, b, want[i])
		}
	}
}

func TestCheckoutSwitchesTree(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "one", "a.txt", "main\n", "keep.txt", "k\n")
	if err := r.CreateBranch("feature"); err != nil {
		t.Fatal(err)
	}
	if err := r.Checkout("feature"); err != nil {
		t.Fatalf("Checkout(feature): %v", err)
	}
	featureTip := commitFiles(t, r, "feature work", "a.txt", "feature\n", "f.txt", "only on feature\n")

	if err := r.Checkout("main"); err != nil {
		t.Fatalf("Checkout(main): %v", err)
	}
	head, err := r.CurrentBranch()
	if err != nil {
		t.Fatal(err)
	}
	if head.Branch != "main" {
		t.Fatalf("current branch = %q, want main", head.Branch)
	}
	if got := readFile(t, r, "a.txt"); got != "main\n" {
		t.Fatalf("a.txt = %q on main", got)
	}
	if fileExists(r, "f.txt") {
		t.Fatalf("f.txt should not exist on main")
	}

	if err := r.Checkout("feature"); err != nil {
		t.Fatal(err)
	}
	snap := mustCommitObj(t, r, featureTip).Snapshot
	for p, h := range snap {
		if blobHash([]byte(readFile(t, r, p))) != h {
			t.Fatalf("%s does not match the feature snapshot", p)
		}
	}
}

func TestCheckoutRefusesStagedChanges(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "one", "a.txt", "1\n")
	if err := r.CreateBranch("other"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, r, "a.txt", "2\n")
	if err := r.Add("a.txt"); err != nil {
		t.Fatal(err)
	}
	assertCode(t, r.Checkout("other"), ErrDirtyWorkingTree)
	assertCode(t, r.Checkout("missing"), ErrUnknownBranch)
}

func TestCheckoutRefusesOverwritingLocalEdits(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "one", "a.txt", "1\n", "b.txt", "1\n")
	if err := r.CreateBranch("other"); err != nil {
		t.Fatal(err)
	}
	if err := r.Checkout("other"); err != nil {
		t.Fatal(err)
	}
	commitFiles(t, r, "other", "a.txt", "other\n")
	if err := r.Checkout("main"); err != nil {
		t.Fatal(err)
	}

	writeFile(t, r, "a.txt", "local edit\n")
	err := r.Checkout("other")
	assertCode(t, err, ErrDirtyWorkingTree)
	assertPaths(t, "dirty files", ConflictFiles(err), "a.txt")

	// An edit to a file the switch does not touch is carried over.
	writeFile(t, r, "a.txt", "1\n")
	writeFile(t, r, "b.txt", "local\n")
	if err := r.Checkout("other"); err != nil {
		t.Fatalf("Checkout with unrelated edit: %v", err)
	}
	if got := readFile(t, r, "b.txt"); got != "local\n" {
		t.Fatalf("b.txt = %q, want local edit kept", got)
	}
}

func TestCheckoutUntrackedFileInTheWay(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "one", "a.txt", "1\n")
	if err := r.CreateBranch("other"); err != nil {
		t.Fatal(err)
	}
	if err := r.Checkout("other"); err != nil {
		t.Fatal(err)
	}
	commitFiles(t, r, "adds new", "new.txt", "tracked\n")
	if err := r.Checkout("main"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, r, "new.txt", "mine\n")
	assertCode(t, r.Checkout("other"), ErrDirtyWorkingTree)
}

func TestCheckoutDetached(t *testing.T) {
	r := newTestRepo(t)
	id1 := commitFiles(t, r, "one", "a.txt", "1\n")
	commitFiles(t, r, "two", "a.txt", "2\n")

	if err := r.Checkout(string(id1[:10])); err != nil {
		t.Fatalf("Checkout(commit): %v", err)
	}
	head, err := r.CurrentBranch()
	if err != nil {
		t.Fatal(err)
	}
	if !head.Detached() || head.Hash != id1 {
		t.Fatalf("head = %+v, want detached at %s", head, id1)
	}
	if got := readFile(t, r, "a.txt"); got != "1\n" {
		t.Fatalf("a.txt = %q", got)
	}

	id3 := commitFiles(t, r, "detached work", "b.txt", "b\n")
	if headHash(t, r) != id3 {
		t.Fatalf("detached commit did not advance HEAD")
	}
	if c := mustCommitObj(t, r, id3); c.Parents[0] != id1 {
		t.Fatalf("detached commit parent = %s, want %s", c.Parents[0], id1)
	}
}

func TestCheckoutBranchRejectsNonBranches(t *testing.T) {
	r := newTestRepo(t)
	id := commitFiles(t, r, "one", "a.txt", "1\n")
	commitFiles(t, r, "two", "a.txt", "2\n")
	if _, err := r.CreateTag("v1", string(id)); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"v1", string(id[:8]), "HEAD", "nope", "bad..name"} {
		assertCode(t, r.CheckoutBranch(name), ErrUnknownBranch)
	}
	assertCode(t, r.CheckoutBranch(""), ErrInvalidArgument)

	head, err := r.CurrentBranch()
	if err != nil {
		t.Fatal(err)
	}
	if head.Detached() || head.Branch != "main" {
		t.Fatalf("head = %+v after rejected checkouts", head)
	}
	if got := readFile(t, r, "a.txt"); got != "2\n" {
		t.Fatalf("a.txt = %q", got)
	}

	if err := r.CreateBranch("feature"); err != nil {
		t.Fatal(err)
	}
	if err := r.CheckoutBranch("feature"); err != nil {
		t.Fatalf("CheckoutBranch(feature): %v", err)
	}
	if head, _ := r.CurrentBranch(); head.Branch != "feature" {
		t.Fatalf("current branch = %q, want feature", head.Branch)
	}
}
