package worktree

import "testing"

func TestIgnoreMetadataAlwaysIgnored(t *testing.T) {
	ig := ParseIgnore(nil)
	for _, p := range []string{".myvcs", ".myvcs/HEAD", ".myvcs/objects/ab/cd", ".git/config"} {
		if !ig.Match(p) {
			t.Errorf("expected %s to be ignored", p)
		}
	}
	if ig.Match("src/main.go") {
		t.Error("expected src/main.go to NOT be ignored")
	}
}

func TestIgnorePatterns(t *testing.T) {
	ig := ParseIgnore([]byte(`
# comment
*.log
!keep.log
build/
docs/*.tmp
**/generated/**
/rooted.txt
`))
	cases := map[string]bool{
		"debug.log":            true,
		"nested/dir/trace.log": true,
		"keep.log":             false,
		"build/out.o":          true,
		"build":                false, // dir-only rules match directories, not files named build
		"src/build/x":          true,
		"docs/a.tmp":           true,
		"docs/sub/a.tmp":       false,
		"a/generated/b.go":     true,
		"generated/b.go":       true,
		"rooted.txt":           true,
		"notes.txt":            false,
		"# comment":            false,
	}
	for p, want := range cases {
		if got := ig.Match(p); got != want {
			t.Errorf("Match(%q) = %v, want %v", p, got, want)
		}
	}
}

func TestIgnoreNilMatchesNothing(t *testing.T) {
	var ig *Ignore
	if ig.Match("anything") {
		t.Fatal("nil Ignore should match nothing")
	}
}
