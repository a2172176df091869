package repo

import "testing"

func TestTags(t *testing.T) {
	r := newTestRepo(t)
	one := commitFiles(t, r, "one", "a.txt", "1\n")
	two := commitFiles(t, r, "two", "a.txt", "2\n")

	if got, err := r.CreateTag("v2", ""); err != nil || got != two {
		t.Fatalf("CreateTag(v2, HEAD) = %s, %v", got, err)
	}
	if got, err := r.CreateTag("v1", string(one)[:8]); err != nil || got != one {
		t.Fatalf("CreateTag(v1, prefix) = %s, %v", got, err)
	}
	_, err := r.CreateTag("v1", "HEAD")
	assertCode(t, err, ErrTagExists)
	_, err = r.CreateTag("bad..name", "HEAD")
	assertCode(t, err, ErrInvalidArgument)
	_, err = r.CreateTag("v3", "feedface")
	assertCode(t, err, ErrUnknownCommit)

	tags, err := r.Tags()
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 || tags[0] != (Tag{Name: "v1", Commit: one}) || tags[1] != (Tag{Name: "v2", Commit: two}) {
		t.Fatalf("Tags = %+v", tags)
	}

	if got, err := r.ResolveCommit("v1"); err != nil || got != one {
		t.Fatalf("ResolveCommit(v1) = %s, %v", got, err)
	}
	commitFiles(t, r, "three", "a.txt", "3\n")
	if got, _ := r.ResolveCommit("v2"); got != two {
		t.Fatalf("tag moved with the branch")
	}
}

func TestReflog(t *testing.T) {
	r := newTestRepo(t)
	one := commitFiles(t, r, "one", "a.txt", "1\n")
	two := commitFiles(t, r, "two", "a.txt", "2\n")
	if _, err := r.CreateTag("v1", string(one)); err != nil {
		t.Fatal(err)
	}

	entries, err := r.Reflog("main", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) < 2 || entries[0].NewHash != two || entries[0].OldHash != one || entries[1].NewHash != one {
		t.Fatalf("main reflog = %+v", entries)
	}
	if entries[0].Reason != "commit: two" {
		t.Fatalf("reason = %q", entries[0].Reason)
	}

	limited, err := r.Reflog("refs/heads/main", 1)
	if err != nil || len(limited) != 1 || limited[0].NewHash != two {
		t.Fatalf("limited reflog = %+v, %v", limited, err)
	}

	tagLog, err := r.Reflog("v1", 0)
	if err != nil || len(tagLog) != 1 || tagLog[0].NewHash != one {
		t.Fatalf("tag reflog = %+v, %v", tagLog, err)
	}

	_, err = r.Reflog("../escape", 0)
	assertCode(t, err, ErrInvalidArgument)
}
