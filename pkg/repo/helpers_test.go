package repo

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/odvcencio/myvcs/pkg/object"
)

// testClock advances one second per call so commits get distinct times.
func testClock() func() time.Time {
	var mu sync.Mutex
	cur := time.Unix(1700000000, 0)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir(), WithClock(testClock()))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

func writeFile(t *testing.T, r *Repo, name, content string) {
	t.Helper()
	full := filepath.Join(r.RootDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", name, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func readFile(t *testing.T, r *Repo, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(r.RootDir, filepath.FromSlash(name)))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func removeFile(t *testing.T, r *Repo, name string) {
	t.Helper()
	if err := os.Remove(filepath.Join(r.RootDir, filepath.FromSlash(name))); err != nil {
		t.Fatalf("remove %s: %v", name, err)
	}
}

func fileExists(r *Repo, name string) bool {
	_, err := os.Stat(filepath.Join(r.RootDir, filepath.FromSlash(name)))
	return err == nil
}

// commitFiles writes each name/content pair, stages it and commits.
func commitFiles(t *testing.T, r *Repo, message string, files ...string) object.Hash {
	t.Helper()
	if len(files)%2 != 0 {
		t.Fatalf("commitFiles: odd number of name/content arguments")
	}
	var names []string
	for i := 0; i < len(files); i += 2 {
		writeFile(t, r, files[i], files[i+1])
		names = append(names, files[i])
	}
	if err := r.Add(names...); err != nil {
		t.Fatalf("Add(%v): %v", names, err)
	}
	id, err := r.Commit(message)
	if err != nil {
		t.Fatalf("Commit(%q): %v", message, err)
	}
	return id
}

func mustStatus(t *testing.T, r *Repo) *Status {
	t.Helper()
	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	return st
}

func mustCommitObj(t *testing.T, r *Repo, id object.Hash) *object.CommitObj {
	t.Helper()
	c, err := r.Store.ReadCommit(id)
	if err != nil {
		t.Fatalf("ReadCommit(%s): %v", id, err)
	}
	return c
}

func headHash(t *testing.T, r *Repo) object.Hash {
	t.Helper()
	head, err := r.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	return head.Hash
}

func assertCode(t *testing.T, err error, sentinel *Error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", sentinel.Code)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected %s error, got %v (code %s)", sentinel.Code, err, CodeOf(err))
	}
}

func assertPaths(t *testing.T, what string, got []string, want ...string) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("%s = %v, want %v", what, got, want)
	}
}
