// Package refs is the on-disk ref table: HEAD, branch and tag pointers,
// and their reflogs. Every update goes through a lockfile and an atomic
// rename, with optional compare-and-swap on the previous value.
package refs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/odvcencio/myvcs/pkg/object"
)

var (
	ErrCASMismatch = errors.New("ref compare-and-swap mismatch")
	ErrRefExists   = errors.New("ref already exists")
	ErrNotFound    = errors.New("ref not found")
	ErrInvalidName = errors.New("invalid ref name")

	ErrRefUpdatedButReflogAppendFailed = errors.New("ref updated but reflog append failed")
)

const (
	HeadsPrefix = "refs/heads/"
	TagsPrefix  = "refs/tags/"

	headFile   = "HEAD"
	symbolicTo = "ref: "
)

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

// RefUpdateReflogError indicates the ref file update succeeded, but appending
// the corresponding reflog entry failed.
type RefUpdateReflogError struct {
	Ref     string
	OldHash object.Hash
	NewHash object.Hash
	Err     error
}

func (e *RefUpdateReflogError) Error() string {
	return fmt.Sprintf("update ref %q: %s (old=%s new=%s): %v",
		e.Ref, ErrRefUpdatedButReflogAppendFailed, e.OldHash, e.NewHash, e.Err)
}

func (e *RefUpdateReflogError) Unwrap() error { return e.Err }

func (e *RefUpdateReflogError) Is(target error) bool {
	return target == ErrRefUpdatedButReflogAppendFailed
}

// Table reads and writes refs under a metadata directory.
type Table struct {
	dir string
	now func() time.Time
}

// New returns a Table over metaDir (the directory holding HEAD and refs/).
func New(metaDir string) *Table {
	return &Table{dir: metaDir, now: time.Now}
}

// WithClock returns a copy of t that stamps reflog entries using now.
func (t *Table) WithClock(now func() time.Time) *Table {
	cp := *t
	cp.now = now
	return &cp
}

// InitLayout creates the metadata skeleton: objects/, refs/heads/,
// refs/tags/, logs/, a null default branch and a HEAD pointing at it.
// Existing files are left alone, so it is safe on a partially created
// directory.
func InitLayout(metaDir, defaultBranch string) error {
	if err := ValidateName(defaultBranch); err != nil {
		return err
	}
	for _, d := range []string{
		filepath.Join(metaDir, "objects"),
		filepath.Join(metaDir, "refs", "heads"),
		filepath.Join(metaDir, "refs", "tags"),
		filepath.Join(metaDir, "logs", "refs", "heads"),
	} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("init layout: mkdir %s: %w", d, err)
		}
	}
	t := New(metaDir)
	branchRef := HeadsPrefix + defaultBranch
	if _, exists, err := t.Read(branchRef); err != nil {
		return err
	} else if !exists {
		if err := t.Create(branchRef, "", "init"); err != nil && !errors.Is(err, ErrRefExists) {
			return err
		}
	}
	if _, err := os.Stat(filepath.Join(metaDir, headFile)); errors.Is(err, os.ErrNotExist) {
		if err := t.SetHeadBranch(defaultBranch, "init"); err != nil {
			return err
		}
	}
	return nil
}

// ValidateName rejects branch or tag names that cannot be stored as a ref
// file or would be confused with revision syntax.
func ValidateName(name string) error {
	bad := func(why string) error {
		return fmt.Errorf("%w %q: %s", ErrInvalidName, name, why)
	}
	switch {
	case strings.TrimSpace(name) == "":
		return bad("empty")
	case name == "HEAD":
		return bad("reserved")
	case strings.HasPrefix(name, "-"):
		return bad("starts with '-'")
	case strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/"):
		return bad("leading or trailing slash")
	case strings.Contains(name, ".."), strings.Contains(name, "//"):
		return bad("contains '..' or '//'")
	case strings.HasSuffix(name, ".lock"):
		return bad("ends with .lock")
	case strings.ContainsAny(name, " \t\n\r\x00~^:?*[\\"):
		return bad("contains a forbidden character")
	}
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return bad("component starts with '.'")
		}
	}
	return nil
}

func (t *Table) path(name string) string {
	return filepath.Join(t.dir, filepath.FromSlash(name))
}

// Read returns the hash stored in ref name (e.g. "refs/heads/main"). A ref
// that exists with no commit yet reports exists=true and an empty hash.
func (t *Table) Read(name string) (h object.Hash, exists bool, err error) {
	data, err := os.ReadFile(t.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read ref %q: %w", name, err)
	}
	return object.Hash(strings.TrimSpace(string(data))), true, nil
}

// Head describes what HEAD points at.
type Head struct {
	// Branch is the current branch name; empty when detached.
	Branch string
	// Hash is the commit HEAD resolves to; empty for a null branch.
	Hash object.Hash
}

// Detached reports whether HEAD names a commit directly.
func (h Head) Detached() bool { return h.Branch == "" }

// Head reads HEAD and resolves it through the current branch.
func (t *Table) Head() (Head, error) {
	data, err := os.ReadFile(t.path(headFile))
	if err != nil {
		return Head{}, fmt.Errorf("head: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if !strings.HasPrefix(content, symbolicTo) {
		return Head{Hash: object.Hash(content)}, nil
	}
	ref := strings.TrimPrefix(content, symbolicTo)
	h, _, err := t.Read(ref)
	if err != nil {
		return Head{}, err
	}
	return Head{Branch: strings.TrimPrefix(ref, HeadsPrefix), Hash: h}, nil
}

// SetHeadBranch points HEAD at refs/heads/<branch>.
func (t *Table) SetHeadBranch(branch, reason string) error {
	if err := ValidateName(branch); err != nil {
		return err
	}
	target, _, err := t.Read(HeadsPrefix + branch)
	if err != nil {
		return err
	}
	return t.writeHead(symbolicTo+HeadsPrefix+branch, target, reason)
}

// SetHeadDetached points HEAD directly at commit h.
func (t *Table) SetHeadDetached(h object.Hash, reason string) error {
	return t.writeHead(string(h), h, reason)
}

func (t *Table) writeHead(content string, newHash object.Hash, reason string) error {
	var oldHash object.Hash
	if cur, err := t.Head(); err == nil {
		oldHash = cur.Hash
	}
	return t.write(headFile, content, newHash, reason, func(string, bool) error { return nil }, oldHash)
}

// Create writes a new ref and fails with ErrRefExists if the name is taken,
// even by a null ref.
func (t *Table) Create(name string, h object.Hash, reason string) error {
	return t.write(name, string(h), h, reason, func(_ string, exists bool) error {
		if exists {
			return fmt.Errorf("create ref %q: %w", name, ErrRefExists)
		}
		return nil
	}, "")
}

// Update writes h to ref name unconditionally.
func (t *Table) Update(name string, h object.Hash, reason string) error {
	return t.write(name, string(h), h, reason, func(string, bool) error { return nil }, "")
}

// CompareAndSwap writes h to ref name only if its current value is old. An
// empty old matches a missing or null ref.
func (t *Table) CompareAndSwap(name string, old, h object.Hash, reason string) error {
	return t.write(name, string(h), h, reason, func(cur string, _ bool) error {
		if object.Hash(cur) != old {
			return fmt.Errorf("update ref %q: %w (expected %s, found %s)", name, ErrCASMismatch, old, cur)
		}
		return nil
	}, "")
}

// write replaces the file for name with content under its lockfile. check
// sees the current content while the lock is held.
func (t *Table) write(name, content string, newHash object.Hash, reason string, check func(cur string, exists bool) error, logOld object.Hash) error {
	refPath := t.path(name)
	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	cur, exists, err := t.Read(name)
	if err != nil {
		return err
	}
	if err := check(string(cur), exists); err != nil {
		return err
	}
	if name != headFile {
		logOld = cur
	}

	if _, err := lockFile.WriteString(content + "\n"); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Sync(); err != nil {
		return fmt.Errorf("update ref %q: sync: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	cleanupLock = false

	if err := t.appendReflog(name, logOld, newHash, reason); err != nil {
		return &RefUpdateReflogError{Ref: name, OldHash: logOld, NewHash: newHash, Err: err}
	}
	return nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
		}
		time.Sleep(refLockRetryDelay)
	}
}

// List returns the refs under prefix (e.g. "refs/heads/") keyed by their
// name relative to it.
func (t *Table) List(prefix string) (map[string]object.Hash, error) {
	root := t.path(strings.TrimSuffix(prefix, "/"))
	out := make(map[string]object.Hash)
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(p, ".lock") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = object.Hash(strings.TrimSpace(string(data)))
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list refs %s: %w", prefix, err)
	}
	return out, nil
}

// Names returns the keys of a List result in lexicographic order.
func Names(m map[string]object.Hash) []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
