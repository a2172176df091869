// Package worktree is the filesystem capability the engine materializes
// snapshots through. Paths are relative, slash separated, and never reach
// into the metadata directory.
package worktree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// MetaDir is the repository metadata directory at the worktree root.
const MetaDir = ".myvcs"

// ErrInvalidPath is returned for paths that are empty, absolute, escape the
// root, or name the metadata directory.
var ErrInvalidPath = errors.New("invalid path")

// FS reads and writes the working files of a repository.
type FS interface {
	// Read returns a file's content; a missing file yields an error
	// matching fs.ErrNotExist.
	Read(p string) ([]byte, error)
	// Write replaces a file's content, creating parent directories.
	Write(p string, data []byte) error
	// Remove deletes a file. Removing a missing file is not an error.
	Remove(p string) error
	// List returns every non-ignored file path, sorted.
	List() ([]string, error)
}

// CleanPath normalizes a user supplied path and rejects anything that is
// not a plain relative file path inside the worktree.
func CleanPath(p string) (string, error) {
	raw := p
	p = filepath.ToSlash(strings.TrimSpace(p))
	if p == "" || strings.ContainsAny(p, "\x00\n\r") || strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, raw)
	}
	p = path.Clean(p)
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, raw)
	}
	if p == MetaDir || strings.HasPrefix(p, MetaDir+"/") {
		return "", fmt.Errorf("%w: %q is repository metadata", ErrInvalidPath, raw)
	}
	return p, nil
}

// OSFS is an FS over a directory on disk.
type OSFS struct {
	root string
}

// NewOS returns an FS rooted at dir.
func NewOS(dir string) *OSFS {
	return &OSFS{root: filepath.Clean(dir)}
}

// Root returns the worktree directory.
func (o *OSFS) Root() string { return o.root }

func (o *OSFS) abs(p string) (string, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(o.root, filepath.FromSlash(clean)), nil
}

// Read implements FS.
func (o *OSFS) Read(p string) ([]byte, error) {
	full, err := o.abs(p)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Write implements FS. Content is written to a temp file and renamed over
// the destination so a reader never sees a torn file.
func (o *OSFS) Write(p string, data []byte) error {
	full, err := o.abs(p)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("worktree write %s: %w", p, err)
	}
	tmp, err := os.CreateTemp(dir, ".myvcs-tmp-*")
	if err != nil {
		return fmt.Errorf("worktree write %s: %w", p, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("worktree write %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("worktree write %s: %w", p, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("worktree write %s: %w", p, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("worktree write %s: %w", p, err)
	}
	return nil
}

// Remove implements FS. Directories left empty by the removal are pruned up
// to the root.
func (o *OSFS) Remove(p string) error {
	full, err := o.abs(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("worktree remove %s: %w", p, err)
	}
	for dir := filepath.Dir(full); dir != o.root && strings.HasPrefix(dir, o.root); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}

// List implements FS. Only regular files are listed.
func (o *OSFS) List() ([]string, error) {
	ignoreData, err := os.ReadFile(filepath.Join(o.root, IgnoreFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("worktree list: %w", err)
	}
	ig := ParseIgnore(ignoreData)

	var out []string
	err = filepath.WalkDir(o.root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if full == o.root {
			return nil
		}
		rel, err := filepath.Rel(o.root, full)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if ig.Match(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || ig.Match(rel) || strings.HasPrefix(d.Name(), ".myvcs-tmp-") {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("worktree list: %w", err)
	}
	sort.Strings(out)
	return out, nil
}

// MemFS is an in-memory FS, safe for concurrent use.
type MemFS struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMem returns an empty in-memory FS.
func NewMem() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

// Read implements FS.
func (m *MemFS) Read(p string) ([]byte, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[clean]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: clean, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

// Write implements FS.
func (m *MemFS) Write(p string, data []byte) error {
	clean, err := CleanPath(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[clean] = append([]byte(nil), data...)
	return nil
}

// Remove implements FS.
func (m *MemFS) Remove(p string) error {
	clean, err := CleanPath(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, clean)
	return nil
}

// List implements FS.
func (m *MemFS) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ig := ParseIgnore(m.files[IgnoreFile])
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		if !ig.Match(p) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}
