package repo

import (
	"fmt"

	"github.com/odvcencio/myvcs/pkg/object"
)

// Add stages each path's working content, replacing any earlier entry. A
// tracked path missing from the working tree is staged for removal; an
// unknown missing path fails with ErrFileNotFound. Adding a conflicted
// path marks it resolved.
func (r *Repo) Add(paths ...string) error {
	if len(paths) == 0 {
		return newError(ErrInvalidArgument, "filename is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	_, headSnap, err := r.headState()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	ix, err := r.readIndex()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	for _, raw := range paths {
		p, err := cleanPath(raw)
		if err != nil {
			return err
		}
		if err := r.stagePath(ix, headSnap, p); err != nil {
			return err
		}
	}
	if err := r.writeIndex(ix); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	r.log.Info("staged", "op", "add", "files", len(paths))
	return nil
}

// AddAll stages every working file and every tracked deletion.
func (r *Repo) AddAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addAllLocked()
}

func (r *Repo) addAllLocked() error {
	_, headSnap, err := r.headState()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	ix, err := r.readIndex()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	working, err := r.FS.List()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	seen := make(map[string]bool, len(working))
	for _, p := range working {
		seen[p] = true
		if err := r.stagePath(ix, headSnap, p); err != nil {
			return err
		}
	}
	for _, p := range ix.apply(headSnap).Paths() {
		if seen[p] {
			continue
		}
		// Tracked but not listed: deleted, or now matched by an ignore rule.
		if err := r.stagePath(ix, headSnap, p); err != nil {
			return err
		}
	}
	for _, p := range ix.conflictPaths() {
		if !seen[p] {
			if err := r.stagePath(ix, headSnap, p); err != nil {
				return err
			}
		}
	}
	if err := r.writeIndex(ix); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	r.log.Info("staged", "op", "add", "files", len(working), "all", true)
	return nil
}

func (r *Repo) stagePath(ix *Index, headSnap object.Snapshot, p string) error {
	data, ok, err := r.readWorking(p)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	if !ok {
		_, inHead := headSnap[p]
		_, inIndex := ix.Entries[p]
		if !inHead && !inIndex && !ix.Conflicts[p] {
			return newError(ErrFileNotFound, "%s does not exist", p)
		}
		ix.stage(headSnap, p, "")
		return nil
	}
	h, err := r.Store.WriteBlob(&object.Blob{Data: data})
	if err != nil {
		return fmt.Errorf("add: write blob %s: %w", p, err)
	}
	ix.stage(headSnap, p, h)
	return nil
}

// Unstage drops the staged entry or removal for each path, leaving the
// working tree alone.
func (r *Repo) Unstage(paths ...string) error {
	if len(paths) == 0 {
		return newError(ErrInvalidArgument, "filename is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ix, err := r.readIndex()
	if err != nil {
		return fmt.Errorf("unstage: %w", err)
	}
	for _, raw := range paths {
		p, err := cleanPath(raw)
		if err != nil {
			return err
		}
		_, staged := ix.Entries[p]
		if !staged && !ix.Removed[p] {
			return newError(ErrFileNotFound, "%s is not staged", p)
		}
		delete(ix.Entries, p)
		delete(ix.Removed, p)
	}
	if err := r.writeIndex(ix); err != nil {
		return fmt.Errorf("unstage: %w", err)
	}
	r.log.Info("unstaged", "op", "rm", "files", len(paths))
	return nil
}

// ResetIndex clears the staging area, including any unfinished merge. The
// working tree is not touched.
func (r *Repo) ResetIndex() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writeIndex(newIndex()); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	r.log.Info("index reset", "op", "reset")
	return nil
}
