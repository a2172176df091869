package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/odvcencio/myvcs/pkg/object"
	"github.com/odvcencio/myvcs/pkg/refs"
	"github.com/odvcencio/myvcs/pkg/worktree"
)

// blobHash is the id the content would get as a blob.
func blobHash(data []byte) object.Hash {
	return object.HashObject(object.TypeBlob, data)
}

// readWorking returns p's working content and whether the file exists.
func (r *Repo) readWorking(p string) ([]byte, bool, error) {
	data, err := r.FS.Read(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", p, err)
	}
	return data, true, nil
}

// workingHash returns the blob id of p's working copy, or "" when absent.
func (r *Repo) workingHash(p string) (object.Hash, error) {
	data, ok, err := r.readWorking(p)
	if err != nil || !ok {
		return "", err
	}
	return blobHash(data), nil
}

// headState returns HEAD and the snapshot it resolves to.
func (r *Repo) headState() (refs.Head, object.Snapshot, error) {
	head, err := r.Refs.Head()
	if err != nil {
		return refs.Head{}, nil, err
	}
	snap, err := r.snapshotOf(head.Hash)
	if err != nil {
		return refs.Head{}, nil, err
	}
	return head, snap, nil
}

// changedPaths lists the paths whose blob differs between from and to.
func changedPaths(from, to object.Snapshot) []string {
	var out []string
	for p, h := range from {
		if to[p] != h {
			out = append(out, p)
		}
	}
	for p := range to {
		if _, ok := from[p]; !ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// checkTree verifies that moving the working tree from one snapshot to
// another loses nothing: every path that changes must currently hold
// either its from state or already its to state. It fails with
// ErrDirtyWorkingTree naming the offending paths.
func (r *Repo) checkTree(from, to object.Snapshot) error {
	var dirty []string
	for _, p := range changedPaths(from, to) {
		w, err := r.workingHash(p)
		if err != nil {
			return err
		}
		if w != from[p] && w != to[p] {
			dirty = append(dirty, p)
		}
	}
	if len(dirty) > 0 {
		return newError(ErrDirtyWorkingTree, "local changes would be overwritten").withFiles(dirty)
	}
	return nil
}

// writeTree moves the working tree from one snapshot to another, touching
// only the paths that differ. Content for paths in extra is written as
// given instead of read from the store.
func (r *Repo) writeTree(from, to object.Snapshot, extra map[string][]byte) error {
	for _, p := range changedPaths(from, to) {
		if data, ok := extra[p]; ok {
			if err := r.FS.Write(p, data); err != nil {
				return err
			}
			continue
		}
		h, ok := to[p]
		if !ok {
			if err := r.FS.Remove(p); err != nil {
				return err
			}
			continue
		}
		blob, err := r.Store.ReadBlob(h)
		if err != nil {
			return fmt.Errorf("materialize %s: %w", p, err)
		}
		if err := r.FS.Write(p, blob.Data); err != nil {
			return err
		}
	}
	return nil
}

// advanceHead moves the current branch, or a detached HEAD, from head's
// commit to id. It is the final step of every committing operation.
func (r *Repo) advanceHead(head refs.Head, id object.Hash, reason string) error {
	var err error
	if head.Detached() {
		err = r.Refs.SetHeadDetached(id, reason)
	} else {
		err = r.Refs.CompareAndSwap(refs.HeadsPrefix+head.Branch, head.Hash, id, reason)
	}
	if errors.Is(err, refs.ErrRefUpdatedButReflogAppendFailed) {
		r.log.Warn("reflog append failed", "op", reason, "commit", id.Short(), "err", err)
		return nil
	}
	return err
}

// cleanPath validates a user supplied path.
func cleanPath(p string) (string, error) {
	clean, err := worktree.CleanPath(p)
	if err != nil {
		return "", newError(ErrInvalidArgument, "invalid path %q", p).wrap(err)
	}
	return clean, nil
}
