package repo

import (
	"fmt"
	"strings"

	"github.com/odvcencio/myvcs/pkg/diff"
	"github.com/odvcencio/myvcs/pkg/object"
)

// FileDiff is the rendered difference for one path.
type FileDiff struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
	Diff    string `json:"diff"`
}

// DiffFile renders the unified diff between a file's HEAD content and its
// working copy. A side that lacks the file counts as empty. Unchanged
// files render as "".
func (r *Repo) DiffFile(path string) (*FileDiff, error) {
	p, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, headSnap, err := r.headState()
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	var before []byte
	h, inHead := headSnap[p]
	if inHead {
		blob, err := r.Store.ReadBlob(h)
		if err != nil {
			return nil, fmt.Errorf("diff: %w", err)
		}
		before = blob.Data
	}
	after, inWorking, err := r.readWorking(p)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	if !inHead && !inWorking {
		return nil, newError(ErrFileNotFound, "%s is neither committed nor in the working tree", p)
	}
	return r.renderDiff(p, before, after, "HEAD:"+p, "working:"+p)
}

// DiffCommits renders every file that differs between two commits, sorted
// by path.
func (r *Repo) DiffCommits(fromRev, toRev string) ([]FileDiff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	from, err := r.resolveCommit(fromRev)
	if err != nil {
		return nil, err
	}
	to, err := r.resolveCommit(toRev)
	if err != nil {
		return nil, err
	}
	fromSnap, err := r.snapshotOf(from)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	toSnap, err := r.snapshotOf(to)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	out := []FileDiff{}
	for _, p := range changedPaths(fromSnap, toSnap) {
		before, err := r.blobOrEmpty(fromSnap[p])
		if err != nil {
			return nil, fmt.Errorf("diff: %w", err)
		}
		after, err := r.blobOrEmpty(toSnap[p])
		if err != nil {
			return nil, fmt.Errorf("diff: %w", err)
		}
		fd, err := r.renderDiff(p, before, after, from.Short()+":"+p, to.Short()+":"+p)
		if err != nil {
			return nil, err
		}
		out = append(out, *fd)
	}
	return out, nil
}

func (r *Repo) blobOrEmpty(h object.Hash) ([]byte, error) {
	if h == "" {
		return nil, nil
	}
	blob, err := r.Store.ReadBlob(h)
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}

func (r *Repo) renderDiff(p string, before, after []byte, fromLabel, toLabel string) (*FileDiff, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return nil, err
	}
	added, removed := diff.Stat(diff.Bytes(before, after))
	return &FileDiff{
		Path:    p,
		Added:   added,
		Removed: removed,
		Diff:    diff.Unified(p, before, after, cfg.Diff.Context, fromLabel, toLabel),
	}, nil
}

// JoinDiffs concatenates rendered diffs in order.
func JoinDiffs(diffs []FileDiff) string {
	var b strings.Builder
	for _, d := range diffs {
		b.WriteString(d.Diff)
	}
	return b.String()
}
