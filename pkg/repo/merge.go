package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/myvcs/pkg/merge"
	"github.com/odvcencio/myvcs/pkg/object"
	"github.com/odvcencio/myvcs/pkg/refs"
)

// MergeOutcome says what a merge did.
type MergeOutcome string

const (
	MergeUpToDate    MergeOutcome = "up_to_date"
	MergeFastForward MergeOutcome = "fast_forward"
	MergeCommitted   MergeOutcome = "merged"
)

// MergeResult describes a successful merge. Commit is the new HEAD commit
// (unchanged for MergeUpToDate).
type MergeResult struct {
	Outcome MergeOutcome `json:"outcome"`
	Commit  object.Hash  `json:"commit"`
	Base    object.Hash  `json:"base,omitempty"`
}

// Merge merges branch into HEAD. A target already contained in HEAD is a
// no-op; a HEAD contained in the target fast-forwards; diverged histories
// are merged path by path against their merge base. Conflicts fail with
// ErrMergeConflict and leave resolved files plus conflict markers in the
// working tree, pending add and commit.
func (r *Repo) Merge(branch string) (*MergeResult, error) {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return nil, newError(ErrInvalidArgument, "branch is required")
	}
	if refs.ValidateName(branch) != nil {
		return nil, newError(ErrUnknownBranch, "no branch named %q", branch)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tip, exists, err := r.Refs.Read(refs.HeadsPrefix + branch)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if !exists {
		return nil, newError(ErrUnknownBranch, "no branch named %q", branch)
	}
	if tip == "" {
		head, err := r.Refs.Head()
		if err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		return &MergeResult{Outcome: MergeUpToDate, Commit: head.Hash}, nil
	}
	return r.mergeLocked(tip, branch)
}

// mergeLocked merges commit tip, described by label, into HEAD.
func (r *Repo) mergeLocked(tip object.Hash, label string) (*MergeResult, error) {
	if err := r.requireCleanIndex(); err != nil {
		return nil, err
	}
	head, ours, err := r.headState()
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	upToDate, err := r.isAncestor(tip, head.Hash)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if upToDate {
		r.log.Info("already up to date", "op", "merge", "branch", head.Branch, "target", label)
		return &MergeResult{Outcome: MergeUpToDate, Commit: head.Hash}, nil
	}

	theirs, err := r.snapshotOf(tip)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	fastForward := head.Hash == ""
	if !fastForward {
		if fastForward, err = r.isAncestor(head.Hash, tip); err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
	}
	if fastForward {
		if err := r.checkTree(ours, theirs); err != nil {
			return nil, err
		}
		if err := r.writeTree(ours, theirs, nil); err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		if err := r.advanceHead(head, tip, "merge "+label+": fast-forward"); err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		r.log.Info("fast-forward", "op", "merge", "branch", head.Branch, "target", label, "commit", tip.Short())
		return &MergeResult{Outcome: MergeFastForward, Commit: tip}, nil
	}

	base, _, err := r.findMergeBase(head.Hash, tip)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	baseSnap, err := r.snapshotOf(base)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	res := merge.Snapshots(baseSnap, ours, theirs)

	if !res.Clean() {
		return nil, r.leaveConflicts(head, ours, res, tip, label)
	}

	if err := r.checkTree(ours, res.Snapshot); err != nil {
		return nil, err
	}
	c := &object.CommitObj{
		Parents:   []object.Hash{head.Hash, tip},
		Timestamp: r.now().Unix(),
		Message:   fmt.Sprintf("Merge %s", label),
		Snapshot:  res.Snapshot,
	}
	id, err := r.writeCommitObjects(c)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if err := r.writeTree(ours, res.Snapshot, nil); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if err := r.advanceHead(head, id, "merge "+label); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	r.log.Info("merged", "op", "merge", "branch", head.Branch, "target", label, "base", base.Short(), "commit", id.Short())
	return &MergeResult{Outcome: MergeCommitted, Commit: id, Base: base}, nil
}

// leaveConflicts writes the auto-resolved paths and conflict markers into
// the working tree, records the merge in the index, and returns the
// ErrMergeConflict to report. No ref moves.
func (r *Repo) leaveConflicts(head refs.Head, ours object.Snapshot, res merge.Result, tip object.Hash, label string) error {
	target := res.Snapshot.Clone()
	markers := make(map[string][]byte, len(res.Conflicts))
	for _, c := range res.Conflicts {
		oursData, err := r.blobOrEmpty(c.Ours)
		if err != nil {
			return fmt.Errorf("merge: %w", err)
		}
		theirsData, err := r.blobOrEmpty(c.Theirs)
		if err != nil {
			return fmt.Errorf("merge: %w", err)
		}
		data := merge.Markers(oursData, theirsData, "HEAD", label)
		markers[c.Path] = data
		target[c.Path] = blobHash(data)
	}
	if err := r.checkTree(ours, target); err != nil {
		return err
	}

	resolved := res.Snapshot.Clone()
	for _, c := range res.Conflicts {
		if c.Ours != "" {
			resolved[c.Path] = c.Ours
		}
	}
	ix := indexFor(ours, resolved)
	for _, p := range res.ConflictPaths() {
		ix.Conflicts[p] = true
	}
	ix.MergeHead = tip

	if err := r.writeTree(ours, target, markers); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	if err := r.writeIndex(ix); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	r.log.Info("merge conflict", "op", "merge", "branch", head.Branch, "target", label, "files", len(res.Conflicts))
	return newError(ErrMergeConflict, "merge of %s has conflicts", label).withFiles(res.ConflictPaths())
}

// MergeBase returns the merge base of two revisions, found by alternating
// breadth-first expansion. ok is false for unrelated histories.
func (r *Repo) MergeBase(a, b string) (base object.Hash, ok bool, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ha, err := r.resolveCommit(a)
	if err != nil {
		return "", false, err
	}
	hb, err := r.resolveCommit(b)
	if err != nil {
		return "", false, err
	}
	return r.findMergeBase(ha, hb)
}

// IsConflict reports whether err is a merge, revert or stash conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrMergeConflict) || errors.Is(err, ErrRevertConflict) || errors.Is(err, ErrStashConflict)
}
