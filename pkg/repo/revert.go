package repo

import (
	"fmt"

	"github.com/odvcencio/myvcs/pkg/merge"
	"github.com/odvcencio/myvcs/pkg/object"
)

// Revert commits the inverse of rev's changes against its first parent on
// top of HEAD. The inverse is merged with rev's snapshot as base, so edits
// made since rev to other paths survive. Conflicts fail with
// ErrRevertConflict and change nothing. Staged changes are kept when they
// touch no reverted path or already stage the reverted content.
func (r *Repo) Revert(rev string) (object.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.resolveCommit(rev)
	if err != nil {
		return "", err
	}
	ix, err := r.readIndex()
	if err != nil {
		return "", fmt.Errorf("revert: %w", err)
	}
	if len(ix.Conflicts) > 0 || ix.MergeHead != "" {
		return "", newError(ErrUnresolvedConflicts, "finish or reset the unfinished merge first").withFiles(ix.conflictPaths())
	}
	target, err := r.readCommit(id)
	if err != nil {
		return "", fmt.Errorf("revert: %w", err)
	}
	parentSnap, err := r.snapshotOf(target.FirstParent())
	if err != nil {
		return "", fmt.Errorf("revert: %w", err)
	}
	head, ours, err := r.headState()
	if err != nil {
		return "", fmt.Errorf("revert: %w", err)
	}

	theirs := merge.Diff(parentSnap, target.Snapshot).Inverse().Apply(target.Snapshot)
	res := merge.Snapshots(target.Snapshot, ours, theirs)
	if !res.Clean() {
		return "", newError(ErrRevertConflict, "revert of %s conflicts with later changes", id.Short()).withFiles(res.ConflictPaths())
	}
	if res.Snapshot.Equal(ours) {
		return "", newError(ErrEmptyCommit, "reverting %s changes nothing", id.Short())
	}
	staged := ix.apply(ours)
	var dirty []string
	for _, p := range changedPaths(ours, res.Snapshot) {
		if staged[p] != ours[p] && staged[p] != res.Snapshot[p] {
			dirty = append(dirty, p)
		}
	}
	if len(dirty) > 0 {
		return "", newError(ErrDirtyWorkingTree, "staged changes would be lost").withFiles(dirty)
	}
	if err := r.checkTree(ours, res.Snapshot); err != nil {
		return "", err
	}

	var parents []object.Hash
	if head.Hash != "" {
		parents = []object.Hash{head.Hash}
	}
	c := &object.CommitObj{
		Parents:   parents,
		Timestamp: r.now().Unix(),
		Message:   fmt.Sprintf("Revert \"%s\"\n\nThis reverts commit %s.", subject(target.Message), id),
		Snapshot:  res.Snapshot,
	}
	newID, err := r.writeCommitObjects(c)
	if err != nil {
		return "", fmt.Errorf("revert: %w", err)
	}
	if err := r.writeTree(ours, res.Snapshot, nil); err != nil {
		return "", fmt.Errorf("revert: %w", err)
	}
	if err := r.advanceHead(head, newID, "revert "+id.Short()); err != nil {
		return "", fmt.Errorf("revert: %w", err)
	}
	if err := r.writeIndex(rebaseIndex(ix, res.Snapshot)); err != nil {
		r.log.Warn("rebase index failed", "op", "revert", "commit", newID.Short(), "err", err)
	}
	r.log.Info("reverted", "op", "revert", "branch", head.Branch, "reverted", id.Short(), "commit", newID.Short())
	return newID, nil
}
