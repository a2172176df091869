package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/myvcs/pkg/object"
	"github.com/odvcencio/myvcs/pkg/refs"
)

// Branch is a branch name with its tip; Hash is empty for a null branch.
type Branch struct {
	Name    string      `json:"name"`
	Hash    object.Hash `json:"hash"`
	Current bool        `json:"current"`
}

// CreateBranch creates a branch at the current HEAD commit, or a null
// branch when HEAD has no commits yet.
func (r *Repo) CreateBranch(name string) error {
	name = strings.TrimSpace(name)
	if err := refs.ValidateName(name); err != nil {
		return newError(ErrUnknownBranch, "no branch named %q", name).wrap(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	head, err := r.Refs.Head()
	if err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	err = r.Refs.Create(refs.HeadsPrefix+name, head.Hash, "branch: created")
	if errors.Is(err, refs.ErrRefExists) {
		return newError(ErrAlreadyExists, "branch %q already exists", name)
	}
	if err != nil && !errors.Is(err, refs.ErrRefUpdatedButReflogAppendFailed) {
		return fmt.Errorf("create branch: %w", err)
	}
	r.log.Info("branch created", "op", "branch", "branch", name, "commit", head.Hash.Short())
	return nil
}

// Branches lists every branch sorted by name.
func (r *Repo) Branches() ([]Branch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all, err := r.Refs.List(refs.HeadsPrefix)
	if err != nil {
		return nil, err
	}
	head, err := r.Refs.Head()
	if err != nil {
		return nil, err
	}
	out := make([]Branch, 0, len(all))
	for _, name := range refs.Names(all) {
		out = append(out, Branch{Name: name, Hash: all[name], Current: name == head.Branch})
	}
	return out, nil
}

// CurrentBranch reports what HEAD points at. A detached HEAD has an empty
// Branch and the commit in Hash.
func (r *Repo) CurrentBranch() (refs.Head, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Refs.Head()
}

// Checkout switches to a branch, or detaches HEAD at a commit when target
// names no branch. It refuses while anything is staged or conflicted, and
// when a working file it must overwrite has local changes. Local edits to
// files the switch does not touch are carried over.
func (r *Repo) Checkout(target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return newError(ErrInvalidArgument, "name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	head, headSnap, err := r.headState()
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if err := r.requireCleanIndex(); err != nil {
		return err
	}

	var (
		branch string
		tip    object.Hash
	)
	if refs.ValidateName(target) == nil {
		h, exists, err := r.Refs.Read(refs.HeadsPrefix + target)
		if err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
		if exists {
			branch, tip = target, h
		}
	}
	if branch == "" {
		tip, err = r.resolveCommit(target)
		if err != nil {
			if KindOf(err) == KindNotFound {
				return newError(ErrUnknownBranch, "no branch or commit named %q", target)
			}
			return err
		}
	}
	return r.switchTo(head, headSnap, branch, tip)
}

// CheckoutBranch switches to an existing branch. Unlike Checkout it never
// falls back to commits or tags: a name with no branch, including one no
// branch could carry, fails with ErrUnknownBranch.
func (r *Repo) CheckoutBranch(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return newError(ErrInvalidArgument, "name is required")
	}
	if err := refs.ValidateName(name); err != nil {
		return newError(ErrUnknownBranch, "no branch named %q", name).wrap(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	head, headSnap, err := r.headState()
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if err := r.requireCleanIndex(); err != nil {
		return err
	}
	tip, exists, err := r.Refs.Read(refs.HeadsPrefix + name)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if !exists {
		return newError(ErrUnknownBranch, "no branch named %q", name)
	}
	return r.switchTo(head, headSnap, name, tip)
}

// switchTo moves the working tree and HEAD from head to branch, or to a
// detached tip when branch is empty. Callers hold r.mu.
func (r *Repo) switchTo(head refs.Head, headSnap object.Snapshot, branch string, tip object.Hash) error {
	if branch != "" && branch == head.Branch {
		return nil
	}

	targetSnap, err := r.snapshotOf(tip)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if err := r.checkTree(headSnap, targetSnap); err != nil {
		return err
	}
	if err := r.writeTree(headSnap, targetSnap, nil); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	if branch != "" {
		err = r.Refs.SetHeadBranch(branch, "checkout: moving to "+branch)
	} else {
		err = r.Refs.SetHeadDetached(tip, "checkout: moving to "+tip.Short())
	}
	if err != nil && !errors.Is(err, refs.ErrRefUpdatedButReflogAppendFailed) {
		return fmt.Errorf("checkout: %w", err)
	}
	r.log.Info("checked out", "op", "checkout", "branch", branch, "commit", tip.Short(), "files", len(targetSnap))
	return nil
}

// requireCleanIndex fails when a merge is unresolved or anything is staged.
func (r *Repo) requireCleanIndex() error {
	ix, err := r.readIndex()
	if err != nil {
		return err
	}
	if len(ix.Conflicts) > 0 || ix.MergeHead != "" {
		return newError(ErrUnresolvedConflicts, "finish or reset the unfinished merge first").withFiles(ix.conflictPaths())
	}
	if ix.hasStaged() {
		paths := append(sortedKeys(ix.Entries), sortedKeys(ix.Removed)...)
		return newError(ErrDirtyWorkingTree, "staged changes would be lost").withFiles(paths)
	}
	return nil
}
