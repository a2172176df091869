package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/odvcencio/myvcs/pkg/object"
	"github.com/odvcencio/myvcs/pkg/refs"
	"github.com/odvcencio/myvcs/pkg/remote"
)

// PushResult reports what Push sent.
type PushResult struct {
	Remote  string      `json:"remote"`
	Branch  string      `json:"branch"`
	Old     object.Hash `json:"old,omitempty"`
	New     object.Hash `json:"new"`
	Objects int         `json:"objects"`
}

// PullResult reports what Pull fetched and how it merged.
type PullResult struct {
	Remote  string       `json:"remote"`
	Branch  string       `json:"branch"`
	Objects int          `json:"objects"`
	Merge   *MergeResult `json:"merge"`
}

// Push sends the current branch to the branch of the same name at
// remoteSpec (a configured remote name, a path or an http(s) URL). Objects
// the remote lacks are copied and confirmed before the remote branch moves
// by compare-and-swap; a remote tip that is not an ancestor of the local
// tip fails with ErrNonFastForward. An empty path gets a new repository.
func (r *Repo) Push(ctx context.Context, remoteSpec string) (*PushResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	location, err := r.remoteLocation(remoteSpec)
	if err != nil {
		return nil, err
	}
	head, err := r.Refs.Head()
	if err != nil {
		return nil, fmt.Errorf("push: %w", err)
	}
	if head.Detached() {
		return nil, newError(ErrDetachedHead, "push needs a current branch")
	}
	if head.Hash == "" {
		return nil, newError(ErrEmptyCommit, "branch %q has no commits to push", head.Branch)
	}

	t, err := r.openRemote(location, head.Branch)
	if err != nil {
		return nil, err
	}
	info, err := t.ListRefs(ctx)
	if err != nil {
		return nil, remoteIOError("push", location, err)
	}
	remoteTip := info.Branches[head.Branch]
	result := &PushResult{Remote: location, Branch: head.Branch, Old: remoteTip, New: head.Hash}
	if remoteTip == head.Hash {
		return result, nil
	}
	if remoteTip != "" {
		ok := r.Store.Has(remoteTip)
		if ok {
			if ok, err = r.isAncestor(remoteTip, head.Hash); err != nil {
				return nil, fmt.Errorf("push: %w", err)
			}
		}
		if !ok {
			return nil, newError(ErrNonFastForward, "remote %s has commits on %s that are not in the local branch; pull first", remoteSpec, head.Branch)
		}
	}

	n, err := remote.PushObjects(ctx, r.Store, t, head.Hash)
	if err != nil {
		return nil, remoteIOError("push", location, err)
	}
	result.Objects = n
	r.log.Debug("objects pushed", "op", "push", "remote", location, "objects", n)

	if err := t.UpdateBranch(ctx, head.Branch, remoteTip, head.Hash); err != nil {
		if errors.Is(err, remote.ErrStaleRef) {
			return nil, newError(ErrNonFastForward, "remote branch %s moved during push", head.Branch).wrap(err)
		}
		if errors.Is(err, remote.ErrBranchCheckedOut) {
			return nil, newError(ErrBranchCheckedOut, "remote %s has %s checked out with a working tree", remoteSpec, head.Branch).wrap(err)
		}
		return nil, remoteIOError("push", location, err)
	}
	r.log.Info("pushed", "op", "push", "remote", location, "branch", head.Branch, "old", remoteTip.Short(), "commit", head.Hash.Short(), "objects", n)
	return result, nil
}

// Pull fetches the remote branch named like the current branch and merges
// it into HEAD: a fast-forward when possible, otherwise a three-way merge
// with the same conflict handling as Merge.
func (r *Repo) Pull(ctx context.Context, remoteSpec string) (*PullResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	location, err := r.remoteLocation(remoteSpec)
	if err != nil {
		return nil, err
	}
	head, err := r.Refs.Head()
	if err != nil {
		return nil, fmt.Errorf("pull: %w", err)
	}
	if head.Detached() {
		return nil, newError(ErrDetachedHead, "pull needs a current branch")
	}
	if err := r.requireCleanIndex(); err != nil {
		return nil, err
	}

	t, err := r.openRemote(location, "")
	if err != nil {
		return nil, err
	}
	info, err := t.ListRefs(ctx)
	if err != nil {
		return nil, remoteIOError("pull", location, err)
	}
	tip, ok := info.Branches[head.Branch]
	if !ok {
		return nil, newError(ErrUnknownBranch, "remote %s has no branch %q", remoteSpec, head.Branch)
	}
	result := &PullResult{Remote: location, Branch: head.Branch}
	if tip == "" {
		result.Merge = &MergeResult{Outcome: MergeUpToDate, Commit: head.Hash}
		return result, nil
	}

	n, err := remote.Fetch(ctx, t, r.Store, tip)
	if err != nil {
		return nil, remoteIOError("pull", location, err)
	}
	result.Objects = n
	r.log.Debug("objects fetched", "op", "pull", "remote", location, "objects", n)

	res, err := r.mergeLocked(tip, remoteSpec+"/"+head.Branch)
	if err != nil {
		return nil, err
	}
	result.Merge = res
	r.log.Info("pulled", "op", "pull", "remote", location, "branch", head.Branch, "outcome", string(res.Outcome), "commit", res.Commit.Short())
	return result, nil
}

func (r *Repo) openRemote(location, createBranch string) (remote.Transport, error) {
	t, err := remote.Open(location, remote.OpenOptions{CreateBranch: createBranch})
	switch {
	case errors.Is(err, remote.ErrNoRepository):
		return nil, newError(ErrUnknownRemote, "no repository at %s", location).wrap(err)
	case errors.Is(err, remote.ErrInvalidRequest):
		return nil, newError(ErrInvalidArgument, "invalid remote %q", location).wrap(err)
	case err != nil:
		return nil, fmt.Errorf("open remote %s: %w", location, err)
	}
	return t, nil
}

func remoteIOError(op, location string, err error) error {
	if errors.Is(err, remote.ErrNoRepository) {
		return newError(ErrUnknownRemote, "no repository at %s", location).wrap(err)
	}
	return fmt.Errorf("%s %s: %w", op, location, err)
}

// VerifyReport is the outcome of Verify.
type VerifyReport struct {
	Objects int           `json:"objects"`
	Corrupt []object.Hash `json:"corrupt"`

	// Missing lists refs whose commit, or some object it reaches, is absent.
	Missing []string `json:"missing"`
}

// OK reports whether nothing is corrupt or missing.
func (v *VerifyReport) OK() bool {
	return len(v.Corrupt) == 0 && len(v.Missing) == 0
}

// Verify re-hashes every stored object and checks that every branch and
// tag reaches only objects that exist.
func (r *Repo) Verify() (*VerifyReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary, err := r.Store.Verify()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	report := &VerifyReport{Objects: summary.Objects, Corrupt: summary.Corrupt, Missing: []string{}}
	if report.Corrupt == nil {
		report.Corrupt = []object.Hash{}
	}

	for _, prefix := range []string{refs.HeadsPrefix, refs.TagsPrefix} {
		all, err := r.Refs.List(prefix)
		if err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
		for _, name := range refs.Names(all) {
			tip := all[name]
			if tip == "" {
				continue
			}
			if !r.reachesOnlyStored(tip) {
				report.Missing = append(report.Missing, prefix+name)
			}
		}
	}
	return report, nil
}

func (r *Repo) reachesOnlyStored(tip object.Hash) bool {
	if !r.Store.Has(tip) {
		return false
	}
	reachable, err := r.Store.ReachableSet([]object.Hash{tip})
	if err != nil {
		return false
	}
	for h := range reachable {
		objType, data, err := r.Store.Read(h)
		if err != nil {
			return false
		}
		linked, err := object.References(objType, data)
		if err != nil {
			return false
		}
		for _, l := range linked {
			if _, ok := reachable[l]; !ok {
				return false
			}
		}
	}
	return true
}
