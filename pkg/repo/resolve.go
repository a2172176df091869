package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/myvcs/pkg/object"
	"github.com/odvcencio/myvcs/pkg/refs"
)

// minPrefixLen is the shortest accepted abbreviated commit id.
const minPrefixLen = 4

// ResolveCommit maps a revision to a stored commit id. Accepted forms, in
// order: HEAD, a branch, a tag, a full id, a unique id prefix.
func (r *Repo) ResolveCommit(rev string) (object.Hash, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveCommit(rev)
}

func (r *Repo) resolveCommit(rev string) (object.Hash, error) {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return "", newError(ErrInvalidArgument, "commit_id is required")
	}

	if rev == "HEAD" {
		head, err := r.Refs.Head()
		if err != nil {
			return "", fmt.Errorf("resolve HEAD: %w", err)
		}
		if head.Hash == "" {
			return "", newError(ErrUnknownCommit, "HEAD has no commits yet")
		}
		return head.Hash, nil
	}

	if refs.ValidateName(rev) == nil {
		for _, prefix := range []string{refs.HeadsPrefix, refs.TagsPrefix} {
			h, exists, err := r.Refs.Read(prefix + rev)
			if err != nil {
				return "", err
			}
			if exists && h != "" {
				return h, nil
			}
		}
	}

	lower := strings.ToLower(rev)
	if !object.IsHex(lower) {
		return "", newError(ErrUnknownCommit, "unknown revision %q", rev)
	}
	h := object.Hash(lower)
	if !object.ValidHash(h) {
		if len(lower) < minPrefixLen {
			return "", newError(ErrUnknownCommit, "commit id prefix %q is shorter than %d characters", rev, minPrefixLen)
		}
		var err error
		h, err = r.Store.ResolvePrefix(lower)
		switch {
		case errors.Is(err, object.ErrAmbiguous):
			return "", newError(ErrInvalidArgument, "commit id prefix %q is ambiguous", rev)
		case errors.Is(err, object.ErrNotFound):
			return "", newError(ErrUnknownCommit, "unknown commit %q", rev)
		case err != nil:
			return "", err
		}
	}

	objType, _, err := r.Store.Read(h)
	if errors.Is(err, object.ErrNotFound) {
		return "", newError(ErrUnknownCommit, "unknown commit %q", rev)
	}
	if err != nil {
		return "", err
	}
	if objType != object.TypeCommit {
		return "", newError(ErrUnknownCommit, "%s is a %s, not a commit", h.Short(), objType)
	}
	return h, nil
}
