package repo

import (
	"strings"

	"github.com/odvcencio/myvcs/pkg/refs"
)

// Reflog returns the update history of ref, newest first. ref may be HEAD
// (the default), a full ref name, a branch or a tag.
func (r *Repo) Reflog(ref string, limit int) ([]refs.ReflogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref = strings.TrimSpace(ref)
	switch {
	case ref == "" || ref == "HEAD":
		ref = "HEAD"
	case strings.HasPrefix(ref, refs.HeadsPrefix), strings.HasPrefix(ref, refs.TagsPrefix):
		short := strings.TrimPrefix(strings.TrimPrefix(ref, refs.HeadsPrefix), refs.TagsPrefix)
		if err := refs.ValidateName(short); err != nil {
			return nil, newError(ErrInvalidArgument, "invalid ref %q", ref).wrap(err)
		}
	default:
		if err := refs.ValidateName(ref); err != nil {
			return nil, newError(ErrInvalidArgument, "invalid ref %q", ref).wrap(err)
		}
		name := refs.HeadsPrefix + ref
		if _, exists, err := r.Refs.Read(name); err != nil {
			return nil, err
		} else if !exists {
			if _, tagged, err := r.Refs.Read(refs.TagsPrefix + ref); err == nil && tagged {
				name = refs.TagsPrefix + ref
			}
		}
		ref = name
	}
	return r.Refs.ReadReflog(ref, limit)
}
