package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/myvcs/pkg/object"
	"github.com/odvcencio/myvcs/pkg/refs"
)

// CreateTag binds name to commit rev, HEAD when rev is empty. Tags never
// move once created.
func (r *Repo) CreateTag(name, rev string) (object.Hash, error) {
	name = strings.TrimSpace(name)
	if strings.TrimSpace(rev) == "" {
		rev = "HEAD"
	}
	if err := refs.ValidateName(name); err != nil {
		return "", newError(ErrInvalidArgument, "invalid tag name %q", name).wrap(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.resolveCommit(rev)
	if err != nil {
		return "", err
	}
	err = r.Refs.Create(refs.TagsPrefix+name, id, "tag: created")
	if errors.Is(err, refs.ErrRefExists) {
		return "", newError(ErrTagExists, "tag %q already exists", name)
	}
	if err != nil && !errors.Is(err, refs.ErrRefUpdatedButReflogAppendFailed) {
		return "", fmt.Errorf("tag: %w", err)
	}
	r.log.Info("tagged", "op", "tag", "tag", name, "commit", id.Short())
	return id, nil
}

// Tag is a tag name with its commit.
type Tag struct {
	Name   string      `json:"name"`
	Commit object.Hash `json:"commit_id"`
}

// Tags lists every tag sorted by name.
func (r *Repo) Tags() ([]Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all, err := r.Refs.List(refs.TagsPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]Tag, 0, len(all))
	for _, name := range refs.Names(all) {
		out = append(out, Tag{Name: name, Commit: all[name]})
	}
	return out, nil
}
