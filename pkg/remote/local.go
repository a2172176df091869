package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/myvcs/pkg/object"
	"github.com/odvcencio/myvcs/pkg/refs"
	"github.com/odvcencio/myvcs/pkg/worktree"
)

// StoreTransport serves a Transport straight from an object store and ref
// table. It backs local path remotes and the server's sync endpoints.
type StoreTransport struct {
	store *object.Store
	refs  *refs.Table

	// tree is the working tree checked out on HEAD, if any.
	tree worktree.FS
}

// NewStoreTransport wraps an existing store and ref table.
func NewStoreTransport(store *object.Store, table *refs.Table) *StoreTransport {
	return &StoreTransport{store: store, refs: table}
}

// WithWorktree attaches the repository's working tree. While it holds any
// file, pushes may not move the branch HEAD has checked out.
func (s *StoreTransport) WithWorktree(tree worktree.FS) *StoreTransport {
	s.tree = tree
	return s
}

// OpenLocal opens the repository rooted at path. When the path holds no
// repository and createBranch is set, an empty one is created with HEAD on
// createBranch.
func OpenLocal(path, createBranch string) (*StoreTransport, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty remote path", ErrInvalidRequest)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open remote %s: %w", path, err)
	}
	meta := filepath.Join(abs, worktree.MetaDir)
	info, err := os.Stat(meta)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("open remote %s: %s is not a directory", path, meta)
	case errors.Is(err, os.ErrNotExist):
		if createBranch == "" {
			return nil, fmt.Errorf("open remote %s: %w", path, ErrNoRepository)
		}
		if err := refs.InitLayout(meta, createBranch); err != nil {
			return nil, fmt.Errorf("open remote %s: %w", path, err)
		}
	case err != nil:
		return nil, fmt.Errorf("open remote %s: %w", path, err)
	}
	return NewStoreTransport(object.NewStore(meta), refs.New(meta)).WithWorktree(worktree.NewOS(abs)), nil
}

// ListRefs implements Transport.
func (s *StoreTransport) ListRefs(_ context.Context) (*RefsInfo, error) {
	branches, err := s.refs.List(refs.HeadsPrefix)
	if err != nil {
		return nil, err
	}
	info := &RefsInfo{Branches: branches}
	if head, err := s.refs.Head(); err == nil && !head.Detached() {
		info.Head = head.Branch
	}
	return info, nil
}

// Has implements Transport.
func (s *StoreTransport) Has(_ context.Context, hashes []object.Hash) (map[object.Hash]bool, error) {
	out := make(map[object.Hash]bool, len(hashes))
	for _, h := range hashes {
		out[h] = s.store.Has(h)
	}
	return out, nil
}

// Get implements Transport.
func (s *StoreTransport) Get(_ context.Context, hashes []object.Hash) ([]Object, error) {
	out := make([]Object, 0, len(hashes))
	for _, h := range hashes {
		objType, data, err := s.store.Read(h)
		if errors.Is(err, object.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, Object{Hash: h, Type: objType, Data: data})
	}
	return out, nil
}

// Put implements Transport.
func (s *StoreTransport) Put(_ context.Context, objs []Object) error {
	for _, obj := range objs {
		if _, err := writeVerifiedObject(s.store, obj); err != nil {
			return err
		}
	}
	return nil
}

// UpdateBranch implements Transport. The new tip must already be stored
// as a commit.
func (s *StoreTransport) UpdateBranch(_ context.Context, branch string, oldHash, newHash object.Hash) error {
	if err := refs.ValidateName(branch); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if _, err := s.store.ReadCommit(newHash); err != nil {
		return fmt.Errorf("update branch %s: %w", branch, err)
	}
	if err := s.checkNotCheckedOut(branch); err != nil {
		return err
	}
	err := s.refs.CompareAndSwap(refs.HeadsPrefix+branch, oldHash, newHash, "push")
	if errors.Is(err, refs.ErrCASMismatch) {
		return fmt.Errorf("update branch %s: %w", branch, ErrStaleRef)
	}
	return err
}

// checkNotCheckedOut refuses to move branch when HEAD has it checked out
// in a working tree that holds files, since that tree and its index would
// silently fall behind the ref.
func (s *StoreTransport) checkNotCheckedOut(branch string) error {
	if s.tree == nil {
		return nil
	}
	head, err := s.refs.Head()
	if err != nil {
		return fmt.Errorf("update branch %s: %w", branch, err)
	}
	if head.Detached() || head.Branch != branch {
		return nil
	}
	files, err := s.tree.List()
	if err != nil {
		return fmt.Errorf("update branch %s: %w", branch, err)
	}
	if len(files) > 0 {
		return fmt.Errorf("update branch %s: %w", branch, ErrBranchCheckedOut)
	}
	return nil
}

func writeVerifiedObject(store *object.Store, obj Object) (bool, error) {
	if !object.ValidHash(obj.Hash) {
		return false, fmt.Errorf("%w: bad object hash %q", ErrInvalidRequest, obj.Hash)
	}
	switch obj.Type {
	case object.TypeBlob:
	case object.TypeCommit:
		if _, err := object.UnmarshalCommit(obj.Data); err != nil {
			return false, fmt.Errorf("%w: commit %s: %v", ErrInvalidRequest, obj.Hash, err)
		}
	default:
		return false, fmt.Errorf("%w: unsupported object type %q", ErrInvalidRequest, obj.Type)
	}
	if computed := object.HashObject(obj.Type, obj.Data); computed != obj.Hash {
		return false, fmt.Errorf("%w: expected %s, got %s", ErrObjectMismatch, obj.Hash, computed)
	}
	if store.Has(obj.Hash) {
		return false, nil
	}
	written, err := store.Write(obj.Type, obj.Data)
	if err != nil {
		return false, err
	}
	if written != obj.Hash {
		return false, fmt.Errorf("%w: expected %s, wrote %s", ErrObjectMismatch, obj.Hash, written)
	}
	return true, nil
}
