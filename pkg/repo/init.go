package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/myvcs/pkg/refs"
	"github.com/odvcencio/myvcs/pkg/worktree"
)

// Init creates a new repository at path: the .myvcs/ directory with
// objects/, refs/, logs/, a default config, and HEAD on a null default
// branch. It fails with ErrAlreadyExists if .myvcs/ already exists.
func Init(path string, opts ...Option) (*Repo, error) {
	return InitBranch(path, "", opts...)
}

// InitBranch is Init with an explicit default branch name. An empty name
// uses the configured default, "main".
func InitBranch(path, branch string, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: abs path: %w", err)
	}
	metaDir := filepath.Join(abs, worktree.MetaDir)
	if _, err := os.Stat(metaDir); err == nil {
		return nil, newError(ErrAlreadyExists, "repository already exists at %s", metaDir)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("init: %w", err)
	}

	cfg := DefaultConfig()
	if branch != "" {
		cfg.Core.DefaultBranch = branch
	}
	if err := refs.ValidateName(cfg.Core.DefaultBranch); err != nil {
		return nil, newError(ErrInvalidArgument, "invalid default branch").wrap(err)
	}
	if err := refs.InitLayout(metaDir, cfg.Core.DefaultBranch); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	r := newRepo(abs, metaDir, opts)
	if err := r.WriteConfig(cfg); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	r.log.Info("init", "op", "init", "root", abs, "branch", cfg.Core.DefaultBranch)
	return r, nil
}

// Open searches upward from path for a .myvcs/ directory and opens the
// repository. It fails with ErrNotARepository when none is found.
func Open(path string, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		metaDir := filepath.Join(cur, worktree.MetaDir)
		info, err := os.Stat(metaDir)
		if err == nil && info.IsDir() {
			return newRepo(cur, metaDir, opts), nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, newError(ErrNotARepository, "not a myvcs repository (or any parent up to /): %s", abs)
		}
		cur = parent
	}
}
