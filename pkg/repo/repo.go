// Package repo is the version-control engine: staging, status, the commit
// graph, checkout, merge, revert, stash, tags and remote sync, all over a
// content-addressed object store and an on-disk ref table.
package repo

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/odvcencio/myvcs/pkg/object"
	"github.com/odvcencio/myvcs/pkg/refs"
	"github.com/odvcencio/myvcs/pkg/worktree"
)

// Repo represents an opened repository.
//
// Mutating operations hold the write lock for their whole duration; reads
// share the read lock. Every mutation writes its objects first and moves a
// ref last.
type Repo struct {
	RootDir string        // working directory root
	MetaDir string        // .myvcs/ directory
	Store   *object.Store // content-addressed object store
	Refs    *refs.Table   // HEAD, branches and tags
	FS      worktree.FS   // working tree capability

	log *slog.Logger
	now func() time.Time
	mu  sync.RWMutex

	graphOnce sync.Once
	graph     *graphState
}

// Option configures a Repo at Init or Open.
type Option func(*Repo)

// WithWorktree replaces the on-disk working tree.
func WithWorktree(fs worktree.FS) Option {
	return func(r *Repo) { r.FS = fs }
}

// WithLogger sets the logger operations report to.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repo) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock sets the clock used for commit timestamps and reflog entries.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) {
		if now != nil {
			r.now = now
		}
	}
}

func newRepo(root, metaDir string, opts []Option) *Repo {
	r := &Repo{
		RootDir: root,
		MetaDir: metaDir,
		Store:   object.NewStore(metaDir),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.FS == nil {
		r.FS = worktree.NewOS(root)
	}
	r.Refs = refs.New(metaDir).WithClock(r.now)
	return r
}

func (r *Repo) graphState() *graphState {
	r.graphOnce.Do(func() {
		r.graph = newGraphState()
	})
	return r.graph
}
