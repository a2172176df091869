// Package server exposes a repository over a JSON HTTP API, plus the sync
// endpoints that HTTP remotes talk to.
package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/odvcencio/myvcs/pkg/remote"
	"github.com/odvcencio/myvcs/pkg/repo"
	"github.com/odvcencio/myvcs/pkg/worktree"
)

// Server serves one repository rooted at a directory. The repository may
// not exist yet; every route but / and /init answers not_a_repository
// until POST /init creates it.
type Server struct {
	root     string
	repoOpts []repo.Option
	log      *slog.Logger

	mu       sync.RWMutex
	repo     *repo.Repo
	syncHTTP http.Handler

	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRepoOptions passes options through to repo.Open and repo.Init.
func WithRepoOptions(opts ...repo.Option) Option {
	return func(s *Server) {
		s.repoOpts = append(s.repoOpts, opts...)
	}
}

// New returns a Server for the repository at root, opening it if it
// already exists.
func New(root string, opts ...Option) (*Server, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	s := &Server{
		root: abs,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := os.Stat(filepath.Join(abs, worktree.MetaDir)); err == nil {
		r, err := repo.Open(abs, s.repoOpts...)
		if err != nil {
			return nil, err
		}
		s.setRepo(r)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	s.handler = chain(s.routes(), s.recoverer, s.requestLogger, requestID)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Root returns the served directory.
func (s *Server) Root() string {
	return s.root
}

func (s *Server) setRepo(r *repo.Repo) {
	s.repo = r
	s.syncHTTP = remote.NewHandler(remote.NewStoreTransport(r.Store, r.Refs).WithWorktree(r.FS))
}

// current returns the open repository or ErrNotARepository.
func (s *Server) current() (*repo.Repo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.repo == nil {
		return nil, errNotInitialized()
	}
	return s.repo, nil
}

// initRepo creates the repository if needed. created is false when it
// already existed.
func (s *Server) initRepo() (created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo != nil {
		return false, nil
	}
	r, err := repo.Init(s.root, s.repoOpts...)
	if err != nil {
		return false, err
	}
	s.setRepo(r)
	return true, nil
}

func (s *Server) syncHandler() (http.Handler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.syncHTTP == nil {
		return nil, errNotInitialized()
	}
	return s.syncHTTP, nil
}
