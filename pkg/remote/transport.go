// Package remote moves objects and branch pointers between repositories.
// A remote is reached through a Transport: a local repository path or
// another myvcs server over HTTP.
package remote

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/odvcencio/myvcs/pkg/object"
)

var (
	// ErrStaleRef is returned when a remote branch moved since it was read.
	ErrStaleRef = errors.New("remote ref changed concurrently")
	// ErrObjectMismatch is returned when object content does not hash to
	// its claimed name.
	ErrObjectMismatch = errors.New("object hash mismatch")
	// ErrIncomplete is returned when a transfer leaves objects missing.
	ErrIncomplete = errors.New("object transfer incomplete")
	// ErrNoRepository is returned when the remote location holds no
	// repository and none may be created.
	ErrNoRepository = errors.New("no repository at remote")
	// ErrInvalidRequest is returned for malformed transport requests.
	ErrInvalidRequest = errors.New("invalid remote request")
	// ErrBranchCheckedOut is returned when a push would move the branch a
	// remote working tree has checked out.
	ErrBranchCheckedOut = errors.New("branch is checked out in the remote working tree")
)

// Transport is the remote side of a sync.
type Transport interface {
	// ListRefs returns the remote's branches.
	ListRefs(ctx context.Context) (*RefsInfo, error)
	// Has reports which of hashes the remote stores.
	Has(ctx context.Context, hashes []object.Hash) (map[object.Hash]bool, error)
	// Get returns the requested objects; absent ones are omitted.
	Get(ctx context.Context, hashes []object.Hash) ([]Object, error)
	// Put stores objects in order after verifying each one's hash.
	Put(ctx context.Context, objs []Object) error
	// UpdateBranch moves branch from oldHash to newHash, failing with
	// ErrStaleRef when the branch no longer holds oldHash.
	UpdateBranch(ctx context.Context, branch string, oldHash, newHash object.Hash) error
}

// OpenOptions configures Open.
type OpenOptions struct {
	// CreateBranch, when set, initialises a repository at a local path that
	// has none, with HEAD on this branch.
	CreateBranch string
	// Timeout bounds each HTTP request (default 60s).
	Timeout time.Duration
	// MaxAttempts bounds HTTP retries (default 3).
	MaxAttempts int
	// HTTPClient overrides the client used for HTTP remotes.
	HTTPClient *http.Client
}

// IsHTTP reports whether spec names an HTTP remote.
func IsHTTP(spec string) bool {
	s := strings.ToLower(strings.TrimSpace(spec))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Open returns the transport for spec: an http(s) URL or a local path.
func Open(spec string, opts OpenOptions) (Transport, error) {
	if IsHTTP(spec) {
		return NewClient(spec, opts)
	}
	return OpenLocal(spec, opts.CreateBranch)
}
