package repo

import (
	"fmt"
	"strings"

	"github.com/odvcencio/myvcs/pkg/object"
	"github.com/odvcencio/myvcs/pkg/refs"
)

// LogEntry is one commit as listed by Log and History.
type LogEntry struct {
	ID        object.Hash   `json:"id"`
	Parents   []object.Hash `json:"parents"`
	Message   string        `json:"message"`
	Timestamp int64         `json:"timestamp"`
}

// Commit records HEAD overlaid with the index as a new commit and advances
// the current branch (or detached HEAD) to it. It fails with ErrEmptyCommit
// when nothing is staged, except for the first commit of a branch and for
// finishing a merge.
func (r *Repo) Commit(message string) (object.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commitLocked(message)
}

// CommitAll stages every working-tree change, then commits.
func (r *Repo) CommitAll(message string) (object.Hash, error) {
	if strings.TrimSpace(message) == "" {
		return "", newError(ErrInvalidArgument, "message is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.addAllLocked(); err != nil {
		return "", err
	}
	return r.commitLocked(message)
}

func (r *Repo) commitLocked(message string) (object.Hash, error) {
	if strings.TrimSpace(message) == "" {
		return "", newError(ErrInvalidArgument, "message is required")
	}
	head, headSnap, err := r.headState()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	ix, err := r.readIndex()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if len(ix.Conflicts) > 0 {
		return "", newError(ErrUnresolvedConflicts, "resolve conflicts and add the files first").withFiles(ix.conflictPaths())
	}
	if !ix.hasStaged() && head.Hash != "" && ix.MergeHead == "" {
		return "", newError(ErrEmptyCommit, "nothing to commit")
	}

	var parents []object.Hash
	if head.Hash != "" {
		parents = append(parents, head.Hash)
	}
	if ix.MergeHead != "" {
		parents = append(parents, ix.MergeHead)
	}
	c := &object.CommitObj{
		Parents:   parents,
		Timestamp: r.now().Unix(),
		Message:   message,
		Snapshot:  ix.apply(headSnap),
	}
	id, err := r.writeCommitObjects(c)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	if err := r.advanceHead(head, id, "commit: "+subject(message)); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	// The index now has a stale base and reads as empty even if this
	// write fails.
	if err := r.writeIndex(newIndex()); err != nil {
		r.log.Warn("clear index failed", "op", "commit", "commit", id.Short(), "err", err)
	}
	r.log.Info("committed", "op", "commit", "branch", head.Branch, "commit", id.Short(), "files", len(c.Snapshot))
	return id, nil
}

// writeCommitObjects stores c after checking that every blob it names is
// present, so no ref can come to reference a missing object.
func (r *Repo) writeCommitObjects(c *object.CommitObj) (object.Hash, error) {
	for p, h := range c.Snapshot {
		if !r.Store.Has(h) {
			return "", fmt.Errorf("blob %s for %s: %w", h, p, object.ErrNotFound)
		}
	}
	return r.Store.WriteCommit(c)
}

// subject returns the first line of a commit message.
func subject(message string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return line
}

// Log lists the commits reachable from rev (HEAD when empty), newest
// first. A positive limit bounds the result.
func (r *Repo) Log(rev string, limit int) ([]LogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tip, err := r.logTip(rev)
	if err != nil {
		return nil, err
	}
	out := []LogEntry{}
	err = r.walkHistory(tip, limit, func(h object.Hash, c *object.CommitObj) bool {
		out = append(out, logEntry(h, c))
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	return out, nil
}

// History lists, newest first, the commits that changed path relative to
// their first parent.
func (r *Repo) History(path string) ([]LogEntry, error) {
	p, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	head, err := r.Refs.Head()
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	out := []LogEntry{}
	var walkErr error
	err = r.walkHistory(head.Hash, 0, func(h object.Hash, c *object.CommitObj) bool {
		parentSnap, err := r.snapshotOf(c.FirstParent())
		if err != nil {
			walkErr = err
			return false
		}
		if c.Snapshot[p] != parentSnap[p] {
			out = append(out, logEntry(h, c))
		}
		return true
	})
	if err == nil {
		err = walkErr
	}
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return out, nil
}

// logTip resolves a log starting point: HEAD, then a branch (null
// branches have no history), then any commit revision.
func (r *Repo) logTip(rev string) (object.Hash, error) {
	rev = strings.TrimSpace(rev)
	if rev == "" || rev == "HEAD" {
		head, err := r.Refs.Head()
		if err != nil {
			return "", fmt.Errorf("log: %w", err)
		}
		return head.Hash, nil
	}
	if h, exists, err := r.Refs.Read(refs.HeadsPrefix + rev); err != nil {
		return "", fmt.Errorf("log: %w", err)
	} else if exists {
		return h, nil
	}
	h, err := r.resolveCommit(rev)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return "", newError(ErrUnknownBranch, "no branch or commit named %q", rev)
		}
		return "", err
	}
	return h, nil
}

func logEntry(h object.Hash, c *object.CommitObj) LogEntry {
	parents := c.Parents
	if parents == nil {
		parents = []object.Hash{}
	}
	return LogEntry{ID: h, Parents: parents, Message: c.Message, Timestamp: c.Timestamp}
}
