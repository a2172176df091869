package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/odvcencio/myvcs/pkg/object"
)

// Index is the staging area: the pending difference between HEAD and the
// next commit. It is stored as JSON in .myvcs/index.
type Index struct {
	// Entries maps staged paths to blobs that differ from HEAD.
	Entries map[string]object.Hash `json:"entries"`

	// Removed marks HEAD paths staged for deletion.
	Removed map[string]bool `json:"removed,omitempty"`

	// Conflicts marks paths left conflicted by a merge.
	Conflicts map[string]bool `json:"conflicts,omitempty"`

	// MergeHead is the other parent of an unfinished merge.
	MergeHead object.Hash `json:"merge_head,omitempty"`

	// Base is the commit HEAD resolved to when the index was written.
	Base object.Hash `json:"base,omitempty"`
}

func newIndex() *Index {
	return &Index{
		Entries:   make(map[string]object.Hash),
		Removed:   make(map[string]bool),
		Conflicts: make(map[string]bool),
	}
}

func (r *Repo) indexPath() string {
	return filepath.Join(r.MetaDir, "index")
}

// readIndex loads .myvcs/index. A missing file is an empty index, and so
// is one written against a commit HEAD no longer resolves to: committing
// operations move HEAD before clearing the index, so a stale index is what
// an interrupted commit leaves behind.
func (r *Repo) readIndex() (*Index, error) {
	data, err := os.ReadFile(r.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newIndex(), nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}

	ix := newIndex()
	if err := json.Unmarshal(data, ix); err != nil {
		return nil, fmt.Errorf("read index: unmarshal: %w", err)
	}
	if ix.Entries == nil {
		ix.Entries = make(map[string]object.Hash)
	}
	if ix.Removed == nil {
		ix.Removed = make(map[string]bool)
	}
	if ix.Conflicts == nil {
		ix.Conflicts = make(map[string]bool)
	}
	head, err := r.Refs.Head()
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if ix.Base != head.Hash {
		r.log.Debug("stale index ignored", "base", ix.Base.Short(), "head", head.Hash.Short())
		return newIndex(), nil
	}
	return ix, nil
}

// writeIndex atomically replaces .myvcs/index, recording the current HEAD
// commit as its base.
func (r *Repo) writeIndex(ix *Index) error {
	head, err := r.Refs.Head()
	if err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	ix.Base = head.Hash
	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return fmt.Errorf("write index: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(r.MetaDir, ".index-tmp-*")
	if err != nil {
		return fmt.Errorf("write index: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write index: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write index: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write index: close: %w", err)
	}
	if err := os.Rename(tmpName, r.indexPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write index: rename: %w", err)
	}
	return nil
}

// Clean reports whether nothing is staged and no merge is in progress.
func (ix *Index) Clean() bool {
	return len(ix.Entries) == 0 && len(ix.Removed) == 0 && len(ix.Conflicts) == 0 && ix.MergeHead == ""
}

// hasStaged reports whether the index holds staged entries or removals.
func (ix *Index) hasStaged() bool {
	return len(ix.Entries) > 0 || len(ix.Removed) > 0
}

// apply overlays the index onto head, yielding the next commit's snapshot.
func (ix *Index) apply(head object.Snapshot) object.Snapshot {
	out := head.Clone()
	for p, h := range ix.Entries {
		out[p] = h
	}
	for p := range ix.Removed {
		delete(out, p)
	}
	return out
}

// stage records p as h relative to head, dropping the entry when h is
// exactly what HEAD already has. An empty h stages a removal.
func (ix *Index) stage(head object.Snapshot, p string, h object.Hash) {
	delete(ix.Conflicts, p)
	if h == "" {
		delete(ix.Entries, p)
		if _, ok := head[p]; ok {
			ix.Removed[p] = true
		}
		return
	}
	delete(ix.Removed, p)
	if head[p] == h {
		delete(ix.Entries, p)
		return
	}
	ix.Entries[p] = h
}

// indexFor builds the index that turns head into target.
func indexFor(head, target object.Snapshot) *Index {
	ix := newIndex()
	for p, h := range target {
		if head[p] != h {
			ix.Entries[p] = h
		}
	}
	for p := range head {
		if _, ok := target[p]; !ok {
			ix.Removed[p] = true
		}
	}
	return ix
}

// rebaseIndex re-expresses ix relative to a new HEAD snapshot, dropping
// entries the new HEAD already holds.
func rebaseIndex(ix *Index, head object.Snapshot) *Index {
	out := newIndex()
	for p, h := range ix.Entries {
		if head[p] != h {
			out.Entries[p] = h
		}
	}
	for p := range ix.Removed {
		if _, ok := head[p]; ok {
			out.Removed[p] = true
		}
	}
	return out
}

func (ix *Index) conflictPaths() []string {
	return sortedKeys(ix.Conflicts)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
