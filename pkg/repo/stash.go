package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/myvcs/pkg/merge"
	"github.com/odvcencio/myvcs/pkg/object"
)

// StashEntry is one shelved set of changes. Index holds the staged
// snapshot and Working the tracked working files, both as full snapshots.
type StashEntry struct {
	Base      object.Hash     `json:"base"`
	Index     object.Snapshot `json:"index"`
	Working   object.Snapshot `json:"working"`
	Timestamp int64           `json:"timestamp"`
}

type stashFile struct {
	Entries []StashEntry `json:"entries"`
}

func (r *Repo) stashPath() string {
	return filepath.Join(r.MetaDir, "stash.json")
}

func (r *Repo) readStash() (*stashFile, error) {
	data, err := os.ReadFile(r.stashPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &stashFile{}, nil
		}
		return nil, fmt.Errorf("read stash: %w", err)
	}
	var sf stashFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("read stash: unmarshal: %w", err)
	}
	return &sf, nil
}

func (r *Repo) writeStash(sf *stashFile) error {
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return fmt.Errorf("write stash: marshal: %w", err)
	}
	tmp, err := os.CreateTemp(r.MetaDir, ".stash-tmp-*")
	if err != nil {
		return fmt.Errorf("write stash: tmpfile: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write stash: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write stash: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write stash: close: %w", err)
	}
	if err := os.Rename(tmpName, r.stashPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write stash: rename: %w", err)
	}
	return nil
}

// Stash shelves the index and the tracked working files, then resets both
// to HEAD. Untracked files are left alone. It fails with ErrNoChanges when
// there is nothing to shelve.
func (r *Repo) Stash() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	head, headSnap, err := r.headState()
	if err != nil {
		return fmt.Errorf("stash: %w", err)
	}
	ix, err := r.readIndex()
	if err != nil {
		return fmt.Errorf("stash: %w", err)
	}
	if len(ix.Conflicts) > 0 || ix.MergeHead != "" {
		return newError(ErrUnresolvedConflicts, "finish or reset the unfinished merge first").withFiles(ix.conflictPaths())
	}
	staged := ix.apply(headSnap)

	working := make(object.Snapshot)
	tracked := staged.Clone()
	for p, h := range headSnap {
		tracked[p] = h
	}
	for _, p := range tracked.Paths() {
		data, ok, err := r.readWorking(p)
		if err != nil {
			return fmt.Errorf("stash: %w", err)
		}
		if !ok {
			continue
		}
		h, err := r.Store.WriteBlob(&object.Blob{Data: data})
		if err != nil {
			return fmt.Errorf("stash: %w", err)
		}
		working[p] = h
	}
	if !ix.hasStaged() && working.Equal(headSnap) {
		return newError(ErrNoChanges, "no local changes to stash")
	}

	sf, err := r.readStash()
	if err != nil {
		return err
	}
	sf.Entries = append(sf.Entries, StashEntry{
		Base:      head.Hash,
		Index:     staged,
		Working:   working,
		Timestamp: r.now().Unix(),
	})
	if err := r.writeStash(sf); err != nil {
		return err
	}
	if err := r.writeTree(working, headSnap, nil); err != nil {
		return fmt.Errorf("stash: %w", err)
	}
	if err := r.writeIndex(newIndex()); err != nil {
		return fmt.Errorf("stash: %w", err)
	}
	r.log.Info("stashed", "op", "stash", "branch", head.Branch, "depth", len(sf.Entries))
	return nil
}

// StashPop re-applies the newest stash entry onto HEAD, merging its index
// and working snapshots against the entry's base. Any conflict fails with
// ErrStashConflict, changes nothing and keeps the entry.
func (r *Repo) StashPop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sf, err := r.readStash()
	if err != nil {
		return err
	}
	if len(sf.Entries) == 0 {
		return newError(ErrEmptyStash, "no stash entries")
	}
	if err := r.requireCleanIndex(); err != nil {
		return err
	}
	top := sf.Entries[len(sf.Entries)-1]

	baseSnap, err := r.snapshotOf(top.Base)
	if err != nil {
		return fmt.Errorf("stash pop: %w", err)
	}
	_, ours, err := r.headState()
	if err != nil {
		return fmt.Errorf("stash pop: %w", err)
	}

	staged := merge.Snapshots(baseSnap, ours, top.Index)
	working := merge.Snapshots(baseSnap, ours, top.Working)
	if !staged.Clean() || !working.Clean() {
		files := make(map[string]bool)
		for _, p := range append(staged.ConflictPaths(), working.ConflictPaths()...) {
			files[p] = true
		}
		return newError(ErrStashConflict, "stash does not apply cleanly").withFiles(sortedKeys(files))
	}
	if err := r.checkTree(ours, working.Snapshot); err != nil {
		return err
	}

	if err := r.writeTree(ours, working.Snapshot, nil); err != nil {
		return fmt.Errorf("stash pop: %w", err)
	}
	if err := r.writeIndex(indexFor(ours, staged.Snapshot)); err != nil {
		return fmt.Errorf("stash pop: %w", err)
	}
	sf.Entries = sf.Entries[:len(sf.Entries)-1]
	if err := r.writeStash(sf); err != nil {
		return err
	}
	r.log.Info("stash popped", "op", "stash-pop", "depth", len(sf.Entries))
	return nil
}

// StashList returns the stash entries, newest first.
func (r *Repo) StashList() ([]StashEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sf, err := r.readStash()
	if err != nil {
		return nil, err
	}
	out := make([]StashEntry, 0, len(sf.Entries))
	for i := len(sf.Entries) - 1; i >= 0; i-- {
		out = append(out, sf.Entries[i])
	}
	return out, nil
}
