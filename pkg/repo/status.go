package repo

import (
	"fmt"
	"sort"
)

// Status is the state of the working tree and index relative to HEAD. The
// lists are sorted and, apart from PartlyStaged, disjoint.
type Status struct {
	// Staged paths differ from HEAD in the index and are unchanged since.
	Staged []string `json:"staged"`

	// Modified paths are tracked and differ from what is staged or committed.
	Modified []string `json:"modified"`

	// Untracked paths are in neither HEAD nor the index.
	Untracked []string `json:"untracked"`

	// Conflicts are paths an unfinished merge left conflicted.
	Conflicts []string `json:"conflicts"`

	// PartlyStaged are the Modified paths that also carry a staged change.
	// The next commit records the staged content, not the working copy.
	PartlyStaged []string `json:"partly_staged"`
}

// Clean reports whether nothing is staged, modified or conflicted.
func (s *Status) Clean() bool {
	return len(s.Staged) == 0 && len(s.Modified) == 0 && len(s.Conflicts) == 0
}

// Status compares HEAD, the index and the working tree by content hash.
func (r *Repo) Status() (*Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statusLocked()
}

func (r *Repo) statusLocked() (*Status, error) {
	_, headSnap, err := r.headState()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	ix, err := r.readIndex()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	staged := ix.apply(headSnap)

	st := &Status{Staged: []string{}, Modified: []string{}, Untracked: []string{}, Conflicts: ix.conflictPaths(), PartlyStaged: []string{}}
	modified := make(map[string]bool)
	for p, want := range staged {
		if ix.Conflicts[p] {
			continue
		}
		w, err := r.workingHash(p)
		if err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		if w != want {
			modified[p] = true
		}
	}
	for p := range ix.Removed {
		w, err := r.workingHash(p)
		if err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		if w != "" && !ix.Conflicts[p] {
			modified[p] = true
		}
	}

	for p, h := range ix.Entries {
		if h == headSnap[p] || ix.Conflicts[p] {
			continue
		}
		if modified[p] {
			st.PartlyStaged = append(st.PartlyStaged, p)
		} else {
			st.Staged = append(st.Staged, p)
		}
	}
	for p := range ix.Removed {
		if ix.Conflicts[p] {
			continue
		}
		if modified[p] {
			st.PartlyStaged = append(st.PartlyStaged, p)
		} else {
			st.Staged = append(st.Staged, p)
		}
	}
	st.Modified = append(st.Modified, sortedKeys(modified)...)

	working, err := r.FS.List()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	for _, p := range working {
		_, inHead := headSnap[p]
		_, inIndex := ix.Entries[p]
		if !inHead && !inIndex && !ix.Conflicts[p] {
			st.Untracked = append(st.Untracked, p)
		}
	}
	sort.Strings(st.Staged)
	sort.Strings(st.PartlyStaged)
	return st, nil
}
