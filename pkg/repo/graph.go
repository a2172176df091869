package repo

import (
	"container/heap"
	"fmt"
	"sync"

	"github.com/odvcencio/myvcs/pkg/object"
)

const (
	maxGraphTraversalSteps = 1_000_000
	maxGraphTraversalDepth = 1_000_000
)

type mergeBaseCacheKey struct {
	left  object.Hash
	right object.Hash
}

type mergeBaseCacheEntry struct {
	base  object.Hash
	found bool
}

// graphState caches immutable commit objects and computed merge bases.
type graphState struct {
	mu sync.RWMutex

	commits    map[object.Hash]*object.CommitObj
	mergeBases map[mergeBaseCacheKey]mergeBaseCacheEntry
}

func newGraphState() *graphState {
	return &graphState{
		commits:    make(map[object.Hash]*object.CommitObj),
		mergeBases: make(map[mergeBaseCacheKey]mergeBaseCacheEntry),
	}
}

// Merge bases are not symmetric under first-reached tie-breaking, so the
// key keeps argument order.
func (s *graphState) loadMergeBase(a, b object.Hash) (mergeBaseCacheEntry, bool) {
	s.mu.RLock()
	entry, ok := s.mergeBases[mergeBaseCacheKey{left: a, right: b}]
	s.mu.RUnlock()
	return entry, ok
}

func (s *graphState) storeMergeBase(a, b, base object.Hash, found bool) {
	s.mu.Lock()
	s.mergeBases[mergeBaseCacheKey{left: a, right: b}] = mergeBaseCacheEntry{base: base, found: found}
	s.mu.Unlock()
}

// readCommit returns the commit h, served from cache when possible. Callers
// must not mutate the result.
func (r *Repo) readCommit(h object.Hash) (*object.CommitObj, error) {
	s := r.graphState()
	s.mu.RLock()
	cached, ok := s.commits[h]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	c, err := r.Store.ReadCommit(h)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", h, err)
	}
	s.mu.Lock()
	s.commits[h] = c
	s.mu.Unlock()
	return c, nil
}

// snapshotOf returns the snapshot of commit h; a null commit has an empty one.
func (r *Repo) snapshotOf(h object.Hash) (object.Snapshot, error) {
	if h == "" {
		return object.Snapshot{}, nil
	}
	c, err := r.readCommit(h)
	if err != nil {
		return nil, err
	}
	return c.Snapshot, nil
}

// findMergeBase expands ancestors of a and b one breadth-first level at a
// time, a's level before b's. The first commit reached from both sides is
// the base.
func (r *Repo) findMergeBase(a, b object.Hash) (object.Hash, bool, error) {
	if a == "" || b == "" {
		return "", false, nil
	}
	if a == b {
		return a, true, nil
	}
	state := r.graphState()
	if entry, ok := state.loadMergeBase(a, b); ok {
		return entry.base, entry.found, nil
	}

	const (
		sideA = 1 << iota
		sideB
	)
	marks := map[object.Hash]uint8{a: sideA, b: sideB}
	frontiers := [2][]object.Hash{{a}, {b}}
	sides := [2]uint8{sideA, sideB}
	steps := 0

	for depth := 0; len(frontiers[0]) > 0 || len(frontiers[1]) > 0; depth++ {
		if depth > maxGraphTraversalDepth {
			return "", false, fmt.Errorf("find merge base: traversal depth exceeded %d", maxGraphTraversalDepth)
		}
		for i := range frontiers {
			var next []object.Hash
			for _, h := range frontiers[i] {
				steps++
				if steps > maxGraphTraversalSteps {
					return "", false, fmt.Errorf("find merge base: traversal exceeded %d steps", maxGraphTraversalSteps)
				}
				c, err := r.readCommit(h)
				if err != nil {
					return "", false, fmt.Errorf("find merge base: %w", err)
				}
				for _, p := range c.Parents {
					m := marks[p]
					if m&sides[i] != 0 {
						continue
					}
					m |= sides[i]
					marks[p] = m
					if m == sideA|sideB {
						state.storeMergeBase(a, b, p, true)
						r.log.Debug("merge base", "ours", a.Short(), "theirs", b.Short(), "base", p.Short(), "steps", steps)
						return p, true, nil
					}
					next = append(next, p)
				}
			}
			frontiers[i] = next
		}
	}
	state.storeMergeBase(a, b, "", false)
	return "", false, nil
}

// isAncestor reports whether anc is reachable from desc through parent
// links. A commit is its own ancestor.
func (r *Repo) isAncestor(anc, desc object.Hash) (bool, error) {
	if anc == "" || desc == "" {
		return false, nil
	}
	if anc == desc {
		return true, nil
	}
	seen := map[object.Hash]bool{desc: true}
	stack := []object.Hash{desc}
	for steps := 0; len(stack) > 0; steps++ {
		if steps > maxGraphTraversalSteps {
			return false, fmt.Errorf("ancestry check: traversal exceeded %d steps", maxGraphTraversalSteps)
		}
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c, err := r.readCommit(h)
		if err != nil {
			return false, fmt.Errorf("ancestry check: %w", err)
		}
		for _, p := range c.Parents {
			if p == anc {
				return true, nil
			}
			if !seen[p] {
				seen[p] = true
				stack = append(stack, p)
			}
		}
	}
	return false, nil
}

type logQueueItem struct {
	hash      object.Hash
	timestamp int64
}

// logMaxHeap pops the newest commit first, ties broken by hash.
type logMaxHeap []logQueueItem

func (h logMaxHeap) Len() int { return len(h) }

func (h logMaxHeap) Less(i, j int) bool {
	if h[i].timestamp == h[j].timestamp {
		return h[i].hash < h[j].hash
	}
	return h[i].timestamp > h[j].timestamp
}

func (h logMaxHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *logMaxHeap) Push(x any) {
	*h = append(*h, x.(logQueueItem))
}

func (h *logMaxHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// walkHistory visits every ancestor of tip (tip included) newest first,
// stopping early when fn returns false or limit commits were visited.
func (r *Repo) walkHistory(tip object.Hash, limit int, fn func(object.Hash, *object.CommitObj) bool) error {
	if tip == "" {
		return nil
	}
	c, err := r.readCommit(tip)
	if err != nil {
		return err
	}
	queue := &logMaxHeap{{hash: tip, timestamp: c.Timestamp}}
	seen := map[object.Hash]bool{tip: true}
	visited := 0
	for queue.Len() > 0 {
		if limit > 0 && visited >= limit {
			return nil
		}
		item := heap.Pop(queue).(logQueueItem)
		c, err := r.readCommit(item.hash)
		if err != nil {
			return err
		}
		visited++
		if !fn(item.hash, c) {
			return nil
		}
		for _, p := range c.Parents {
			if seen[p] {
				continue
			}
			seen[p] = true
			pc, err := r.readCommit(p)
			if err != nil {
				return err
			}
			heap.Push(queue, logQueueItem{hash: p, timestamp: pc.Timestamp})
		}
	}
	return nil
}
