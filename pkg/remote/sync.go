package remote

import (
	"context"
	"fmt"
	"sort"

	"github.com/odvcencio/myvcs/pkg/object"
)

// batchSize bounds the hashes or objects sent per transport call.
const batchSize = 256

// Missing returns the objects reachable from tip that dst lacks. The
// commit walk stops at commits dst already stores, since a store never
// holds a commit whose history is incomplete. Blobs come first, then
// commits with parents before children, which is the order they must be
// written in.
func Missing(ctx context.Context, store *object.Store, dst Transport, tip object.Hash) ([]object.Hash, error) {
	commits := make(map[object.Hash]*object.CommitObj)
	seen := map[object.Hash]bool{tip: true}
	level := []object.Hash{tip}
	for len(level) > 0 {
		have, err := hasBatched(ctx, dst, level)
		if err != nil {
			return nil, err
		}
		var next []object.Hash
		for _, h := range level {
			if have[h] {
				continue
			}
			c, err := store.ReadCommit(h)
			if err != nil {
				return nil, fmt.Errorf("collect missing: %w", err)
			}
			commits[h] = c
			for _, p := range c.Parents {
				if !seen[p] {
					seen[p] = true
					next = append(next, p)
				}
			}
		}
		level = next
	}

	blobSet := make(map[object.Hash]bool)
	for _, c := range commits {
		for _, b := range c.Snapshot {
			blobSet[b] = true
		}
	}
	blobs := sortedHashes(blobSet)
	have, err := hasBatched(ctx, dst, blobs)
	if err != nil {
		return nil, err
	}
	out := make([]object.Hash, 0, len(blobs)+len(commits))
	for _, b := range blobs {
		if !have[b] {
			out = append(out, b)
		}
	}
	return append(out, parentsFirst(commits)...), nil
}

// PushObjects copies everything dst lacks for tip, then confirms every
// copied object is present remotely. It returns the number of objects sent.
func PushObjects(ctx context.Context, store *object.Store, dst Transport, tip object.Hash) (int, error) {
	missing, err := Missing(ctx, store, dst, tip)
	if err != nil {
		return 0, err
	}
	for start := 0; start < len(missing); start += batchSize {
		end := min(start+batchSize, len(missing))
		batch := make([]Object, 0, end-start)
		for _, h := range missing[start:end] {
			objType, data, err := store.Read(h)
			if err != nil {
				return 0, fmt.Errorf("push objects: %w", err)
			}
			batch = append(batch, Object{Hash: h, Type: objType, Data: data})
		}
		if err := dst.Put(ctx, batch); err != nil {
			return 0, fmt.Errorf("push objects: %w", err)
		}
	}

	have, err := hasBatched(ctx, dst, missing)
	if err != nil {
		return 0, err
	}
	for _, h := range missing {
		if !have[h] {
			return 0, fmt.Errorf("push objects: %w: %s absent after transfer", ErrIncomplete, h)
		}
	}
	return len(missing), nil
}

// Fetch copies into store everything reachable from tip that store lacks.
// Objects are verified on arrival and written only once the whole closure
// is in hand, blobs first and commits parents first. It returns the number
// of objects written.
func Fetch(ctx context.Context, src Transport, store *object.Store, tip object.Hash) (int, error) {
	fetched := make(map[object.Hash]Object)
	commits := make(map[object.Hash]*object.CommitObj)
	seen := map[object.Hash]bool{tip: true}
	want := []object.Hash{tip}

	for len(want) > 0 {
		var need []object.Hash
		for _, h := range want {
			if !store.Has(h) {
				need = append(need, h)
			}
		}
		objs, err := getBatched(ctx, src, need)
		if err != nil {
			return 0, err
		}

		var next []object.Hash
		for _, h := range need {
			obj, ok := objs[h]
			if !ok {
				return 0, fmt.Errorf("fetch: %w: remote did not send %s", ErrIncomplete, h)
			}
			if computed := object.HashObject(obj.Type, obj.Data); computed != h {
				return 0, fmt.Errorf("fetch: %w: expected %s, got %s", ErrObjectMismatch, h, computed)
			}
			fetched[h] = obj
			if obj.Type != object.TypeCommit {
				continue
			}
			c, err := object.UnmarshalCommit(obj.Data)
			if err != nil {
				return 0, fmt.Errorf("fetch: commit %s: %w", h, err)
			}
			commits[h] = c
			refs := append(append([]object.Hash{}, c.Parents...), sortedHashes(snapshotBlobs(c))...)
			for _, r := range refs {
				if !seen[r] {
					seen[r] = true
					next = append(next, r)
				}
			}
		}
		want = next
	}

	var order []object.Hash
	for _, h := range sortedHashes(keys(fetched)) {
		if fetched[h].Type != object.TypeCommit {
			order = append(order, h)
		}
	}
	order = append(order, parentsFirst(commits)...)

	written := 0
	for _, h := range order {
		ok, err := writeVerifiedObject(store, fetched[h])
		if err != nil {
			return written, fmt.Errorf("fetch: %w", err)
		}
		if ok {
			written++
		}
	}
	return written, nil
}

func hasBatched(ctx context.Context, t Transport, hashes []object.Hash) (map[object.Hash]bool, error) {
	out := make(map[object.Hash]bool, len(hashes))
	for start := 0; start < len(hashes); start += batchSize {
		end := min(start+batchSize, len(hashes))
		have, err := t.Has(ctx, hashes[start:end])
		if err != nil {
			return nil, fmt.Errorf("query remote objects: %w", err)
		}
		for h, ok := range have {
			out[h] = ok
		}
	}
	return out, nil
}

func getBatched(ctx context.Context, t Transport, hashes []object.Hash) (map[object.Hash]Object, error) {
	out := make(map[object.Hash]Object, len(hashes))
	for start := 0; start < len(hashes); start += batchSize {
		end := min(start+batchSize, len(hashes))
		objs, err := t.Get(ctx, hashes[start:end])
		if err != nil {
			return nil, fmt.Errorf("fetch objects: %w", err)
		}
		for _, o := range objs {
			out[o.Hash] = o
		}
	}
	return out, nil
}

// parentsFirst orders commits so each follows every parent in the set.
func parentsFirst(commits map[object.Hash]*object.CommitObj) []object.Hash {
	out := make([]object.Hash, 0, len(commits))
	done := make(map[object.Hash]bool, len(commits))
	var visit func(h object.Hash)
	visit = func(h object.Hash) {
		if done[h] {
			return
		}
		done[h] = true
		for _, p := range commits[h].Parents {
			if _, ok := commits[p]; ok {
				visit(p)
			}
		}
		out = append(out, h)
	}
	for _, h := range sortedHashes(keys(commits)) {
		visit(h)
	}
	return out
}

func snapshotBlobs(c *object.CommitObj) map[object.Hash]bool {
	out := make(map[object.Hash]bool, len(c.Snapshot))
	for _, b := range c.Snapshot {
		out[b] = true
	}
	return out
}

func keys[V any](m map[object.Hash]V) map[object.Hash]bool {
	out := make(map[object.Hash]bool, len(m))
	for h := range m {
		out[h] = true
	}
	return out
}

func sortedHashes(set map[object.Hash]bool) []object.Hash {
	out := make([]object.Hash, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
