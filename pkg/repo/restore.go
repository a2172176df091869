package repo

import "fmt"

// Restore writes path's content from commit rev into the working tree and
// stages it, so the next commit records the restoration.
func (r *Repo) Restore(path, rev string) error {
	p, err := cleanPath(path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.resolveCommit(rev)
	if err != nil {
		return err
	}
	snap, err := r.snapshotOf(id)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	h, ok := snap[p]
	if !ok {
		return newError(ErrFileNotFoundInCommit, "%s is not in commit %s", p, id.Short())
	}
	blob, err := r.Store.ReadBlob(h)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	_, headSnap, err := r.headState()
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	ix, err := r.readIndex()
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if err := r.FS.Write(p, blob.Data); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	ix.stage(headSnap, p, h)
	if err := r.writeIndex(ix); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	r.log.Info("restored", "op", "restore", "file", p, "commit", id.Short())
	return nil
}
