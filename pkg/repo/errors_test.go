package repo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/odvcencio/myvcs/pkg/object"
)

func TestErrorClassification(t *testing.T) {
	conflict := newError(ErrMergeConflict, "merge of dev has conflicts").withFiles([]string{"a.txt", "b.txt"})
	wrapped := fmt.Errorf("server: %w", conflict)

	if !errors.Is(wrapped, ErrMergeConflict) || errors.Is(wrapped, ErrRevertConflict) {
		t.Fatalf("errors.Is does not match on code")
	}
	if KindOf(wrapped) != KindConflict || CodeOf(wrapped) != CodeMergeConflict {
		t.Fatalf("KindOf/CodeOf = %s/%s", KindOf(wrapped), CodeOf(wrapped))
	}
	assertPaths(t, "files", ConflictFiles(wrapped), "a.txt", "b.txt")
	if got, want := conflict.Error(), "merge of dev has conflicts: a.txt, b.txt"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}

	cause := errors.New("boom")
	invalid := newError(ErrInvalidArgument, "bad path").wrap(cause)
	if !errors.Is(invalid, cause) || invalid.Error() != "bad path: boom" {
		t.Fatalf("wrap: %v", invalid)
	}

	missing := fmt.Errorf("read: %w", object.ErrNotFound)
	if KindOf(missing) != KindNotFound || CodeOf(missing) != CodeUnknownCommit {
		t.Fatalf("object.ErrNotFound classified as %s/%s", KindOf(missing), CodeOf(missing))
	}
	plain := errors.New("disk full")
	if KindOf(plain) != KindIO || CodeOf(plain) != CodeIO {
		t.Fatalf("plain error classified as %s/%s", KindOf(plain), CodeOf(plain))
	}
	if KindOf(nil) != "" || CodeOf(nil) != "" || ConflictFiles(plain) != nil {
		t.Fatalf("nil/plain handling")
	}
}
