package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/myvcs/pkg/object"
)

// Kind classifies an Error for callers that map errors onto responses.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindState      Kind = "state"
	KindIO         Kind = "io"
)

// Stable machine-readable error codes.
const (
	CodeInvalidArgument      = "invalid_argument"
	CodeUnknownCommit        = "unknown_commit"
	CodeUnknownBranch        = "unknown_branch"
	CodeUnknownRemote        = "unknown_remote"
	CodeFileNotFound         = "file_not_found"
	CodeFileNotFoundInCommit = "file_not_found_in_commit"
	CodeAlreadyExists        = "already_exists"
	CodeTagExists            = "tag_exists"
	CodeMergeConflict        = "merge_conflict"
	CodeRevertConflict       = "revert_conflict"
	CodeStashConflict        = "stash_conflict"
	CodeNonFastForward       = "non_fast_forward"
	CodeBranchCheckedOut     = "branch_checked_out"
	CodeEmptyCommit          = "empty_commit"
	CodeEmptyStash           = "empty_stash"
	CodeNoChanges            = "no_changes"
	CodeDirtyWorkingTree     = "dirty_working_tree"
	CodeUnresolvedConflicts  = "unresolved_conflicts"
	CodeDetachedHead         = "detached_head"
	CodeNotARepository       = "not_a_repository"
	CodeIO                   = "io"
)

// Error is the engine's structured error. Two Errors match under errors.Is
// when their codes are equal, so the sentinels below work as targets.
// Files lists the paths involved in conflicts and dirty trees.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Files   []string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if len(e.Files) > 0 {
		msg += ": " + strings.Join(e.Files, ", ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidArgument      = &Error{Kind: KindValidation, Code: CodeInvalidArgument}
	ErrUnknownCommit        = &Error{Kind: KindNotFound, Code: CodeUnknownCommit}
	ErrUnknownBranch        = &Error{Kind: KindNotFound, Code: CodeUnknownBranch}
	ErrUnknownRemote        = &Error{Kind: KindNotFound, Code: CodeUnknownRemote}
	ErrFileNotFound         = &Error{Kind: KindNotFound, Code: CodeFileNotFound}
	ErrFileNotFoundInCommit = &Error{Kind: KindNotFound, Code: CodeFileNotFoundInCommit}
	ErrAlreadyExists        = &Error{Kind: KindConflict, Code: CodeAlreadyExists}
	ErrTagExists            = &Error{Kind: KindConflict, Code: CodeTagExists}
	ErrMergeConflict        = &Error{Kind: KindConflict, Code: CodeMergeConflict}
	ErrRevertConflict       = &Error{Kind: KindConflict, Code: CodeRevertConflict}
	ErrStashConflict        = &Error{Kind: KindConflict, Code: CodeStashConflict}
	ErrNonFastForward       = &Error{Kind: KindConflict, Code: CodeNonFastForward}
	ErrBranchCheckedOut     = &Error{Kind: KindConflict, Code: CodeBranchCheckedOut}
	ErrEmptyCommit          = &Error{Kind: KindState, Code: CodeEmptyCommit}
	ErrEmptyStash           = &Error{Kind: KindState, Code: CodeEmptyStash}
	ErrNoChanges            = &Error{Kind: KindState, Code: CodeNoChanges}
	ErrDirtyWorkingTree     = &Error{Kind: KindState, Code: CodeDirtyWorkingTree}
	ErrUnresolvedConflicts  = &Error{Kind: KindState, Code: CodeUnresolvedConflicts}
	ErrDetachedHead         = &Error{Kind: KindState, Code: CodeDetachedHead}
	ErrNotARepository       = &Error{Kind: KindNotFound, Code: CodeNotARepository}
)

// newError returns a copy of sentinel carrying a formatted message.
func newError(sentinel *Error, format string, args ...any) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: fmt.Sprintf(format, args...)}
}

// withFiles attaches paths to e.
func (e *Error) withFiles(files []string) *Error {
	e.Files = files
	return e
}

// wrap attaches a cause to e.
func (e *Error) wrap(err error) *Error {
	e.Err = err
	return e
}

// KindOf classifies err. Errors the engine did not classify are KindIO.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, object.ErrNotFound) {
		return KindNotFound
	}
	return KindIO
}

// CodeOf returns err's stable code, "io" for unclassified errors.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if errors.Is(err, object.ErrNotFound) {
		return CodeUnknownCommit
	}
	return CodeIO
}

// ConflictFiles returns the paths carried by err, if any.
func ConflictFiles(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Files
	}
	return nil
}
