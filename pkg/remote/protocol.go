package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/odvcencio/myvcs/pkg/object"
)

// Sync endpoint paths, relative to a server's base URL.
const (
	PathRefs        = "/sync/refs"
	PathRefsUpdate  = "/sync/refs/update"
	PathObjectsHave = "/sync/objects/have"
	PathObjectsGet  = "/sync/objects/get"
	PathObjectsPut  = "/sync/objects/put"
)

// Error codes carried by RemoteError.
const (
	CodeStaleRef       = "stale_ref"
	CodeObjectMismatch = "object_mismatch"
	CodeNotFound       = "not_found"
	CodeInvalid        = "invalid_argument"
	CodeCheckedOut     = "branch_checked_out"
)

// RefsInfo describes a remote's branches and the branch its HEAD names.
type RefsInfo struct {
	Head     string                 `json:"head,omitempty"`
	Branches map[string]object.Hash `json:"branches"`
}

// Object is one stored object in transit.
type Object struct {
	Hash object.Hash       `json:"hash"`
	Type object.ObjectType `json:"type"`
	Data []byte            `json:"data"`
}

// HashesRequest is the body of have and get requests.
type HashesRequest struct {
	Hashes []object.Hash `json:"hashes"`
}

// HaveResponse lists the requested hashes the remote stores.
type HaveResponse struct {
	Have []object.Hash `json:"have"`
}

// ObjectsBody carries objects for get responses and put requests. It travels
// zstd-compressed.
type ObjectsBody struct {
	Objects []Object `json:"objects"`
}

// RefUpdateRequest asks the remote to move a branch from Old to New. An
// empty Old means the branch must not exist yet (or be null).
type RefUpdateRequest struct {
	Branch string      `json:"branch"`
	Old    object.Hash `json:"old,omitempty"`
	New    object.Hash `json:"new"`
}

// RemoteError is a structured error from the remote server.
type RemoteError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote: %s (%s)", e.Message, e.Code)
}

// Unwrap maps well-known codes onto this package's sentinels.
func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case CodeStaleRef:
		return ErrStaleRef
	case CodeObjectMismatch:
		return ErrObjectMismatch
	case CodeNotFound:
		return object.ErrNotFound
	case CodeInvalid:
		return ErrInvalidRequest
	case CodeCheckedOut:
		return ErrBranchCheckedOut
	}
	return nil
}

// ErrorCode returns the wire code and HTTP status for a transport error.
func ErrorCode(err error) (string, int) {
	switch {
	case errors.Is(err, ErrStaleRef):
		return CodeStaleRef, http.StatusConflict
	case errors.Is(err, ErrBranchCheckedOut):
		return CodeCheckedOut, http.StatusConflict
	case errors.Is(err, ErrObjectMismatch):
		return CodeObjectMismatch, http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalid, http.StatusBadRequest
	case errors.Is(err, object.ErrNotFound):
		return CodeNotFound, http.StatusNotFound
	}
	return "internal", http.StatusInternalServerError
}

// tryParseRemoteError attempts to parse a JSON error response body.
func tryParseRemoteError(status int, body []byte) *RemoteError {
	var re RemoteError
	if err := json.Unmarshal(body, &re); err != nil {
		return nil
	}
	if re.Message == "" && re.Code == "" {
		return nil
	}
	re.Status = status
	return &re
}

// EncodeObjects marshals and compresses an ObjectsBody.
func EncodeObjects(objs []Object) ([]byte, error) {
	raw, err := json.Marshal(ObjectsBody{Objects: objs})
	if err != nil {
		return nil, err
	}
	return compressZstd(raw), nil
}

// DecodeObjects reverses EncodeObjects. Uncompressed JSON is accepted when
// compressed is false.
func DecodeObjects(body []byte, compressed bool) ([]Object, error) {
	if compressed {
		raw, err := decompressZstd(body)
		if err != nil {
			return nil, fmt.Errorf("decode objects: %w", err)
		}
		body = raw
	}
	var ob ObjectsBody
	if err := json.Unmarshal(body, &ob); err != nil {
		return nil, fmt.Errorf("decode objects: %w", err)
	}
	return ob.Objects, nil
}
