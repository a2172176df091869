package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/odvcencio/myvcs/pkg/repo"
)

// errorResponse is the body of every failed request. Conflicts is set for
// merge, revert, stash and pull conflicts; Files for dirty working trees
// and other errors that name paths.
type errorResponse struct {
	OK        bool     `json:"ok"`
	Code      string   `json:"code"`
	Kind      string   `json:"kind"`
	Error     string   `json:"error"`
	Conflicts []string `json:"conflicts,omitempty"`
	Files     []string `json:"files,omitempty"`
}

func statusFor(kind repo.Kind) int {
	switch kind {
	case repo.KindValidation:
		return http.StatusBadRequest
	case repo.KindNotFound:
		return http.StatusNotFound
	case repo.KindConflict:
		return http.StatusConflict
	case repo.KindState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func invalid(format string, args ...any) error {
	return &repo.Error{
		Kind:    repo.KindValidation,
		Code:    repo.CodeInvalidArgument,
		Message: fmt.Sprintf(format, args...),
	}
}

func errNotInitialized() error {
	return &repo.Error{
		Kind:    repo.KindNotFound,
		Code:    repo.CodeNotARepository,
		Message: "repository not initialized; POST /init first",
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	kind := repo.KindOf(err)
	resp := errorResponse{
		Code:  repo.CodeOf(err),
		Kind:  string(kind),
		Error: err.Error(),
	}
	files := repo.ConflictFiles(err)
	if repo.IsConflict(err) {
		resp.Conflicts = files
		if resp.Conflicts == nil {
			resp.Conflicts = []string{}
		}
	} else {
		resp.Files = files
	}
	if kind == repo.KindIO {
		// Internal detail stays in the log.
		resp.Error = "internal error"
	}
	noteError(w, err)
	writeJSON(w, statusFor(kind), resp)
}
