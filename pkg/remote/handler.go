package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/odvcencio/myvcs/pkg/object"
)

// maxRequestBody bounds any sync request body before decompression.
const maxRequestBody = responseLimitBatch

// NewHandler serves the sync endpoints over t. Writes are serialized by
// whatever sits behind t; the handler itself keeps no state.
func NewHandler(t Transport) http.Handler {
	mux := http.NewServeMux()
	h := &syncHandler{t: t}
	mux.HandleFunc("GET "+PathRefs, h.refs)
	mux.HandleFunc("POST "+PathObjectsHave, h.have)
	mux.HandleFunc("POST "+PathObjectsGet, h.get)
	mux.HandleFunc("POST "+PathObjectsPut, h.put)
	mux.HandleFunc("POST "+PathRefsUpdate, h.updateRef)
	return mux
}

type syncHandler struct {
	t Transport
}

func (h *syncHandler) refs(w http.ResponseWriter, r *http.Request) {
	info, err := h.t.ListRefs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *syncHandler) have(w http.ResponseWriter, r *http.Request) {
	var req HashesRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	have, err := h.t.Has(r.Context(), req.Hashes)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := HaveResponse{Have: []object.Hash{}}
	for _, hash := range req.Hashes {
		if have[hash] {
			resp.Have = append(resp.Have, hash)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *syncHandler) get(w http.ResponseWriter, r *http.Request) {
	var req HashesRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	objs, err := h.t.Get(r.Context(), req.Hashes)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := EncodeObjects(objs)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Encoding", "zstd")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *syncHandler) put(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, fmt.Errorf("%w: read body: %v", ErrInvalidRequest, err))
		return
	}
	objs, err := DecodeObjects(body, IsZstdEncoded(r.Header.Get("Content-Encoding")))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	if err := h.t.Put(r.Context(), objs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"stored": len(objs)})
}

func (h *syncHandler) updateRef(w http.ResponseWriter, r *http.Request) {
	var req RefUpdateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !object.ValidHash(req.New) || (req.Old != "" && !object.ValidHash(req.Old)) {
		writeError(w, fmt.Errorf("%w: bad ref update hashes", ErrInvalidRequest))
		return
	}
	if err := h.t.UpdateBranch(r.Context(), req.Branch, req.Old, req.New); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode body: %v", ErrInvalidRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code, status := ErrorCode(err)
	var re *RemoteError
	if errors.As(err, &re) && re.Status != 0 {
		status = re.Status
	}
	writeJSON(w, status, RemoteError{Code: code, Message: err.Error()})
}
