package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

const maxRequestBody = 1 << 20

// request is a decoded JSON body that can check its own required fields.
type request interface {
	validate() error
}

// decode reads r's JSON body into req and validates it. An empty body
// decodes as {} so the validation error names the missing field.
func decode(r *http.Request, req request) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(req); err != nil && !errors.Is(err, io.EOF) {
		return invalid("malformed JSON body: %v", err)
	}
	return req.validate()
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("%s is required", field)
	}
	return nil
}

type commitRequest struct {
	Message string `json:"message"`
	All     bool   `json:"all"`
}

func (req *commitRequest) validate() error { return required("message", req.Message) }

type addRequest struct {
	Filename string `json:"filename"`
	All      bool   `json:"all"`
}

func (req *addRequest) validate() error {
	if req.All {
		return nil
	}
	return required("filename", req.Filename)
}

type fileRequest struct {
	Filename string `json:"filename"`
}

func (req *fileRequest) validate() error { return required("filename", req.Filename) }

type diffRequest struct {
	File string `json:"file"`
}

func (req *diffRequest) validate() error { return required("file", req.File) }

type restoreRequest struct {
	Filename string `json:"filename"`
	CommitID string `json:"commit_id"`
}

func (req *restoreRequest) validate() error {
	if err := required("filename", req.Filename); err != nil {
		return err
	}
	return required("commit_id", req.CommitID)
}

type nameRequest struct {
	Name string `json:"name"`
}

func (req *nameRequest) validate() error { return required("name", req.Name) }

type mergeRequest struct {
	Branch string `json:"branch"`
}

func (req *mergeRequest) validate() error { return required("branch", req.Branch) }

type commitIDRequest struct {
	CommitID string `json:"commit_id"`
}

func (req *commitIDRequest) validate() error { return required("commit_id", req.CommitID) }

type tagRequest struct {
	Name     string `json:"name"`
	CommitID string `json:"commit_id"`
}

func (req *tagRequest) validate() error {
	if err := required("name", req.Name); err != nil {
		return err
	}
	return required("commit_id", req.CommitID)
}

type remoteRequest struct {
	RemotePath string `json:"remote_path"`
}

func (req *remoteRequest) validate() error { return required("remote_path", req.RemotePath) }
