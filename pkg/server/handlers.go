package server

import (
	"net/http"
	"strconv"

	"github.com/odvcencio/myvcs/pkg/repo"
)

type repoHandler func(w http.ResponseWriter, r *http.Request, vcs *repo.Repo)

// withRepo runs h against the open repository.
func (s *Server) withRepo(h repoHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vcs, err := s.current()
		if err != nil {
			writeError(w, err)
			return
		}
		h(w, r, vcs)
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /init", s.handleInit)

	mux.HandleFunc("GET /status", s.withRepo(handleStatus))
	mux.HandleFunc("GET /log", s.withRepo(handleLog))
	mux.HandleFunc("GET /log/{branch}", s.withRepo(handleLog))
	mux.HandleFunc("GET /history/{filename...}", s.withRepo(handleHistory))
	mux.HandleFunc("GET /current-branch", s.withRepo(handleCurrentBranch))

	mux.HandleFunc("POST /add", s.withRepo(handleAdd))
	mux.HandleFunc("POST /rm", s.withRepo(handleRm))
	mux.HandleFunc("POST /reset", s.withRepo(handleReset))
	mux.HandleFunc("POST /commit", s.withRepo(handleCommit))
	mux.HandleFunc("POST /diff", s.withRepo(handleDiff))
	mux.HandleFunc("GET /diff/{from}/{to}", s.withRepo(handleDiffCommits))
	mux.HandleFunc("POST /restore", s.withRepo(handleRestore))

	mux.HandleFunc("POST /branch", s.withRepo(handleBranch))
	mux.HandleFunc("GET /branches", s.withRepo(handleBranches))
	mux.HandleFunc("POST /checkout-branch", s.withRepo(handleCheckoutBranch))

	mux.HandleFunc("POST /stash", s.withRepo(handleStash))
	mux.HandleFunc("POST /stash/pop", s.withRepo(handleStashPop))
	mux.HandleFunc("GET /stash", s.withRepo(handleStashList))

	mux.HandleFunc("POST /merge", s.withRepo(handleMerge))
	mux.HandleFunc("POST /revert", s.withRepo(handleRevert))
	mux.HandleFunc("POST /tag", s.withRepo(handleTag))
	mux.HandleFunc("GET /tags", s.withRepo(handleTags))

	mux.HandleFunc("POST /push", s.withRepo(handlePush))
	mux.HandleFunc("POST /pull", s.withRepo(handlePull))

	mux.HandleFunc("/sync/", s.serveSync)
	return mux
}

var endpoints = []string{
	"/init (POST)",
	"/status (GET)",
	"/log (GET)",
	"/log/{branch} (GET)",
	"/history/{filename} (GET)",
	"/current-branch (GET)",
	"/add (POST)",
	"/rm (POST)",
	"/reset (POST)",
	"/commit (POST)",
	"/diff (POST)",
	"/diff/{from}/{to} (GET)",
	"/restore (POST)",
	"/branch (POST)",
	"/branches (GET)",
	"/checkout-branch (POST)",
	"/stash (POST, GET)",
	"/stash/pop (POST)",
	"/merge (POST)",
	"/revert (POST)",
	"/tag (POST)",
	"/tags (GET)",
	"/push (POST)",
	"/pull (POST)",
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	_, err := s.current()
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "myvcs API",
		"initialized": err == nil,
		"endpoints":   endpoints,
	})
}

func (s *Server) handleInit(w http.ResponseWriter, _ *http.Request) {
	created, err := s.initRepo()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true, "created": created})
}

func (s *Server) serveSync(w http.ResponseWriter, r *http.Request) {
	h, err := s.syncHandler()
	if err != nil {
		writeError(w, err)
		return
	}
	h.ServeHTTP(w, r)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func handleStatus(w http.ResponseWriter, _ *http.Request, vcs *repo.Repo) {
	st, err := vcs.Status()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func handleLog(w http.ResponseWriter, r *http.Request, vcs *repo.Repo) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, invalid("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	entries, err := vcs.Log(r.PathValue("branch"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func handleHistory(w http.ResponseWriter, r *http.Request, vcs *repo.Repo) {
	entries, err := vcs.History(r.PathValue("filename"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func handleCurrentBranch(w http.ResponseWriter, _ *http.Request, vcs *repo.Repo) {
	head, err := vcs.CurrentBranch()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"branch":   head.Branch,
		"commit":   head.Hash,
		"detached": head.Detached(),
	})
}

func handleAdd(w http.ResponseWriter, r *http.Request, vcs *repo.Repo) {
	var req addRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var err error
	if req.All {
		err = vcs.AddAll()
	} else {
		err = vcs.Add(req.Filename)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func handleRm(w http.ResponseWriter, r *http.Request, vcs *repo.Repo) {
	var req fileRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := vcs.Unstage(req.Filename); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func handleReset(w http.ResponseWriter, _ *http.Request, vcs *repo.Repo) {
	if err := vcs.ResetIndex(); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func handleCommit(w http.ResponseWriter, r *http.Request, vcs *repo.Repo) {
	var req commitRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	commit := vcs.Commit
	if req.All {
		commit = vcs.CommitAll
	}
	id, err := commit(req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

func handleDiff(w http.ResponseWriter, r *http.Request, vcs *repo.Repo) {
	var req diffRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d, err := vcs.DiffFile(req.File)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func handleDiffCommits(w http.ResponseWriter, r *http.Request, vcs *repo.Repo) {
	diffs, err := vcs.DiffCommits(r.PathValue("from"), r.PathValue("to"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"diff": repo.JoinDiffs(diffs), "files": diffs})
}

func handleRestore(w http.ResponseWriter, r *http.Request, vcs *repo.Repo) {
	var req restoreRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := vcs.Restore(req.Filename, req.CommitID); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func handleBranch(w http.ResponseWriter, r *http.Request, vcs *repo.Repo) {
	var req nameRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := vcs.CreateBranch(req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "branch": req.Name})
}

func handleBranches(w http.ResponseWriter, _ *http.Request, vcs *repo.Repo) {
	branches, err := vcs.Branches()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, branches)
}

func handleCheckoutBranch(w http.ResponseWriter, r *http.Request, vcs *repo.Repo) {
	var req nameRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := vcs.CheckoutBranch(req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "branch": req.Name})
}

func handleStash(w http.ResponseWriter, _ *http.Request, vcs *repo.Repo) {
	if err := vcs.Stash(); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func handleStashPop(w http.ResponseWriter, _ *http.Request, vcs *repo.Repo) {
	if err := vcs.StashPop(); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func handleStashList(w http.ResponseWriter, _ *http.Request, vcs *repo.Repo) {
	entries, err := vcs.StashList()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func handleMerge(w http.ResponseWriter, r *http.Request, vcs *repo.Repo) {
	var req mergeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := vcs.Merge(req.Branch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"outcome": res.Outcome,
		"commit":  res.Commit,
		"base":    res.Base,
	})
}

func handleRevert(w http.ResponseWriter, r *http.Request, vcs *repo.Repo) {
	var req commitIDRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id, err := vcs.Revert(req.CommitID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

func handleTag(w http.ResponseWriter, r *http.Request, vcs *repo.Repo) {
	var req tagRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id, err := vcs.CreateTag(req.Name, req.CommitID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "name": req.Name, "commit_id": id})
}

func handleTags(w http.ResponseWriter, _ *http.Request, vcs *repo.Repo) {
	tags, err := vcs.Tags()
	if err != nil {
		writeError(w, err)
		return
	}
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		out[t.Name] = string(t.Commit)
	}
	writeJSON(w, http.StatusOK, out)
}

func handlePush(w http.ResponseWriter, r *http.Request, vcs *repo.Repo) {
	var req remoteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := vcs.Push(r.Context(), req.RemotePath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"branch":  res.Branch,
		"old":     res.Old,
		"new":     res.New,
		"objects": res.Objects,
	})
}

func handlePull(w http.ResponseWriter, r *http.Request, vcs *repo.Repo) {
	var req remoteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := vcs.Pull(r.Context(), req.RemotePath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"branch":  res.Branch,
		"objects": res.Objects,
		"outcome": res.Merge.Outcome,
		"commit":  res.Merge.Commit,
	})
}
