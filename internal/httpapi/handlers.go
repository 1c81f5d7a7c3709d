package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/doumanash/roseline/internal/executor"
)

func (s *Server) getVn(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}

	vn, err := s.Exec.GetVNLocal(id)
	if err != nil {
		writeExecError(w, err)
		return
	}
	if vn == nil {
		writeError(w, http.StatusNotFound, "vn not catalogued")
		return
	}
	writeJSON(w, http.StatusOK, vn)
}

func (s *Server) searchVns(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "title query parameter is required")
		return
	}

	vn, err := s.Exec.FindVNLocal(title)
	if err != nil {
		writeExecError(w, err)
		return
	}
	if vn == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, []any{vn})
}

func (s *Server) getHooks(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}

	data, err := s.Exec.GetHook(r.Context(), "v"+strconv.FormatInt(id, 10))
	if err != nil {
		writeExecError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Exec.Stats()
	if err != nil {
		writeExecError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type setHookReq struct {
	Ref     string `json:"ref"`
	Version string `json:"version"`
	Code    string `json:"code"`
}

func (s *Server) setHook(w http.ResponseWriter, r *http.Request) {
	var req setHookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	hook, err := s.Exec.SetHook(r.Context(), req.Ref, req.Version, req.Code)
	if err != nil {
		writeExecError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hook)
}

type delHookReq struct {
	Ref     string `json:"ref"`
	Version string `json:"version"`
}

func (s *Server) deleteHook(w http.ResponseWriter, r *http.Request) {
	var req delHookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	n, err := s.Exec.DelHook(r.Context(), req.Ref, req.Version)
	if err != nil {
		writeExecError(w, err)
		return
	}
	if n == 0 {
		writeError(w, http.StatusNotFound, "no matching hook")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type delVnReq struct {
	Ref string `json:"ref"`
}

func (s *Server) deleteVn(w http.ResponseWriter, r *http.Request) {
	var req delVnReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	n, err := s.Exec.DelVN(r.Context(), req.Ref)
	if err != nil {
		writeExecError(w, err)
		return
	}
	if n == 0 {
		writeError(w, http.StatusNotFound, "no matching vn")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeExecError maps a typed executor.ResponseError to an HTTP status.
func writeExecError(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case executor.UnknownVN:
		writeError(w, http.StatusNotFound, e.Error())
	case executor.TooMany:
		writeError(w, http.StatusConflict, e.Error())
	case executor.TooManyLocal:
		writeError(w, http.StatusConflict, e.Error())
	case executor.InvalidVNID:
		writeError(w, http.StatusBadRequest, e.Error())
	case executor.BadRemote:
		writeError(w, http.StatusBadGateway, e.Error())
	case executor.BadRemoteResponse:
		writeError(w, http.StatusBadGateway, e.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
