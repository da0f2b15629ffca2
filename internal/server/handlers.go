package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/docvault/internal/apperr"
	"github.com/ziadkadry99/docvault/internal/docstore"
	"github.com/ziadkadry99/docvault/internal/rag"
)

const adminTokenHeader = "X-Admin-Token"

type ingestRequest struct {
	Username string `json:"username"`
	Source   string `json:"source"`
	Text     string `json:"text"`
}

type deleteRequest struct {
	DocPaths []string `json:"doc_paths"`
	Username string   `json:"username"`
}

type queryRequest struct {
	Question string `json:"question"`
	Username string `json:"username"`
	Model    string `json:"model"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.deps.Store.Ingest(r.Context(), docstore.Document{
		Source: req.Source,
		Owner:  req.Username,
		Text:   req.Text,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Please provide a username."})
		return
	}

	sources, err := s.deps.Store.ListSources(r.Context(), username)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"doc_paths": sources})
}

func (s *Server) handleDeleteSources(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	results, err := s.deps.Store.DeleteSources(r.Context(), req.DocPaths, req.Username)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AdminToken == "" {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "reset is disabled: no admin token configured"})
		return
	}
	token := r.Header.Get(adminTokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AdminToken)) != 1 {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid admin token"})
		return
	}

	if err := s.deps.Store.ResetAll(r.Context(), "http:"+r.RemoteAddr); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "All documents deleted successfully"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ans, err := s.deps.Pipeline.Answer(r.Context(), rag.Question{
		Text:  req.Question,
		Owner: req.Username,
		Model: req.Model,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (s *Server) handleCheckModel(w http.ResponseWriter, r *http.Request) {
	if s.deps.Models == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "model listing is not supported by this provider"})
		return
	}

	name := chi.URLParam(r, "name")
	ok, err := s.deps.Models.HasModel(r.Context(), name)
	if err != nil {
		s.writeError(w, apperr.Collaborator("server.check_model", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"model": name, "available": ok})
}

// decodeJSON reads the request body into v, answering 400 on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, apperr.ErrCollaborator):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
