package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// queryRequest is the body of the search and context endpoints
type queryRequest struct {
	Query     string `json:"query"`
	TopK      int    `json:"top_k,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// ContextResponse wraps formatted context for a language model prompt
type ContextResponse struct {
	GameID  string `json:"game_id"`
	Query   string `json:"query"`
	Context string `json:"context"`
}

type downloadRequest struct {
	URL string `json:"url"`
}

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady pings every configured backend; any failure is a 503
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(s.dependencies))
	status := http.StatusOK
	for name, dep := range s.dependencies {
		if err := dep.Ping(r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]any{"status": "ready", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "unavailable"
	}
	writeJSON(w, status, body)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Game endpoints

// handleListGames returns every game with at least one downloaded guide
func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.guides.ListGames(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if games == nil {
		games = []domain.Game{}
	}
	writeJSON(w, http.StatusOK, games)
}

// handleSearch runs a similarity search against one game's guides
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	result, err := s.retrieval.Search(r.Context(), r.PathValue("game"), req.Query, req.options())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleContext returns search results formatted for a prompt
func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	game := r.PathValue("game")
	text, err := s.retrieval.GetContext(r.Context(), game, req.Query, req.options())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ContextResponse{
		GameID:  domain.NormalizeGameID(game),
		Query:   req.Query,
		Context: text,
	})
}

// handleGenerate rebuilds one game's index from its guides
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	summary, err := s.indexer.Generate(r.Context(), r.PathValue("game"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleGenerateAll rebuilds every game's index and reports per-game failures
func (s *Server) handleGenerateAll(w http.ResponseWriter, r *http.Request) {
	report, err := s.indexer.GenerateAll(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleInvalidate drops the cached index so the next query reloads it
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	game := r.PathValue("game")
	if err := s.retrieval.Invalidate(r.Context(), game); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "invalidated",
		"game_id": domain.NormalizeGameID(game),
	})
}

func (s *Server) handleDeleteEmbeddings(w http.ResponseWriter, r *http.Request) {
	game := r.PathValue("game")
	if err := s.indexer.Delete(r.Context(), game); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Guide endpoints

// handleDownload scrapes a guide by URL, saves it and re-embeds the game.
// A failed re-embed still returns 201 with index_error set.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	result, err := s.guides.Download(r.Context(), req.URL)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Helper functions

func decodeQuery(w http.ResponseWriter, r *http.Request) (queryRequest, bool) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return req, false
	}
	return req, true
}

func (q queryRequest) options() domain.SearchOptions {
	return domain.SearchOptions{TopK: q.TopK, MaxTokens: q.MaxTokens}
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrContentNotFound), errors.Is(err, domain.ErrEmptyContent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrGenerationInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", GetRequestID(r.Context()))
		message = "internal server error"
	}
	writeError(w, status, message)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
