package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// LoginRequest is the operator login payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponse carries a freshly issued token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// HandleHealth reports liveness and whether a scrape has completed yet.
func (s *RESTServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_, hasSnapshot := s.store.LatestSnapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"name":         s.config.Server.Name,
		"version":      s.config.Server.Version,
		"has_snapshot": hasSnapshot,
		"time":         time.Now().UTC(),
	})
}

// HandleLogin authenticates the operator and issues a token pair.
func (s *RESTServer) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validator.Validate(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Username != s.config.API.Username ||
		!s.jwtManager.VerifyPassword(req.Password, s.config.API.PasswordHash) {
		log.Warn().Str("username", req.Username).Msg("Failed API login attempt")
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	access, refresh, err := s.jwtManager.GenerateTokenPair(req.Username)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate token pair")
		respondError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{AccessToken: access, RefreshToken: refresh})
}

// HandleRefresh exchanges a refresh token for a new pair.
func (s *RESTServer) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validator.Validate(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	access, refresh, err := s.jwtManager.RefreshToken(req.RefreshToken)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{AccessToken: access, RefreshToken: refresh})
}

// HandleStatus returns the latest full snapshot.
func (s *RESTServer) HandleStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.store.LatestSnapshot()
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "no scrape cycle has completed yet")
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// HandleDownstream returns only the downstream channel table.
func (s *RESTServer) HandleDownstream(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.store.LatestSnapshot()
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "no scrape cycle has completed yet")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"cycle_id":   snap.CycleID,
		"scraped_at": snap.ScrapedAt,
		"channels":   snap.Downstream,
	})
}

// HandleUpstream returns only the upstream channel table.
func (s *RESTServer) HandleUpstream(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.store.LatestSnapshot()
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "no scrape cycle has completed yet")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"cycle_id":   snap.CycleID,
		"scraped_at": snap.ScrapedAt,
		"channels":   snap.Upstream,
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
