package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/med-zino/cvmatch/internal/pipeline"
	"github.com/med-zino/cvmatch/internal/types"
)

// handleFindMatches runs the match pipeline and streams progress as SSE.
// Authentication is optional here: a valid bearer token overrides the
// userId in the body, so the pipeline can still report a missing identity
// as a stream error for anonymous callers.
func (s *Server) handleFindMatches(w http.ResponseWriter, r *http.Request) {
	var req types.FindMatchesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if userID, ok := s.bearerUserID(r); ok {
		req.UserID = userID
	}

	if !s.runSem.TryAcquire(1) {
		s.errorResponse(w, http.StatusServiceUnavailable, "Too many matching runs in progress. Try again shortly.")
		return
	}
	defer s.runSem.Release(1)

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	emit := func(event pipeline.Event) error {
		return sse.WriteData(event)
	}

	// Client disconnect or the run deadline stops the run at its next
	// checkpoint.
	ctx, cancel := context.WithTimeout(r.Context(), s.runTimeout)
	defer cancel()

	if err := s.runner.Run(ctx, req, emit); err != nil {
		// The terminal error event already went out on the stream.
		log.Printf("[SERVER] Match run ended with error: %v", err)
	}
}

// bearerUserID extracts and validates an optional bearer token.
func (s *Server) bearerUserID(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	claims, err := s.jwtService.ValidateToken(parts[1])
	if err != nil {
		return "", false
	}
	return claims.UserID.String(), true
}
