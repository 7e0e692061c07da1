package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/med-zino/cvmatch/internal/db"
)

// subscribeRequest is the body for joining the mailing list.
type subscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

var subscribeValidator = validator.New()

// handleSubscribe adds an email to the subscriber list.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := subscribeValidator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "A valid email is required")
		return
	}

	sub, err := s.store.AddSubscriber(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, db.ErrDuplicateSubscriber) {
			s.errorResponse(w, http.StatusConflict, "Email already subscribed")
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "Failed to subscribe")
		return
	}
	s.jsonResponse(w, http.StatusCreated, sub)
}

// handleListSubscribers returns every subscriber.
func (s *Server) handleListSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := s.store.ListSubscribers(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list subscribers")
		return
	}
	s.jsonResponse(w, http.StatusOK, subs)
}
