package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/med-zino/cvmatch/internal/db"
	"github.com/med-zino/cvmatch/internal/server/middleware"
	"github.com/med-zino/cvmatch/internal/types"
)

var saveJobValidator = validator.New()

// handleSaveJob bookmarks a listing for the authenticated user.
func (s *Server) handleSaveJob(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req types.SaveJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := saveJobValidator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := s.store.SaveJob(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, db.ErrDuplicateSavedJob) {
			s.errorResponse(w, http.StatusConflict, "Job already saved")
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "Failed to save job")
		return
	}
	s.jsonResponse(w, http.StatusCreated, job)
}

// handleListSavedJobs returns the authenticated user's saved jobs.
func (s *Server) handleListSavedJobs(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	jobs, err := s.store.ListSavedJobs(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list saved jobs")
		return
	}
	s.jsonResponse(w, http.StatusOK, jobs)
}

// handleUpdateSavedJob patches notes and/or status on a saved job.
func (s *Server) handleUpdateSavedJob(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	var req types.UpdateSavedJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status != nil && !validStatus(*req.Status) {
		s.errorResponse(w, http.StatusBadRequest, "Invalid status")
		return
	}

	job, err := s.store.UpdateSavedJob(r.Context(), jobID, userID, &req)
	if err != nil {
		if errors.Is(err, db.ErrSavedJobNotFound) {
			s.errorResponse(w, http.StatusNotFound, "Saved job not found")
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "Failed to update saved job")
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

// handleDeleteSavedJob removes a saved job.
func (s *Server) handleDeleteSavedJob(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	if err := s.store.DeleteSavedJob(r.Context(), jobID, userID); err != nil {
		if errors.Is(err, db.ErrSavedJobNotFound) {
			s.errorResponse(w, http.StatusNotFound, "Saved job not found")
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "Failed to delete saved job")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func validStatus(status types.SavedJobStatus) bool {
	switch status {
	case types.StatusSaved, types.StatusApplied, types.StatusInterview, types.StatusRejected, types.StatusOffer:
		return true
	}
	return false
}
