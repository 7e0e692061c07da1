package types

import (
	"time"

	"github.com/google/uuid"
)

// SavedJobStatus tracks where a saved listing sits in the user's application funnel.
type SavedJobStatus string

// Valid saved job statuses.
const (
	StatusSaved     SavedJobStatus = "saved"
	StatusApplied   SavedJobStatus = "applied"
	StatusInterview SavedJobStatus = "interview"
	StatusRejected  SavedJobStatus = "rejected"
	StatusOffer     SavedJobStatus = "offer"
)

// SavedJob is a listing a user bookmarked from their match results.
// A user can save a given apply link at most once.
type SavedJob struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"`
	Title         string         `json:"title"`
	Company       string         `json:"company"`
	Link          string         `json:"link"`
	Score         int            `json:"score"`
	Posted        string         `json:"posted"`
	SkillsMatch   []string       `json:"skillsMatch"`
	MissingSkills []string       `json:"missingSkills"`
	Reasons       []string       `json:"reasons"`
	Notes         string         `json:"notes"`
	Status        SavedJobStatus `json:"status"`
	SavedAt       time.Time      `json:"savedAt"`
}

// SaveJobRequest is the body for bookmarking a listing.
type SaveJobRequest struct {
	Title         string   `json:"title" validate:"required"`
	Company       string   `json:"company" validate:"required"`
	Link          string   `json:"link" validate:"required,url"`
	Score         int      `json:"score" validate:"min=0,max=100"`
	Posted        string   `json:"posted"`
	SkillsMatch   []string `json:"skillsMatch"`
	MissingSkills []string `json:"missingSkills"`
	Reasons       []string `json:"reasons"`
}

// UpdateSavedJobRequest updates the mutable fields of a saved job.
type UpdateSavedJobRequest struct {
	Notes  *string         `json:"notes,omitempty"`
	Status *SavedJobStatus `json:"status,omitempty"`
}
