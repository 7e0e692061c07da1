package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/med-zino/cvmatch/internal/types"
)

// ErrDuplicateSavedJob means the user already saved this apply link.
var ErrDuplicateSavedJob = errors.New("job already saved")

// ErrSavedJobNotFound means no saved job matched the id for this user.
var ErrSavedJobNotFound = errors.New("saved job not found")

const savedJobColumns = `id, user_id, title, company, link, score, posted,
	skills_match, missing_skills, reasons, notes, status, saved_at`

// SaveJob bookmarks a listing for a user. Saving the same link twice
// returns ErrDuplicateSavedJob.
func (db *DB) SaveJob(ctx context.Context, userID uuid.UUID, req *types.SaveJobRequest) (*types.SavedJob, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO saved_jobs (user_id, title, company, link, score, posted, skills_match, missing_skills, reasons)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id, link) DO NOTHING
		 RETURNING `+savedJobColumns,
		userID, req.Title, req.Company, req.Link, req.Score, req.Posted,
		jsonArray(req.SkillsMatch), jsonArray(req.MissingSkills), jsonArray(req.Reasons),
	)

	job, err := scanSavedJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDuplicateSavedJob
		}
		return nil, fmt.Errorf("failed to save job: %w", err)
	}
	return job, nil
}

// ListSavedJobs returns a user's saved jobs, most recent first.
func (db *DB) ListSavedJobs(ctx context.Context, userID uuid.UUID) ([]types.SavedJob, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+savedJobColumns+` FROM saved_jobs
		 WHERE user_id = $1 ORDER BY saved_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved jobs: %w", err)
	}
	defer rows.Close()

	jobs := []types.SavedJob{}
	for rows.Next() {
		job, err := scanSavedJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// UpdateSavedJob patches notes and/or status on a user's saved job.
func (db *DB) UpdateSavedJob(ctx context.Context, id, userID uuid.UUID, req *types.UpdateSavedJobRequest) (*types.SavedJob, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE saved_jobs
		 SET notes = COALESCE($1, notes), status = COALESCE($2, status)
		 WHERE id = $3 AND user_id = $4
		 RETURNING `+savedJobColumns,
		req.Notes, req.Status, id, userID,
	)

	job, err := scanSavedJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSavedJobNotFound
		}
		return nil, fmt.Errorf("failed to update saved job: %w", err)
	}
	return job, nil
}

// DeleteSavedJob removes a user's saved job.
func (db *DB) DeleteSavedJob(ctx context.Context, id, userID uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM saved_jobs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete saved job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSavedJobNotFound
	}
	return nil
}

func scanSavedJob(row pgx.Row) (*types.SavedJob, error) {
	var job types.SavedJob
	var skills, missing, reasons []byte
	err := row.Scan(&job.ID, &job.UserID, &job.Title, &job.Company, &job.Link,
		&job.Score, &job.Posted, &skills, &missing, &reasons,
		&job.Notes, &job.Status, &job.SavedAt)
	if err != nil {
		return nil, err
	}
	job.SkillsMatch = decodeJSONArray(skills)
	job.MissingSkills = decodeJSONArray(missing)
	job.Reasons = decodeJSONArray(reasons)
	return &job, nil
}
