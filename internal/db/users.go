package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/med-zino/cvmatch/internal/types"
)

// userColumns is the scan order shared by the user queries.
const userColumns = `id, name, email, password_hash, last_find_matches, created_at, updated_at`

// UserRecord is a user row including the password hash. API responses use
// types.User, which never carries the hash.
type UserRecord struct {
	ID            uuid.UUID
	Name          string
	Email         string
	PasswordHash  string
	LastFindMatch *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Public strips database-only fields for API use.
func (u *UserRecord) Public() *types.User {
	return &types.User{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		LastFindMatch: u.LastFindMatch,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// CreateUser inserts a new user and returns its ID.
func (db *DB) CreateUser(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		name, email, passwordHash,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// GetUser retrieves a user by ID. Returns nil when not found.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*UserRecord, error) {
	return db.scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByEmail retrieves a user by email. Returns nil when not found.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	return db.scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (db *DB) scanUser(row pgx.Row) (*UserRecord, error) {
	var u UserRecord
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.LastFindMatch, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// EmailExists reports whether a user with the email is already registered.
func (db *DB) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// GetLastFindMatch returns when the user last completed a match run, or
// nil if never.
func (db *DB) GetLastFindMatch(ctx context.Context, id uuid.UUID) (*time.Time, error) {
	var last *time.Time
	err := db.pool.QueryRow(ctx,
		`SELECT last_find_matches FROM users WHERE id = $1`, id,
	).Scan(&last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last match run: %w", err)
	}
	return last, nil
}

// SetLastFindMatch records a completed match run.
func (db *DB) SetLastFindMatch(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE users SET last_find_matches = $1, updated_at = NOW() WHERE id = $2`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set last match run: %w", err)
	}
	return nil
}

// GateStore adapts the users table to the rate gate's identity store.
// Identities are user UUIDs in string form; unknown or malformed ones
// surface as errors so the gate denies nothing silently.
type GateStore struct {
	DB *DB
}

// GetLastRun implements rategate.IdentityStore.
func (s GateStore) GetLastRun(ctx context.Context, identity string) (*time.Time, error) {
	id, err := uuid.Parse(identity)
	if err != nil {
		return nil, fmt.Errorf("invalid identity %q: %w", identity, err)
	}
	return s.DB.GetLastFindMatch(ctx, id)
}

// SetLastRun implements rategate.IdentityStore.
func (s GateStore) SetLastRun(ctx context.Context, identity string, at time.Time) error {
	id, err := uuid.Parse(identity)
	if err != nil {
		return fmt.Errorf("invalid identity %q: %w", identity, err)
	}
	return s.DB.SetLastFindMatch(ctx, id, at)
}
