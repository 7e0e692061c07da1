package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrDuplicateSubscriber means the email is already on the list.
var ErrDuplicateSubscriber = errors.New("email already subscribed")

// Subscriber is one email capture entry.
type Subscriber struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AddSubscriber stores an email. Re-subscribing returns
// ErrDuplicateSubscriber.
func (db *DB) AddSubscriber(ctx context.Context, email string) (*Subscriber, error) {
	var sub Subscriber
	err := db.pool.QueryRow(ctx,
		`INSERT INTO subscribers (email) VALUES ($1)
		 ON CONFLICT (email) DO NOTHING
		 RETURNING id, email, created_at`,
		email,
	).Scan(&sub.ID, &sub.Email, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDuplicateSubscriber
		}
		return nil, fmt.Errorf("failed to add subscriber: %w", err)
	}
	return &sub, nil
}

// ListSubscribers returns all subscribers, oldest first.
func (db *DB) ListSubscribers(ctx context.Context) ([]Subscriber, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, email, created_at FROM subscribers ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	subs := []Subscriber{}
	for rows.Next() {
		var sub Subscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
