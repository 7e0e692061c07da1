package matching

import (
	"context"
	"log"
	"time"

	"github.com/med-zino/cvmatch/internal/types"
)

// Retry policy for a failed batch. The delay is fixed, not exponential:
// ranking failures are usually transient service hiccups that clear within
// a couple of seconds.
const (
	defaultAttempts   = 3
	defaultRetryDelay = 2 * time.Second
)

// batchRanker is the single-attempt contract the Retrier wraps.
type batchRanker interface {
	RankBatch(ctx context.Context, profile *types.ResumeProfile, listings []types.ListingRecord) ([]types.MatchResult, error)
}

// Retrier wraps a Ranker with bounded retries and fallback rows.
type Retrier struct {
	ranker   batchRanker
	attempts int
	delay    time.Duration
}

// NewRetrier creates a Retrier. Non-positive attempts or delay select the
// defaults (3 attempts, 2s between them).
func NewRetrier(ranker batchRanker, attempts int, delay time.Duration) *Retrier {
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	return &Retrier{ranker: ranker, attempts: attempts, delay: delay}
}

// RankBatch runs the underlying ranker up to the configured attempt count.
// When every attempt fails it returns one zero-score fallback row per
// listing, so callers always get a complete batch. Context cancellation
// aborts between attempts and returns the context error instead.
func (r *Retrier) RankBatch(ctx context.Context, profile *types.ResumeProfile, listings []types.ListingRecord) ([]types.MatchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		results, err := r.ranker.RankBatch(ctx, profile, listings)
		if err == nil {
			return results, nil
		}
		lastErr = err
		log.Printf("[MATCHING] Batch attempt %d/%d failed: %v", attempt, r.attempts, err)

		if attempt == r.attempts {
			break
		}
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	log.Printf("[MATCHING] Batch failed after %d attempts, emitting fallback rows: %v", r.attempts, lastErr)
	return fallbackRows(listings), nil
}

// fallbackRows builds a zero-score placeholder for every listing in a
// batch the service could not rank.
func fallbackRows(listings []types.ListingRecord) []types.MatchResult {
	rows := make([]types.MatchResult, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, types.MatchResult{
			JobID:         l.ProviderID,
			Title:         l.Title,
			Company:       l.Company,
			Score:         0,
			Reasons:       []string{"Processing failed"},
			SkillsMatch:   []string{},
			MissingSkills: []string{},
			Link:          l.Link,
			Posted:        l.Posted,
		})
	}
	return rows
}
