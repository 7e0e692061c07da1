package matching

import (
	"context"
	"log"

	"github.com/med-zino/cvmatch/internal/types"
)

// Batch sizing. Listings beyond MaxListings are dropped before ranking
// starts; each batch is one reasoning service call.
const (
	DefaultBatchSize   = 10
	DefaultMaxListings = 30
)

// ProgressFunc is invoked after every batch, successful or fallen back,
// with the running processed count, the total that will be processed, and
// the batch's results.
type ProgressFunc func(processed, total int, batch []types.MatchResult)

// Scheduler splits listings into batches and ranks them sequentially.
// Sequential on purpose: the reasoning service rate-limits aggressively,
// and one in-flight call per run keeps us under the ceiling.
type Scheduler struct {
	ranker      batchRanker
	batchSize   int
	maxListings int
}

// NewScheduler creates a Scheduler over a (typically retry-wrapped)
// ranker. Non-positive sizes select the defaults (10 per batch, 30 max).
func NewScheduler(ranker batchRanker, batchSize, maxListings int) *Scheduler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if maxListings <= 0 {
		maxListings = DefaultMaxListings
	}
	return &Scheduler{ranker: ranker, batchSize: batchSize, maxListings: maxListings}
}

// RankAll ranks every listing (up to the configured maximum) and returns
// the combined results in batch order. onBatch may be nil. Cancellation is
// honored between batches; the context error is returned and no further
// batches run.
func (s *Scheduler) RankAll(ctx context.Context, profile *types.ResumeProfile, listings []types.ListingRecord, onBatch ProgressFunc) ([]types.MatchResult, error) {
	if len(listings) > s.maxListings {
		log.Printf("[MATCHING] Truncating %d listings to %d", len(listings), s.maxListings)
		listings = listings[:s.maxListings]
	}

	total := len(listings)
	all := make([]types.MatchResult, 0, total)

	for start := 0; start < total; start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + s.batchSize
		if end > total {
			end = total
		}
		batch := listings[start:end]

		results, err := s.ranker.RankBatch(ctx, profile, batch)
		if err != nil {
			return nil, err
		}

		all = append(all, results...)
		if onBatch != nil {
			onBatch(end, total, results)
		}
	}

	return all, nil
}
