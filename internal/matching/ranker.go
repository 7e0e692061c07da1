// Package matching scores job listings against an analyzed resume in
// batches, with bounded retries and fallback rows so every listing always
// produces exactly one match entry.
package matching

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/med-zino/cvmatch/internal/decode"
	"github.com/med-zino/cvmatch/internal/llm"
	"github.com/med-zino/cvmatch/internal/prompts"
	"github.com/med-zino/cvmatch/internal/schemas"
	"github.com/med-zino/cvmatch/internal/types"
)

// defaultTimeout bounds a single batch ranking call.
const defaultTimeout = 30 * time.Second

// Ranker scores one batch of listings against a resume profile.
type Ranker struct {
	client  llm.Client
	timeout time.Duration
}

// NewRanker creates a Ranker over the given LLM client.
// A non-positive timeout selects the default (30s).
func NewRanker(client llm.Client, timeout time.Duration) *Ranker {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Ranker{client: client, timeout: timeout}
}

// RankBatch asks the reasoning service to score listings against the
// profile. Individual malformed entries in an otherwise valid response are
// dropped; a response with no usable array at all is a decode failure.
func (r *Ranker) RankBatch(ctx context.Context, profile *types.ResumeProfile, listings []types.ListingRecord) ([]types.MatchResult, error) {
	if len(listings) == 0 {
		return []types.MatchResult{}, nil
	}

	prompt, err := buildRankPrompt(profile, listings)
	if err != nil {
		return nil, &RankingError{Kind: FailureDecode, Message: "failed to build ranking prompt", Cause: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.client.GenerateJSON(callCtx, prompt, llm.TierLite)
	if err != nil {
		kind := FailureTransport
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() != nil {
			kind = FailureTimeout
		}
		return nil, &RankingError{Kind: kind, Message: "reasoning service call failed", Cause: err}
	}

	var elements []json.RawMessage
	if err := decode.Array(raw, &elements); err != nil {
		return nil, &RankingError{Kind: FailureDecode, Message: "no match array in response", Cause: err}
	}

	// A result must point back at a listing from this batch. The service
	// occasionally invents entries or echoes listings it was never given.
	known := make(map[string]bool, 2*len(listings))
	for _, l := range listings {
		if l.ProviderID != "" {
			known[l.ProviderID] = true
		}
		if l.Link != "" {
			known[l.Link] = true
		}
	}

	results := make([]types.MatchResult, 0, len(listings))
	for i, elem := range elements {
		if err := schemas.ValidateMatchResult(string(elem)); err != nil {
			log.Printf("[MATCHING] Dropping invalid match entry %d: %v", i, err)
			continue
		}
		var m types.MatchResult
		if err := json.Unmarshal(elem, &m); err != nil {
			log.Printf("[MATCHING] Dropping unparseable match entry %d: %v", i, err)
			continue
		}
		if !known[m.JobID] && !known[m.Link] {
			log.Printf("[MATCHING] Dropping match entry %d for unknown listing %q", i, m.JobID)
			continue
		}
		if len(results) == len(listings) {
			log.Printf("[MATCHING] Dropping surplus match entry %d: batch has %d listings", i, len(listings))
			continue
		}
		m.Score = clampScore(m.Score)
		results = append(results, m)
	}
	return results, nil
}

// clampScore forces scores into the 0-100 range. Out-of-range values are a
// service anomaly worth a log line, not a failed batch.
func clampScore(score int) int {
	if score < 0 {
		log.Printf("[MATCHING] Clamping out-of-range score %d to 0", score)
		return 0
	}
	if score > 100 {
		log.Printf("[MATCHING] Clamping out-of-range score %d to 100", score)
		return 100
	}
	return score
}

// buildRankPrompt renders the batch ranking prompt from the template.
func buildRankPrompt(profile *types.ResumeProfile, listings []types.ListingRecord) (string, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return "", err
	}
	listingsJSON, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return "", err
	}

	template := prompts.MustGet("matching.json", "rank-batch")
	return prompts.Format(template, map[string]string{
		"CVAnalysis":   string(profileJSON),
		"ListingCount": strconv.Itoa(len(listings)),
		"Listings":     string(listingsJSON),
	}), nil
}
