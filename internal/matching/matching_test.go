package matching

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/med-zino/cvmatch/internal/llm"
	"github.com/med-zino/cvmatch/internal/types"
)

// fakeClient implements llm.Client with scripted responses per call.
type fakeClient struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.GenerateJSON(ctx, prompt, tier)
}

func (f *fakeClient) GenerateJSON(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var resp string
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return resp, err
}

func (f *fakeClient) GetModel(_ llm.ModelTier) string { return "fake-model" }
func (f *fakeClient) Close() error                    { return nil }

// fakeRanker implements batchRanker with a scripted outcome per call.
type fakeRanker struct {
	fn    func(call int, listings []types.ListingRecord) ([]types.MatchResult, error)
	calls int
}

func (f *fakeRanker) RankBatch(_ context.Context, _ *types.ResumeProfile, listings []types.ListingRecord) ([]types.MatchResult, error) {
	call := f.calls
	f.calls++
	return f.fn(call, listings)
}

func testProfile() *types.ResumeProfile {
	return &types.ResumeProfile{Skills: []string{"Go", "SQL"}}
}

func testListings(n int) []types.ListingRecord {
	listings := make([]types.ListingRecord, 0, n)
	for i := 0; i < n; i++ {
		listings = append(listings, types.ListingRecord{
			ProviderID: fmt.Sprintf("job-%d", i),
			Title:      fmt.Sprintf("Role %d", i),
			Company:    "Acme",
			Link:       fmt.Sprintf("https://example.com/%d", i),
			Posted:     "2025-01-01T00:00:00Z",
		})
	}
	return listings
}

func scoredResults(listings []types.ListingRecord, score int) []types.MatchResult {
	out := make([]types.MatchResult, 0, len(listings))
	for _, l := range listings {
		out = append(out, types.MatchResult{JobID: l.ProviderID, Title: l.Title, Company: l.Company, Score: score})
	}
	return out
}

func TestRankBatch_ParsesResponse(t *testing.T) {
	client := &fakeClient{responses: []string{`Sure, here are the matches:
[
  {"jobId": "job-0", "title": "Role 0", "company": "Acme", "score": 85, "reasons": ["strong overlap"], "skillsMatch": ["Go"], "missingSkills": ["K8s"]},
  {"jobId": "job-1", "title": "Role 1", "company": "Acme", "score": 40}
]`}}
	ranker := NewRanker(client, 0)

	results, err := ranker.RankBatch(context.Background(), testProfile(), testListings(2))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 85, results[0].Score)
	assert.Equal(t, []string{"K8s"}, results[0].MissingSkills)
	assert.Equal(t, "job-1", results[1].JobID)
}

func TestRankBatch_DropsInvalidEntriesAndClamps(t *testing.T) {
	client := &fakeClient{responses: []string{`[
  {"jobId": "job-0", "title": "Role 0", "company": "Acme", "score": 150},
  {"jobId": "job-1", "score": 50},
  {"jobId": "job-2", "title": "Role 2", "company": "Acme", "score": -3}
]`}}
	ranker := NewRanker(client, 0)

	results, err := ranker.RankBatch(context.Background(), testProfile(), testListings(3))
	require.NoError(t, err)
	// The entry without title/company is dropped, not repaired.
	require.Len(t, results, 2)
	assert.Equal(t, 100, results[0].Score)
	assert.Equal(t, 0, results[1].Score)
}

func TestRankBatch_DropsEntriesForUnknownListings(t *testing.T) {
	client := &fakeClient{responses: []string{`[
  {"jobId": "ghost-1", "title": "Phantom 1", "company": "Acme", "score": 90},
  {"jobId": "job-0", "title": "Role 0", "company": "Acme", "score": 80},
  {"jobId": "ghost-2", "title": "Phantom 2", "company": "Acme", "score": 75},
  {"jobId": "", "title": "Role 1", "company": "Acme", "score": 60, "link": "https://example.com/1"},
  {"jobId": "ghost-3", "title": "Phantom 3", "company": "Acme", "score": 55}
]`}}
	ranker := NewRanker(client, 0)

	results, err := ranker.RankBatch(context.Background(), testProfile(), testListings(2))
	require.NoError(t, err)
	// Entries for listings never submitted are dropped; a missing jobId is
	// still accepted when the link identifies a submitted listing.
	require.Len(t, results, 2)
	assert.Equal(t, "job-0", results[0].JobID)
	assert.Equal(t, "https://example.com/1", results[1].Link)
}

func TestRankBatch_CapsResultsAtBatchSize(t *testing.T) {
	client := &fakeClient{responses: []string{`[
  {"jobId": "job-0", "title": "Role 0", "company": "Acme", "score": 90},
  {"jobId": "job-1", "title": "Role 1", "company": "Acme", "score": 80},
  {"jobId": "job-0", "title": "Role 0 again", "company": "Acme", "score": 70}
]`}}
	ranker := NewRanker(client, 0)

	results, err := ranker.RankBatch(context.Background(), testProfile(), testListings(2))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "job-0", results[0].JobID)
	assert.Equal(t, "job-1", results[1].JobID)
}

func TestRankBatch_FailureKinds(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		client := &fakeClient{errs: []error{errors.New("connection reset")}}
		_, err := NewRanker(client, 0).RankBatch(context.Background(), testProfile(), testListings(1))
		var rankErr *RankingError
		require.True(t, errors.As(err, &rankErr))
		assert.Equal(t, FailureTransport, rankErr.Kind)
	})

	t.Run("timeout", func(t *testing.T) {
		client := &fakeClient{errs: []error{context.DeadlineExceeded}}
		_, err := NewRanker(client, 0).RankBatch(context.Background(), testProfile(), testListings(1))
		var rankErr *RankingError
		require.True(t, errors.As(err, &rankErr))
		assert.Equal(t, FailureTimeout, rankErr.Kind)
	})

	t.Run("decode", func(t *testing.T) {
		client := &fakeClient{responses: []string{"I could not rank these jobs."}}
		_, err := NewRanker(client, 0).RankBatch(context.Background(), testProfile(), testListings(1))
		var rankErr *RankingError
		require.True(t, errors.As(err, &rankErr))
		assert.Equal(t, FailureDecode, rankErr.Kind)
	})
}

func TestRankBatch_EmptyInput(t *testing.T) {
	client := &fakeClient{}
	results, err := NewRanker(client, 0).RankBatch(context.Background(), testProfile(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, client.calls)
}

func TestRetrier_SucceedsAfterFailures(t *testing.T) {
	ranker := &fakeRanker{fn: func(call int, listings []types.ListingRecord) ([]types.MatchResult, error) {
		if call < 2 {
			return nil, &RankingError{Kind: FailureTransport, Message: "boom"}
		}
		return scoredResults(listings, 70), nil
	}}
	retrier := NewRetrier(ranker, 3, time.Millisecond)

	results, err := retrier.RankBatch(context.Background(), testProfile(), testListings(4))
	require.NoError(t, err)
	assert.Equal(t, 3, ranker.calls)
	require.Len(t, results, 4)
	assert.Equal(t, 70, results[0].Score)
}

func TestRetrier_FallbackAfterExhaustion(t *testing.T) {
	ranker := &fakeRanker{fn: func(int, []types.ListingRecord) ([]types.MatchResult, error) {
		return nil, &RankingError{Kind: FailureDecode, Message: "garbage"}
	}}
	retrier := NewRetrier(ranker, 3, time.Millisecond)

	listings := testListings(5)
	results, err := retrier.RankBatch(context.Background(), testProfile(), listings)
	require.NoError(t, err)
	assert.Equal(t, 3, ranker.calls)
	// Exactly one row per listing, identity preserved, zero score.
	require.Len(t, results, len(listings))
	for i, r := range results {
		assert.Equal(t, listings[i].ProviderID, r.JobID)
		assert.Equal(t, listings[i].Title, r.Title)
		assert.Zero(t, r.Score)
		assert.Equal(t, []string{"Processing failed"}, r.Reasons)
	}
}

func TestRetrier_CancellationAbortsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ranker := &fakeRanker{fn: func(int, []types.ListingRecord) ([]types.MatchResult, error) {
		cancel()
		return nil, &RankingError{Kind: FailureTransport, Message: "boom"}
	}}
	retrier := NewRetrier(ranker, 3, time.Minute)

	_, err := retrier.RankBatch(ctx, testProfile(), testListings(2))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, ranker.calls)
}

func TestScheduler_BatchesSequentiallyWithProgress(t *testing.T) {
	ranker := &fakeRanker{fn: func(_ int, listings []types.ListingRecord) ([]types.MatchResult, error) {
		return scoredResults(listings, 50), nil
	}}
	scheduler := NewScheduler(ranker, 10, 30)

	var processed []int
	var totals []int
	results, err := scheduler.RankAll(context.Background(), testProfile(), testListings(25), func(p, total int, batch []types.MatchResult) {
		processed = append(processed, p)
		totals = append(totals, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, ranker.calls)
	assert.Len(t, results, 25)
	assert.Equal(t, []int{10, 20, 25}, processed)
	assert.Equal(t, []int{25, 25, 25}, totals)
}

func TestScheduler_TruncatesToMaxListings(t *testing.T) {
	ranker := &fakeRanker{fn: func(_ int, listings []types.ListingRecord) ([]types.MatchResult, error) {
		return scoredResults(listings, 50), nil
	}}
	scheduler := NewScheduler(ranker, 10, 30)

	results, err := scheduler.RankAll(context.Background(), testProfile(), testListings(45), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, ranker.calls)
	assert.Len(t, results, 30)
}

func TestScheduler_EveryBatchFailingStillCoversEveryListing(t *testing.T) {
	ranker := &fakeRanker{fn: func(int, []types.ListingRecord) ([]types.MatchResult, error) {
		return nil, &RankingError{Kind: FailureTransport, Message: "down"}
	}}
	scheduler := NewScheduler(NewRetrier(ranker, 3, time.Millisecond), 10, 30)

	listings := testListings(25)
	var progressed []int
	results, err := scheduler.RankAll(context.Background(), testProfile(), listings, func(p, _ int, _ []types.MatchResult) {
		progressed = append(progressed, p)
	})
	require.NoError(t, err)
	// Progress still advances past failed batches.
	assert.Equal(t, []int{10, 20, 25}, progressed)
	require.Len(t, results, len(listings))
	for i, r := range results {
		assert.Equal(t, listings[i].ProviderID, r.JobID)
		assert.Zero(t, r.Score)
	}
}

func TestScheduler_CancellationBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ranker := &fakeRanker{fn: func(_ int, listings []types.ListingRecord) ([]types.MatchResult, error) {
		cancel()
		return scoredResults(listings, 50), nil
	}}
	scheduler := NewScheduler(ranker, 10, 30)

	_, err := scheduler.RankAll(ctx, testProfile(), testListings(25), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, ranker.calls)
}
