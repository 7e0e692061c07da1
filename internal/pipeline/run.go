// Package pipeline orchestrates one streamed match run: rate gate, resume
// analysis, listing search, batched ranking, and final report assembly,
// emitting one progress event per transition.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/med-zino/cvmatch/internal/matching"
	"github.com/med-zino/cvmatch/internal/rategate"
	"github.com/med-zino/cvmatch/internal/types"
)

// resumeAnalyzer is the analyze side of the reasoning service.
type resumeAnalyzer interface {
	AnalyzeResume(ctx context.Context, cvText string) (*types.ResumeProfile, error)
}

// listingSearcher finds listings for a query. Failures surface as an
// empty slice, never an error.
type listingSearcher interface {
	Search(ctx context.Context, query string, filters types.SearchFilters) []types.ListingRecord
}

// batchScheduler ranks listings in batches with per-batch progress.
type batchScheduler interface {
	RankAll(ctx context.Context, profile *types.ResumeProfile, listings []types.ListingRecord, onBatch matching.ProgressFunc) ([]types.MatchResult, error)
}

// runGate is the rate gate contract the runner drives.
type runGate interface {
	Check(ctx context.Context, identity string) (rategate.Decision, error)
	Commit(ctx context.Context, identity string) error
	Release(identity string)
}

// Runner drives one match run end to end.
type Runner struct {
	analyzer  resumeAnalyzer
	searcher  listingSearcher
	scheduler batchScheduler
	gate      runGate

	batchSize   int
	maxListings int
	now         func() time.Time
}

// RunnerConfig bundles the collaborators and batch sizing for a Runner.
type RunnerConfig struct {
	Analyzer  resumeAnalyzer
	Searcher  listingSearcher
	Scheduler batchScheduler
	Gate      runGate

	// BatchSize and MaxListings must mirror the scheduler's settings;
	// the runner uses them only to phrase progress messages.
	BatchSize   int
	MaxListings int
}

// NewRunner creates a Runner. Non-positive batch sizing selects the
// matching package defaults.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = matching.DefaultBatchSize
	}
	if cfg.MaxListings <= 0 {
		cfg.MaxListings = matching.DefaultMaxListings
	}
	return &Runner{
		analyzer:    cfg.Analyzer,
		searcher:    cfg.Searcher,
		scheduler:   cfg.Scheduler,
		gate:        cfg.Gate,
		batchSize:   cfg.BatchSize,
		maxListings: cfg.MaxListings,
		now:         time.Now,
	}
}

// Run executes one match run, emitting events until a terminal complete or
// error event. The returned error mirrors the terminal event; an emit
// failure aborts the run at the next checkpoint.
func (r *Runner) Run(ctx context.Context, req types.FindMatchesRequest, emit EmitFunc) error {
	if strings.TrimSpace(req.CVText) == "" {
		return r.fail(emit, &ValidationError{Message: "CV text is required"}, "CV text is required")
	}
	if strings.TrimSpace(req.UserID) == "" {
		return r.fail(emit, &ValidationError{Message: "User ID is required"}, "User ID is required")
	}

	decision, err := r.gate.Check(ctx, req.UserID)
	if err != nil {
		return r.fail(emit, fmt.Errorf("rate gate check: %w", err), "Failed to start job matching")
	}
	if !decision.Allowed {
		limitErr := &RateLimitError{
			RetryAfterSeconds: decision.RetryAfterSeconds,
			NextAllowed:       decision.NextAllowed,
		}
		minutes := (decision.RetryAfterSeconds + 59) / 60
		msg := fmt.Sprintf("You can run a new match in %d minute(s).", minutes)
		return r.fail(emit, limitErr, msg)
	}
	// From here the reservation is held; committed tracks whether the
	// allowance was spent.
	committed := false
	defer func() {
		if !committed {
			r.gate.Release(req.UserID)
		}
	}()

	if err := emit(Event{Status: StageAnalyzing, Message: "Analyzing your CV..."}); err != nil {
		return err
	}

	profile, err := r.analyzer.AnalyzeResume(ctx, req.CVText)
	if err != nil {
		return r.fail(emit, err, "Failed to analyze CV")
	}
	if err := emit(Event{Status: StageAnalyzed, CVAnalysis: profile}); err != nil {
		return err
	}

	if err := emit(Event{Status: StageSearching, Message: "Searching for matching jobs..."}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	listings := r.searcher.Search(ctx, req.Query, req.Filters)
	if len(listings) == 0 {
		return r.fail(emit, ErrNoListings, "No job listings found for your search. Try different keywords.")
	}

	// Listings exist, so this run spends the user's window.
	if err := r.gate.Commit(ctx, req.UserID); err != nil {
		log.Printf("[PIPELINE] Failed to record run for %s: %v", req.UserID, err)
	}
	committed = true

	totalFound := len(listings)
	toProcess := totalFound
	if toProcess > r.maxListings {
		toProcess = r.maxListings
	}
	if err := emit(Event{
		Status:    StageJobsFound,
		Message:   fmt.Sprintf("Found %d jobs. Starting analysis...", totalFound),
		TotalJobs: totalFound,
	}); err != nil {
		return err
	}

	matches, err := r.rank(ctx, profile, listings, toProcess, emit)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	report := r.assemble(profile, matches, listings, totalFound)
	return emit(Event{Status: StageComplete, Result: report})
}

// rank drives the scheduler and interleaves processing_chunk and
// chunk_complete events. The chunk announcement for batch N+1 goes out
// right after batch N finishes, keeping the stream strictly ordered.
func (r *Runner) rank(ctx context.Context, profile *types.ResumeProfile, listings []types.ListingRecord, toProcess int, emit EmitFunc) ([]types.MatchResult, error) {
	rankCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := emit(r.chunkAnnouncement(0, toProcess)); err != nil {
		return nil, err
	}

	var emitErr error
	onBatch := func(processed, total int, batch []types.MatchResult) {
		if emitErr != nil {
			return
		}
		if batch == nil {
			batch = []types.MatchResult{}
		}
		if emitErr = emit(Event{
			Status:   StageChunkComplete,
			Matches:  batch,
			Progress: &Progress{Processed: processed, Total: total},
		}); emitErr != nil {
			cancel()
			return
		}
		if processed < total {
			if emitErr = emit(r.chunkAnnouncement(processed, total)); emitErr != nil {
				cancel()
			}
		}
	}

	matches, err := r.scheduler.RankAll(rankCtx, profile, listings, onBatch)
	if emitErr != nil {
		return nil, emitErr
	}
	return matches, err
}

// chunkAnnouncement builds the processing_chunk event for the batch
// starting right after processed.
func (r *Runner) chunkAnnouncement(processed, total int) Event {
	end := processed + r.batchSize
	if end > total {
		end = total
	}
	return Event{
		Status:  StageProcessingChunk,
		Message: fmt.Sprintf("Processing jobs %d-%d of %d...", processed+1, end, total),
	}
}

// assemble builds the final report: matches sorted by descending score
// (stable, so ties keep arrival order), posted dates back-filled from the
// originating listings.
func (r *Runner) assemble(profile *types.ResumeProfile, matches []types.MatchResult, listings []types.ListingRecord, totalFound int) *types.MatchReport {
	postedByID := make(map[string]string, len(listings))
	postedByLink := make(map[string]string, len(listings))
	for _, l := range listings {
		if l.ProviderID != "" {
			postedByID[l.ProviderID] = l.Posted
		}
		if l.Link != "" {
			postedByLink[l.Link] = l.Posted
		}
	}
	for i := range matches {
		if matches[i].Posted != "" {
			continue
		}
		if posted, ok := postedByID[matches[i].JobID]; ok {
			matches[i].Posted = posted
		} else if posted, ok := postedByLink[matches[i].Link]; ok {
			matches[i].Posted = posted
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return &types.MatchReport{
		CVAnalysis: profile,
		JobMatches: matches,
		Meta: types.ReportMeta{
			TotalJobsFound: totalFound,
			MatchedJobs:    len(matches),
			ProcessedAt:    r.now().UTC().Format(time.RFC3339),
		},
	}
}

// fail emits the terminal error event and returns the underlying error.
// The event's error field carries the cause; the message stays user-facing.
func (r *Runner) fail(emit EmitFunc, cause error, message string) error {
	event := Event{Status: StageError, Error: cause.Error(), Message: message}
	if emitErr := emit(event); emitErr != nil {
		log.Printf("[PIPELINE] Failed to emit error event: %v", emitErr)
	}
	return cause
}
