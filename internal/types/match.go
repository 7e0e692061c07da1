package types

// MatchResult is the ranking outcome for a single listing.
// Score is always within [0, 100]; out-of-range values from the
// reasoning service are clamped before a MatchResult is built.
type MatchResult struct {
	JobID         string   `json:"jobId"`
	Title         string   `json:"title"`
	Company       string   `json:"company"`
	Score         int      `json:"score"`
	Reasons       []string `json:"reasons"`
	SkillsMatch   []string `json:"skillsMatch"`
	MissingSkills []string `json:"missingSkills"`
	Link          string   `json:"link"`
	Posted        string   `json:"posted"`
}

// MatchReport is the consolidated result of a completed pipeline run.
type MatchReport struct {
	CVAnalysis *ResumeProfile `json:"cvAnalysis"`
	JobMatches []MatchResult  `json:"jobMatches"`
	Meta       ReportMeta     `json:"meta"`
}

// ReportMeta carries run metadata for the final result payload.
type ReportMeta struct {
	TotalJobsFound int    `json:"totalJobsFound"`
	MatchedJobs    int    `json:"matchedJobs"`
	ProcessedAt    string `json:"processedAt"`
}

// FindMatchesRequest is the body of the streamed match endpoint.
// CVText and UserID are validated by the pipeline itself so that their
// absence surfaces as an error event on the stream, not a plain 400.
type FindMatchesRequest struct {
	Query   string        `json:"query"`
	CVText  string        `json:"cvText"`
	UserID  string        `json:"userId"`
	Filters SearchFilters `json:"filters"`
}
