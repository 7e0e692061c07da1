package pipeline

import "github.com/med-zino/cvmatch/internal/types"

// Stage tags carried in the status field of every event.
const (
	StageAnalyzing       = "analyzing_cv"
	StageAnalyzed        = "cv_analyzed"
	StageSearching       = "searching_jobs"
	StageJobsFound       = "jobs_found"
	StageProcessingChunk = "processing_chunk"
	StageChunkComplete   = "chunk_complete"
	StageComplete        = "complete"
	StageError           = "error"
)

// Progress reports how far batch ranking has advanced.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// Event is one progress update on the stream. Only the fields relevant to
// the stage are populated. Matches is omitzero rather than omitempty so a
// batch whose entries were all dropped still serializes as "matches": [].
type Event struct {
	Status     string               `json:"status"`
	Message    string               `json:"message,omitempty"`
	CVAnalysis *types.ResumeProfile `json:"cvAnalysis,omitempty"`
	TotalJobs  int                  `json:"totalJobs,omitempty"`
	Matches    []types.MatchResult  `json:"matches,omitzero"`
	Progress   *Progress            `json:"progress,omitempty"`
	Result     *types.MatchReport   `json:"result,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// EmitFunc delivers one event to the stream. A non-nil return means the
// stream is gone and the run should stop at the next checkpoint.
type EmitFunc func(Event) error
