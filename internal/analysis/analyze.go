// Package analysis extracts a structured ResumeProfile from free-form CV
// text through the reasoning service.
package analysis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/med-zino/cvmatch/internal/decode"
	"github.com/med-zino/cvmatch/internal/llm"
	"github.com/med-zino/cvmatch/internal/prompts"
	"github.com/med-zino/cvmatch/internal/schemas"
	"github.com/med-zino/cvmatch/internal/types"
)

// defaultTimeout bounds a single analysis call so a stalled reasoning
// service cannot hang the stream.
const defaultTimeout = 30 * time.Second

// Analyzer performs the analyze side of the reasoning service contract.
type Analyzer struct {
	client  llm.Client
	timeout time.Duration
}

// NewAnalyzer creates an Analyzer over the given LLM client.
// A non-positive timeout selects the default (30s).
func NewAnalyzer(client llm.Client, timeout time.Duration) *Analyzer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Analyzer{client: client, timeout: timeout}
}

// AnalyzeResume performs one analysis request and decodes the result.
// The returned profile is immutable for the rest of the run. All failure
// modes (transport, decode, shape validation) surface as *AnalysisError;
// retry policy does not belong here.
func (a *Analyzer) AnalyzeResume(ctx context.Context, cvText string) (*types.ResumeProfile, error) {
	if strings.TrimSpace(cvText) == "" {
		return nil, &AnalysisError{Message: "CV text is empty"}
	}

	prompt := buildAnalysisPrompt(cvText)

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.client.GenerateJSON(callCtx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &AnalysisError{Message: "reasoning service call failed", Cause: err}
	}

	slice, err := decode.Extract(raw, decode.KindObject)
	if err != nil {
		return nil, &AnalysisError{Message: "no structured analysis in response", Cause: err}
	}

	var profile types.ResumeProfile
	if err := decode.Object(slice, &profile); err != nil {
		return nil, &AnalysisError{Message: "unparseable analysis response", Cause: err}
	}

	// Shape-check the document itself so an absent skills field is caught:
	// skills may be empty but must be present as an array.
	doc := slice
	if !json.Valid([]byte(doc)) {
		doc = decode.Sanitize(doc)
	}
	if err := schemas.ValidateResumeProfile(doc); err != nil {
		return nil, &AnalysisError{Message: "analysis response failed validation", Cause: err}
	}

	normalizeProfile(&profile)
	return &profile, nil
}

// buildAnalysisPrompt constructs the extraction prompt from the template.
func buildAnalysisPrompt(cvText string) string {
	template := prompts.MustGet("matching.json", "analyze-resume")
	return prompts.Format(template, map[string]string{
		"CVText": cvText,
	})
}

// normalizeProfile replaces nil optional slices with empty ones so
// downstream consumers never branch on nil.
func normalizeProfile(p *types.ResumeProfile) {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.TechnicalSkills == nil {
		p.TechnicalSkills = []string{}
	}
	if p.SoftSkills == nil {
		p.SoftSkills = []string{}
	}
	if p.Experience == nil {
		p.Experience = []types.ExperienceEntry{}
	}
	if p.Education == nil {
		p.Education = []types.EducationEntry{}
	}
	if p.Languages == nil {
		p.Languages = []string{}
	}
	if p.Certifications == nil {
		p.Certifications = []string{}
	}
}
