package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateResumeProfile_Valid(t *testing.T) {
	doc := `{
		"skills": ["Go", "SQL"],
		"technical_skills": ["Go"],
		"soft_skills": ["Communication"],
		"experience": [{"title": "Dev", "company": "Acme", "duration": "2y", "description": ["built things"]}],
		"education": [{"degree": "BSc", "institution": "MIT", "year": "2020"}],
		"languages": ["English"],
		"certifications": []
	}`

	assert.NoError(t, ValidateResumeProfile(doc))
}

func TestValidateResumeProfile_EmptySkillsAllowed(t *testing.T) {
	assert.NoError(t, ValidateResumeProfile(`{"skills": []}`))
}

func TestValidateResumeProfile_MissingSkills(t *testing.T) {
	err := ValidateResumeProfile(`{"languages": ["English"]}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidateResumeProfile_WrongType(t *testing.T) {
	err := ValidateResumeProfile(`{"skills": "Go, SQL"}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidateMatchResult_Valid(t *testing.T) {
	doc := `{
		"jobId": "abc123",
		"title": "Backend Engineer",
		"company": "Acme",
		"score": 85,
		"reasons": ["strong Go experience"],
		"skillsMatch": ["Go"],
		"missingSkills": ["Kubernetes"],
		"link": "https://example.com/apply",
		"posted": "3 days ago"
	}`

	assert.NoError(t, ValidateMatchResult(doc))
}

func TestValidateMatchResult_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no score", `{"title": "Dev", "company": "Acme"}`},
		{"no title", `{"score": 50, "company": "Acme"}`},
		{"no company", `{"score": 50, "title": "Dev"}`},
		{"empty title", `{"score": 50, "title": "", "company": "Acme"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMatchResult(tt.doc)
			require.Error(t, err)

			_, ok := err.(*ValidationError)
			assert.True(t, ok, "error should be ValidationError type")
		})
	}
}

func TestValidationError_FormatsFieldPaths(t *testing.T) {
	err := ValidateMatchResult(`{"score": "high", "title": "Dev", "company": "Acme"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "score")
}
