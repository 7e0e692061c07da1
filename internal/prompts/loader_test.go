package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get("matching.json", "analyze-resume")
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)
	assert.Contains(t, prompt, "resume/CV analyzer")
	assert.Contains(t, prompt, "{{.CVText}}")
}

func TestGet_RankBatchPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get("matching.json", "rank-batch")
	require.NoError(t, err)
	assert.Contains(t, prompt, "job matching expert")
	assert.Contains(t, prompt, "{{.Listings}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get("matching.json", "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestMustGet_ValidPrompt(t *testing.T) {
	ClearCache()

	assert.NotPanics(t, func() {
		prompt := MustGet("matching.json", "rank-batch")
		assert.NotEmpty(t, prompt)
	})
}

func TestFormat(t *testing.T) {
	template := "Analyze {{.CVText}} for query {{.Query}}"
	data := map[string]string{
		"CVText": "my cv",
		"Query":  "golang jobs",
	}

	result := Format(template, data)
	assert.Equal(t, "Analyze my cv for query golang jobs", result)
}

func TestFormat_NoPlaceholders(t *testing.T) {
	template := "No placeholders here"
	data := map[string]string{"Key": "Value"}

	result := Format(template, data)
	assert.Equal(t, template, result)
}

func TestFormat_EmptyData(t *testing.T) {
	template := "Hello {{.Name}}"
	data := map[string]string{}

	result := Format(template, data)
	assert.Equal(t, template, result) // Placeholder remains
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List("matching.json")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"analyze-resume", "rank-batch"}, keys)
}

func TestCaching(t *testing.T) {
	ClearCache()

	// First call loads from file
	prompt1, err := Get("matching.json", "analyze-resume")
	require.NoError(t, err)

	// Second call should use cache
	prompt2, err := Get("matching.json", "analyze-resume")
	require.NoError(t, err)

	assert.Equal(t, prompt1, prompt2)
}
