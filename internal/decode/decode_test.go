package decode

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_EmbeddedInProse(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "bare object",
			input: `{"skills": ["Go", "SQL"], "languages": ["English"]}`,
		},
		{
			name:  "prose prefix",
			input: "Here is the analysis you asked for:\n{\"skills\": [\"Go\", \"SQL\"], \"languages\": [\"English\"]}",
		},
		{
			name:  "prose prefix and suffix",
			input: "Sure! {\"skills\": [\"Go\", \"SQL\"], \"languages\": [\"English\"]}\nLet me know if you need anything else.",
		},
		{
			name:  "markdown fence leftovers",
			input: "```json\n{\"skills\": [\"Go\", \"SQL\"], \"languages\": [\"English\"]}\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			require.NoError(t, Object(tt.input, &got))
			assert.Equal(t, []any{"Go", "SQL"}, got["skills"])
			assert.Equal(t, []any{"English"}, got["languages"])
		})
	}
}

func TestArray_EmbeddedInProse(t *testing.T) {
	input := "The ranked results are:\n[{\"score\": 90}, {\"score\": 40}]\nThanks!"

	var got []map[string]int
	require.NoError(t, Array(input, &got))
	require.Len(t, got, 2)
	assert.Equal(t, 90, got[0]["score"])
	assert.Equal(t, 40, got[1]["score"])
}

// Decoding an embedded value must agree with parsing the value directly.
func TestObject_RoundTripsAgainstDirectParse(t *testing.T) {
	payload := `{"title": "Engineer", "score": 87, "reasons": ["a", "b"], "nested": {"remote": true}}`

	var direct map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &direct))

	var embedded map[string]any
	require.NoError(t, Object("preamble text "+payload+" trailing text", &embedded))

	assert.Equal(t, direct, embedded)
}

func TestObject_SanitizationRecovery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, got map[string]any)
	}{
		{
			name:  "trailing comma in object",
			input: `{"title": "Engineer", "score": 80,}`,
			check: func(t *testing.T, got map[string]any) {
				assert.Equal(t, "Engineer", got["title"])
			},
		},
		{
			name:  "trailing comma in array",
			input: `{"reasons": ["a", "b",]}`,
			check: func(t *testing.T, got map[string]any) {
				assert.Equal(t, []any{"a", "b"}, got["reasons"])
			},
		},
		{
			name:  "unquoted keys",
			input: `{title: "Engineer", score: 80}`,
			check: func(t *testing.T, got map[string]any) {
				assert.Equal(t, "Engineer", got["title"])
				assert.Equal(t, float64(80), got["score"])
			},
		},
		{
			name:  "single quoted strings",
			input: `{'title': 'Engineer'}`,
			check: func(t *testing.T, got map[string]any) {
				assert.Equal(t, "Engineer", got["title"])
			},
		},
		{
			name:  "bare scalar value",
			input: `{"company": Acme}`,
			check: func(t *testing.T, got map[string]any) {
				assert.Equal(t, "Acme", got["company"])
			},
		},
		{
			name:  "trailing comma with apostrophe in value",
			input: `{"company": "O'Brien Ltd", "score": 80,}`,
			check: func(t *testing.T, got map[string]any) {
				assert.Equal(t, "O'Brien Ltd", got["company"])
			},
		},
		{
			name:  "trailing comma with colon in value",
			input: `{"note": "see: appendix",}`,
			check: func(t *testing.T, got map[string]any) {
				assert.Equal(t, "see: appendix", got["note"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			require.NoError(t, Object(tt.input, &got))
			tt.check(t, got)
		})
	}
}

func TestSanitize_PreservesBooleansAndNumbers(t *testing.T) {
	input := `{"remote": true, "active": false, "salary": null, "score": 85, "delta": -3}`

	var before, after map[string]any
	require.NoError(t, json.Unmarshal([]byte(input), &before))
	require.NoError(t, json.Unmarshal([]byte(Sanitize(input)), &after))

	assert.Equal(t, before, after)
}

// Sanitize applied to already-valid JSON must not change the parsed value.
func TestSanitize_IdempotentOnValidJSON(t *testing.T) {
	inputs := []string{
		`{"skills": ["Go", "SQL"], "experience": [{"title": "Dev", "years": 3}]}`,
		`[{"score": 100}, {"score": 0}]`,
		`{"nested": {"deep": {"value": [1, 2, 3]}}}`,
		`{"empty": [], "blank": {}}`,
		`{"company": "O'Brien Ltd"}`,
		`{"note": "see: appendix", "url": "https://example.com/a?b=c,d"}`,
		`{"quote": "escaped \" inside", "mix": "it's a 'test': ok, done"}`,
	}

	for _, input := range inputs {
		var before, after any
		require.NoError(t, json.Unmarshal([]byte(input), &before))
		require.NoError(t, json.Unmarshal([]byte(Sanitize(input)), &after), "sanitized: %s", Sanitize(input))
		assert.Equal(t, before, after, "input: %s", input)
	}
}

func TestObject_Unparseable(t *testing.T) {
	var got map[string]any
	err := Object("the model refused to answer", &got)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Contains(t, decodeErr.Reason, "no JSON object")
}

func TestArray_WrongContainerKind(t *testing.T) {
	var got []any
	err := Array(`{"not": "an array"}`, &got)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
}

func TestDecodeError_TruncatesRaw(t *testing.T) {
	long := strings.Repeat("x", 2000)

	var got map[string]any
	err := Object(long, &got)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.LessOrEqual(t, len(decodeErr.Raw), rawPreviewLimit+3)
}

func TestExtract_GreedyOutermost(t *testing.T) {
	// Two objects in the text: the greedy match spans both, which is the
	// contract; callers send prompts that request exactly one container.
	raw := "prefix {\"a\": {\"b\": 1}} suffix"
	slice, err := Extract(raw, KindObject)
	require.NoError(t, err)
	assert.Equal(t, `{"a": {"b": 1}}`, slice)
}
