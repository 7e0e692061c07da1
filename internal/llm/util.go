package llm

import "strings"

// fenceMarker is the markdown code fence the reasoning service wraps
// structured output in, despite prompt instructions not to.
const fenceMarker = "```"

// CleanJSONBlock strips a surrounding markdown code fence from a response
// so the remainder can be handed to the JSON decoder. Text without a
// leading fence is returned trimmed and otherwise untouched.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, fenceMarker) {
		return text
	}

	body := strings.TrimPrefix(text, fenceMarker)

	// Drop a language tag on the opening fence line ("json", "javascript").
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		tag := strings.TrimSpace(body[:idx])
		if tag != "" && len(tag) < 20 && !strings.ContainsAny(tag, " {[") {
			body = body[idx+1:]
		}
	}

	if idx := strings.LastIndex(body, fenceMarker); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
