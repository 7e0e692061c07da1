// Package decode turns free-form reasoning service output into validated
// structured values. Responses are expected to contain exactly one JSON
// object or array, possibly surrounded by prose; minor malformations are
// repaired by a sanitization pass. The package is pure: retry policy
// belongs to callers, since a malformed response may succeed on
// resubmission even when it is not locally recoverable.
package decode

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Kind selects the expected top-level JSON container.
type Kind int

// Expected container kinds.
const (
	KindObject Kind = iota
	KindArray
)

// rawPreviewLimit bounds how much of the original text a DecodeError carries.
const rawPreviewLimit = 300

// DecodeError reports that no parseable JSON value could be extracted.
type DecodeError struct {
	Reason string
	Raw    string // original text, truncated
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode failed: %s", e.Reason)
}

// Object extracts and parses a JSON object embedded in raw into v.
func Object(raw string, v any) error {
	return decode(raw, KindObject, v)
}

// Array extracts and parses a JSON array embedded in raw into v.
func Array(raw string, v any) error {
	return decode(raw, KindArray, v)
}

func decode(raw string, kind Kind, v any) error {
	slice, err := Extract(raw, kind)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(slice), v); err == nil {
		return nil
	}

	// One sanitization pass, one retry. No further attempts at this layer.
	if err := json.Unmarshal([]byte(Sanitize(slice)), v); err == nil {
		return nil
	}

	return &DecodeError{Reason: "unparseable structured output", Raw: truncate(raw)}
}

// Extract locates the outermost bracket pair for the expected container
// kind and returns the enclosed slice. The match is greedy: first opening
// bracket to last closing bracket, which tolerates prose on either side
// and nested containers of the same kind.
func Extract(raw string, kind Kind) (string, error) {
	open, closing := byte('{'), byte('}')
	label := "object"
	if kind == KindArray {
		open, closing = '[', ']'
		label = "array"
	}

	start := strings.IndexByte(raw, open)
	end := strings.LastIndexByte(raw, closing)
	if start < 0 || end <= start {
		return "", &DecodeError{
			Reason: fmt.Sprintf("no JSON %s found in output", label),
			Raw:    truncate(raw),
		}
	}

	return raw[start : end+1], nil
}

var (
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKey   = regexp.MustCompile(`([{,]\s*)([A-Za-z_]\w*)(\s*:)`)
	bareValue     = regexp.MustCompile(`:(\s*)([A-Za-z_][^{}\[\],:"]*)`)
)

// Sanitize repairs common JSON malformations produced by the reasoning
// service: trailing commas before a closing bracket, unquoted object
// keys, bare (non-numeric, non-boolean) scalar values, and single-quoted
// strings. Double-quoted string contents are never touched, so
// apostrophes and colons inside values survive and applying Sanitize to
// already-valid JSON leaves the parsed value unchanged.
func Sanitize(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	// Repairs apply only to the structural text between double-quoted
	// strings; string regions are copied through verbatim.
	segStart := 0
	inString := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case inString && c == '\\':
			i++
		case inString && c == '"':
			out.WriteString(s[segStart : i+1])
			segStart = i + 1
			inString = false
		case !inString && c == '"':
			out.WriteString(repairSegment(s[segStart:i]))
			segStart = i
			inString = true
		}
	}
	if inString {
		// Unterminated string: pass the remainder through untouched and
		// let the parser report it.
		out.WriteString(s[segStart:])
	} else {
		out.WriteString(repairSegment(s[segStart:]))
	}
	return out.String()
}

func repairSegment(s string) string {
	// Trailing commas in arrays and objects
	s = trailingComma.ReplaceAllString(s, "$1")

	// Quote unquoted object keys
	s = unquotedKey.ReplaceAllString(s, `$1"$2"$3`)

	// Quote bare scalar values, preserving booleans and null
	s = bareValue.ReplaceAllStringFunc(s, func(m string) string {
		sub := bareValue.FindStringSubmatch(m)
		token := strings.TrimRight(sub[2], " \t\r\n")
		trailing := sub[2][len(token):]
		switch token {
		case "true", "false", "null":
			return m
		}
		return ":" + sub[1] + `"` + token + `"` + trailing
	})

	// Normalize single-quoted strings to double-quoted
	s = strings.ReplaceAll(s, "'", `"`)

	return s
}

func truncate(s string) string {
	if len(s) <= rawPreviewLimit {
		return s
	}
	return s[:rawPreviewLimit] + "..."
}
