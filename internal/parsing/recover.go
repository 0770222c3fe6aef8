// Package parsing recovers structured job postings from free-form model output.
package parsing

import (
	"encoding/json"
	"regexp"
	"strings"
)

// jsonCandidate matches greedy array or object spans, across lines.
var jsonCandidate = regexp.MustCompile(`(?s)(\[.*\]|\{.*\})`)

// fenceMarkers are removed from the chosen candidate before decoding
var fenceMarkers = []string{"```json", "```JSON", "```"}

// RecoverJSON extracts a JSON array from raw model output. Models are told to
// answer with a bare array but often wrap it in prose or fences, emit sibling
// objects without an enclosing array, or return a single object.
//
// The returned value is always a JSON array. Either the chosen candidate
// decodes completely or a *ParseError is returned.
func RecoverJSON(raw string) (json.RawMessage, error) {
	raw = strings.TrimSpace(raw)

	candidates := jsonCandidate.FindAllString(raw, -1)
	if len(candidates) == 0 {
		return nil, newParseError("no JSON array or object found in model output", raw, nil)
	}

	var text string
	if values := topLevelValues(candidates); countObjects(values) > 1 && !strings.HasPrefix(raw, "[") {
		// Sibling objects without an enclosing array.
		text = "[" + strings.Join(values, ",") + "]"
	} else {
		text = candidates[0]
	}

	text = stripFences(text)

	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, newParseError("invalid JSON in model output", raw, err)
	}

	if _, isObject := parsed.(map[string]any); isObject {
		text = "[" + text + "]"
	}
	return json.RawMessage(text), nil
}

// topLevelValues splits each candidate into its depth-zero JSON values.
// Braces and brackets inside string literals are ignored, as is anything
// between values (prose, fences, commas).
func topLevelValues(candidates []string) []string {
	var values []string
	for _, c := range candidates {
		values = append(values, splitTopLevel(c)...)
	}
	return values
}

func splitTopLevel(s string) []string {
	var (
		out      []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{', '[':
			if depth == 0 {
				start = i
			}
			depth++
		case '}', ']':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				out = append(out, s[start:i+1])
				start = -1
			}
		}
	}
	if start >= 0 {
		// Unbalanced tail; keep it so decoding reports the error.
		out = append(out, s[start:])
	}
	return out
}

func countObjects(values []string) int {
	n := 0
	for _, v := range values {
		if strings.HasPrefix(v, "{") {
			n++
		}
	}
	return n
}

func stripFences(text string) string {
	for _, marker := range fenceMarkers {
		text = strings.ReplaceAll(text, marker, "")
	}
	return strings.TrimSpace(text)
}
