package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON parses untrusted model output into T. Markdown code fences and
// prose around the first JSON object or array are ignored; only the first
// JSON value is decoded. Any failure is reported as ErrInvalidResponse so
// callers can take their fallback branch.
func DecodeJSON[T any](text string) (T, error) {
	var out T

	raw := extractJSON(text)
	if raw == "" {
		return out, fmt.Errorf("%w: no JSON value in response", ErrInvalidResponse)
	}
	if err := json.NewDecoder(strings.NewReader(raw)).Decode(&out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return out, nil
}

// extractJSON strips code fences and returns the text from the first '{' or
// '[' onwards. Trailing prose is left for the decoder to ignore.
func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	return s[start:]
}
