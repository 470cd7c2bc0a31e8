package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// parseFailureSummary is the fixed summary of a result whose payload
	// could not be decoded.
	parseFailureSummary = "Analysis failed due to response parsing error"

	// rawExcerptLimit bounds how much of an unparseable payload is kept
	// for diagnostics.
	rawExcerptLimit = 500
)

// Normalize converts a raw analysis-channel response into a Result.
//
// The response may be wrapped in a fenced code block; an outer fence is
// stripped before the remaining text is decoded as the canonical result
// shape. Normalize never fails: a payload that does not decode yields a
// Result with Error set and a truncated excerpt of the raw text.
func Normalize(raw string) *Result {
	text := stripFence(raw)

	var result Result
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return &Result{
			Summary:    parseFailureSummary,
			Error:      fmt.Sprintf("failed to parse analysis response as JSON: %v", err),
			RawExcerpt: truncate(raw, rawExcerptLimit),
		}
	}

	// Error-tagged results carry no violations.
	if result.Failed() {
		result.Violations = nil
	}

	return &result
}

// stripFence removes an outer markdown code fence if one wraps the text.
func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	var body []string
	inFence := false
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "```") && !inFence:
			inFence = true
		case strings.HasPrefix(line, "```"):
			return strings.Join(body, "\n")
		case inFence:
			body = append(body, line)
		}
	}
	return strings.Join(body, "\n")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
