package report

import (
	"fmt"

	"github.com/diffsentry/diffsentry/analysis"
)

// Summary is the machine-readable counterpart of the rendered review,
// consumed by a downstream reviewing tool to post position-anchored
// comments.
type Summary struct {
	HasViolations   bool            `json:"has_violations"`
	TotalViolations int             `json:"total_violations"`
	MaxSeverity     string          `json:"max_severity"`
	BySeverity      map[string]int  `json:"by_severity"`
	ByLanguage      map[string]int  `json:"by_language"`
	InlineComments  []InlineComment `json:"inline_comments"`
}

// InlineComment is one position-anchored comment in the machine summary.
type InlineComment struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Body     string `json:"body"`
	Severity string `json:"severity"`
}

// BuildSummary converts an aggregated report into its machine summary.
// The inline-comment list mirrors the report's already-capped selection.
func BuildSummary(r *analysis.AggregatedReport) *Summary {
	summary := &Summary{
		HasViolations:   r.TotalViolations > 0,
		TotalViolations: r.TotalViolations,
		MaxSeverity:     string(r.MaxSeverity),
		BySeverity:      make(map[string]int, len(r.BySeverity)),
		ByLanguage:      make(map[string]int, len(r.ByLanguage)),
		InlineComments:  make([]InlineComment, 0, len(r.InlineComments)),
	}

	for sev, count := range r.BySeverity {
		summary.BySeverity[string(sev)] = count
	}
	for lang, count := range r.ByLanguage {
		summary.ByLanguage[lang] = count
	}

	for _, c := range r.InlineComments {
		summary.InlineComments = append(summary.InlineComments, InlineComment{
			Path:     c.Path,
			Line:     c.Line,
			Body:     inlineBody(c),
			Severity: string(c.Severity),
		})
	}

	return summary
}

// inlineBody renders the comment text for one inline comment.
func inlineBody(c analysis.InlineComment) string {
	body := fmt.Sprintf("%s **%s**: %s", emoji(c.Severity), c.RuleID, c.Explanation)
	if c.Suggestion != "" {
		body += fmt.Sprintf("\n\n💡 %s", c.Suggestion)
	}
	return body
}
