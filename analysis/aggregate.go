package analysis

import (
	"fmt"
	"sort"
)

// DefaultLanguage tags violations from results that carry no language.
const DefaultLanguage = "common"

// DefaultMaxInlineComments caps the inline-comment list of a report.
const DefaultMaxInlineComments = 20

// InlineComment is a violation anchored to a resolvable file and line,
// suitable for position-based review annotation.
type InlineComment struct {
	Path        string   `json:"path"`
	Line        int      `json:"line"`
	Severity    Severity `json:"severity"`
	RuleID      string   `json:"rule_id"`
	Explanation string   `json:"explanation"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// AggregatedReport is the merged view across all results for one review.
type AggregatedReport struct {
	Violations      []Violation      `json:"violations"`
	BySeverity      map[Severity]int `json:"by_severity"`
	ByLanguage      map[string]int   `json:"by_language"`
	MaxSeverity     Severity         `json:"max_severity"`
	TotalViolations int              `json:"total_violations"`
	InlineComments  []InlineComment  `json:"inline_comments"`
	Recommendations []string         `json:"recommendations,omitempty"`
	Metrics         Metrics          `json:"metrics"`
}

// AggregateReport merges independently produced results (typically one per
// language pass) into the final report.
//
// Violations are tagged with their originating result and language,
// deduplicated by (file, line, rule) with the first occurrence winning,
// then sorted by severity with a stable sort so equal severities keep
// their input order. Error-tagged results contribute nothing but do not
// fail the aggregation. Inline comments are derived from violations with
// a non-empty file and a positive integer line, capped at maxInline.
func AggregateReport(results []*Result, maxInline int) *AggregatedReport {
	if maxInline <= 0 {
		maxInline = DefaultMaxInlineComments
	}

	report := &AggregatedReport{
		BySeverity: make(map[Severity]int),
		ByLanguage: make(map[string]int),
	}

	seenRecommendations := make(map[string]bool)

	for i, r := range results {
		if r == nil || r.Failed() {
			continue
		}

		source := r.Source
		if source == "" {
			source = fmt.Sprintf("result-%d", i+1)
		}
		lang := DefaultLanguage
		if r.Metadata != nil && r.Metadata.Language != "" {
			lang = r.Metadata.Language
		}

		for _, v := range r.Violations {
			v.Source = source
			v.Language = lang
			report.Violations = append(report.Violations, v)
		}

		for _, rec := range r.Recommendations {
			if !seenRecommendations[rec] {
				seenRecommendations[rec] = true
				report.Recommendations = append(report.Recommendations, rec)
			}
		}

		report.Metrics.FilesAnalyzed += r.Metrics.FilesAnalyzed
		report.Metrics.TotalLines += r.Metrics.TotalLines
	}

	// Independent passes can report the same finding; first-seen wins.
	report.Violations = DedupViolations(report.Violations)

	sort.SliceStable(report.Violations, func(i, j int) bool {
		ri := severityRank(normalizeSeverity(report.Violations[i].Severity))
		rj := severityRank(normalizeSeverity(report.Violations[j].Severity))
		return ri < rj
	})

	for _, v := range report.Violations {
		report.BySeverity[normalizeSeverity(v.Severity)]++
		report.ByLanguage[v.Language]++
	}

	report.TotalViolations = len(report.Violations)
	report.MaxSeverity = MaxSeverity(report.Violations)
	report.InlineComments = extractInlineComments(report.Violations, maxInline)

	if report.Metrics.TotalLines > 0 {
		report.Metrics.ViolationDensity = float64(report.TotalViolations) / float64(report.Metrics.TotalLines)
	}

	return report
}

// extractInlineComments selects violations that resolve to a concrete
// file and positive line number, discarding any that do not.
func extractInlineComments(violations []Violation, maxInline int) []InlineComment {
	var inline []InlineComment
	for _, v := range violations {
		if v.File == "" {
			continue
		}
		line, ok := v.Line.Int()
		if !ok {
			continue
		}

		explanation := v.Explanation
		if explanation == "" {
			explanation = "Issue detected"
		}

		inline = append(inline, InlineComment{
			Path:        v.File,
			Line:        line,
			Severity:    normalizeSeverity(v.Severity),
			RuleID:      v.RuleID,
			Explanation: explanation,
			Suggestion:  v.Suggestion,
		})
		if len(inline) == maxInline {
			break
		}
	}
	return inline
}
