// Package report renders an aggregated analysis report as a human-readable
// markdown review and a machine-readable summary for downstream tooling.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/diffsentry/diffsentry/analysis"
)

// DefaultMaxShown is the default number of violations rendered in detail.
const DefaultMaxShown = 15

// maxRecommendations caps the general recommendations section.
const maxRecommendations = 5

// confidenceCaveatThreshold is the confidence below which a caveat is shown.
const confidenceCaveatThreshold = 0.8

// severityEmoji maps severities to their display markers.
var severityEmoji = map[analysis.Severity]string{
	analysis.SeverityCritical: "🚨",
	analysis.SeverityHigh:     "❌",
	analysis.SeverityMedium:   "⚠️",
	analysis.SeverityLow:      "💡",
	analysis.SeverityInfo:     "ℹ️",
}

func emoji(s analysis.Severity) string {
	if e, ok := severityEmoji[s]; ok {
		return e
	}
	return "⚠️"
}

// Emoji returns the display marker for a severity.
func Emoji(s analysis.Severity) string {
	return emoji(s)
}

// Render formats the complete review as markdown, showing at most maxShown
// violations in detail.
func Render(r *analysis.AggregatedReport, maxShown int) string {
	if maxShown <= 0 {
		maxShown = DefaultMaxShown
	}

	var b strings.Builder

	header, status := headerFor(r)
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(status)
	b.WriteString("\n\n### Summary\n\n")
	b.WriteString(summaryTable(r))
	b.WriteString("\n\n")

	if len(r.Violations) > 0 {
		b.WriteString("### Violations\n")

		shown := r.Violations
		if len(shown) > maxShown {
			shown = shown[:maxShown]
		}
		for i := range shown {
			b.WriteString(renderViolation(&shown[i]))
		}

		if remaining := len(r.Violations) - maxShown; remaining > 0 {
			fmt.Fprintf(&b, "\n\n_... and %d more violations not shown._\n", remaining)
		}
	}

	if len(r.Recommendations) > 0 {
		b.WriteString("\n### General Recommendations\n\n")
		recommendations := r.Recommendations
		if len(recommendations) > maxRecommendations {
			recommendations = recommendations[:maxRecommendations]
		}
		for _, rec := range recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}

	timestamp := time.Now().UTC().Format("2006-01-02 15:04 UTC")
	fmt.Fprintf(&b, "\n---\n<sub>Generated by diffsentry • %s</sub>\n", timestamp)

	return b.String()
}

// headerFor classifies the review header by the report's max severity.
func headerFor(r *analysis.AggregatedReport) (header, status string) {
	total := r.TotalViolations

	switch {
	case total == 0:
		return "## ✅ Code Review Passed",
			"No rule violations detected in this change."
	case r.MaxSeverity == analysis.SeverityCritical:
		return "## 🚨 Code Review: Critical Issues Found",
			fmt.Sprintf("Found **%d** violation(s) including critical issues that must be addressed.", total)
	case r.MaxSeverity == analysis.SeverityHigh:
		return "## ❌ Code Review: Issues Found",
			fmt.Sprintf("Found **%d** violation(s) that should be addressed before merge.", total)
	default:
		return "## ⚠️ Code Review: Suggestions",
			fmt.Sprintf("Found **%d** item(s) to review.", total)
	}
}

// summaryTable builds the severity-count table.
func summaryTable(r *analysis.AggregatedReport) string {
	if r.TotalViolations == 0 {
		return "✅ **No violations found!**"
	}

	var rows []string
	for _, sev := range analysis.SeverityOrder {
		if count := r.BySeverity[sev]; count > 0 {
			rows = append(rows, fmt.Sprintf("| %s %s | %d |", emoji(sev), titleCase(string(sev)), count))
		}
	}

	return "| Severity | Count |\n|----------|-------|\n" + strings.Join(rows, "\n")
}

// renderViolation formats one violation block.
func renderViolation(v *analysis.Violation) string {
	var b strings.Builder

	ruleID := v.RuleID
	if ruleID == "" {
		ruleID = "UNKNOWN"
	}
	ruleName := v.RuleName
	if ruleName == "" {
		ruleName = "Unnamed Rule"
	}
	file := v.File
	if file == "" {
		file = "unknown"
	}
	explanation := v.Explanation
	if explanation == "" {
		explanation = "No explanation provided"
	}

	location := fmt.Sprintf("`%s:%s`", file, v.Line.String())
	if v.LineEnd != nil {
		if end, ok := v.LineEnd.Int(); ok {
			if start, startOK := v.Line.Int(); startOK && end != start {
				location = fmt.Sprintf("`%s` (lines %d-%d)", file, start, end)
			}
		}
	}

	fmt.Fprintf(&b, "\n#### %s [%s] %s\n\n", emoji(normalizeSeverity(v.Severity)), ruleID, ruleName)
	fmt.Fprintf(&b, "**Location:** %s\n\n%s\n", location, explanation)

	if v.CodeSnippet != "" {
		fmt.Fprintf(&b, "\n<details>\n<summary>Code</summary>\n\n```\n%s\n```\n</details>\n", v.CodeSnippet)
	}
	if v.Suggestion != "" {
		fmt.Fprintf(&b, "\n**💡 Suggestion:** %s\n", v.Suggestion)
	}
	if v.Confidence > 0 && v.Confidence < confidenceCaveatThreshold {
		fmt.Fprintf(&b, "\n_Confidence: %.0f%%_\n", v.Confidence*100)
	}

	return b.String()
}

func normalizeSeverity(s analysis.Severity) analysis.Severity {
	if s == "" {
		return analysis.SeverityMedium
	}
	return analysis.Severity(strings.ToLower(string(s)))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
