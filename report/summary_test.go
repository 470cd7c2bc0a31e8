package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/diffsentry/diffsentry/analysis"
)

func TestBuildSummary(t *testing.T) {
	report := aggregated(
		analysis.Violation{
			Severity:    analysis.SeverityCritical,
			RuleID:      "SEC-001",
			File:        "a.py",
			Line:        analysis.NewLine(3),
			Explanation: "hardcoded secret",
			Suggestion:  "use env vars",
		},
		analysis.Violation{
			Severity:    analysis.SeverityLow,
			RuleID:      "STY-001",
			File:        "b.py",
			Line:        analysis.NewLine(7),
			Explanation: "long line",
		},
	)

	summary := BuildSummary(report)

	if !summary.HasViolations || summary.TotalViolations != 2 {
		t.Errorf("summary counts = %+v", summary)
	}
	if summary.MaxSeverity != "critical" {
		t.Errorf("max severity = %q", summary.MaxSeverity)
	}
	if summary.BySeverity["critical"] != 1 || summary.BySeverity["low"] != 1 {
		t.Errorf("by_severity = %v", summary.BySeverity)
	}
	if len(summary.InlineComments) != 2 {
		t.Fatalf("expected 2 inline comments, got %d", len(summary.InlineComments))
	}

	first := summary.InlineComments[0]
	if first.Path != "a.py" || first.Line != 3 || first.Severity != "critical" {
		t.Errorf("first comment = %+v", first)
	}
	if !strings.Contains(first.Body, "🚨 **SEC-001**: hardcoded secret") {
		t.Errorf("body = %q", first.Body)
	}
	if !strings.Contains(first.Body, "💡 use env vars") {
		t.Errorf("body missing suggestion: %q", first.Body)
	}

	second := summary.InlineComments[1]
	if strings.Contains(second.Body, "\n\n💡") {
		t.Errorf("comment without suggestion should have no suggestion line: %q", second.Body)
	}
}

func TestSummaryJSONShape(t *testing.T) {
	summary := BuildSummary(aggregated(analysis.Violation{
		Severity: analysis.SeverityHigh,
		RuleID:   "R1",
		File:     "a.py",
		Line:     analysis.NewLine(1),
	}))

	data, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"has_violations", "total_violations", "max_severity", "by_severity", "by_language", "inline_comments"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("summary JSON missing key %q", key)
		}
	}
}
