package analysis

import (
	"testing"
)

func TestAggregateReportOrdering(t *testing.T) {
	// Equal severities must keep their input order; the sort is stable.
	results := []*Result{{
		Violations: []Violation{
			{Severity: SeverityLow, RuleID: "L1", File: "a.py", Line: NewLine(1)},
			{Severity: SeverityCritical, RuleID: "C1", File: "a.py", Line: NewLine(2)},
			{Severity: SeverityHigh, RuleID: "H1", File: "a.py", Line: NewLine(3)},
			{Severity: SeverityCritical, RuleID: "C2", File: "a.py", Line: NewLine(4)},
			{Severity: SeverityInfo, RuleID: "I1", File: "a.py", Line: NewLine(5)},
		},
	}}

	report := AggregateReport(results, 0)

	got := make([]string, len(report.Violations))
	for i, v := range report.Violations {
		got[i] = v.RuleID
	}
	expected := []string{"C1", "C2", "H1", "L1", "I1"}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("order = %v, want %v", got, expected)
		}
	}

	if report.MaxSeverity != SeverityCritical {
		t.Errorf("max severity = %s", report.MaxSeverity)
	}
	if report.TotalViolations != 5 {
		t.Errorf("total = %d", report.TotalViolations)
	}
	if report.BySeverity[SeverityCritical] != 2 {
		t.Errorf("critical count = %d", report.BySeverity[SeverityCritical])
	}
}

func TestAggregateReportProvenance(t *testing.T) {
	results := []*Result{
		{
			Source:     "python.json",
			Metadata:   &Metadata{Language: "python"},
			Violations: []Violation{{RuleID: "P1", File: "a.py", Line: NewLine(1)}},
		},
		{
			Violations: []Violation{{RuleID: "X1", File: "b.txt", Line: NewLine(2)}},
		},
	}

	report := AggregateReport(results, 0)

	byRule := make(map[string]Violation)
	for _, v := range report.Violations {
		byRule[v.RuleID] = v
	}

	if v := byRule["P1"]; v.Source != "python.json" || v.Language != "python" {
		t.Errorf("P1 provenance = %q/%q", v.Source, v.Language)
	}
	if v := byRule["X1"]; v.Source != "result-2" || v.Language != DefaultLanguage {
		t.Errorf("X1 provenance = %q/%q", v.Source, v.Language)
	}

	if report.ByLanguage["python"] != 1 || report.ByLanguage[DefaultLanguage] != 1 {
		t.Errorf("by_language = %v", report.ByLanguage)
	}
}

func TestAggregateReportDeduplicates(t *testing.T) {
	// Two passes over the same file (say a common pass and a language
	// pass) reporting the identical finding must count it once.
	results := []*Result{
		{
			Source:     "common.json",
			Violations: []Violation{{RuleID: "SEC-001", File: "a.py", Line: NewLine(3), Severity: SeverityCritical}},
		},
		{
			Source:     "python.json",
			Metadata:   &Metadata{Language: "python"},
			Violations: []Violation{{RuleID: "SEC-001", File: "a.py", Line: NewLine(3), Severity: SeverityCritical}},
		},
	}

	report := AggregateReport(results, 0)

	if report.TotalViolations != 1 {
		t.Fatalf("TotalViolations = %d, want 1", report.TotalViolations)
	}
	if report.Violations[0].Source != "common.json" {
		t.Errorf("first occurrence should win, got source %q", report.Violations[0].Source)
	}
	if len(report.InlineComments) != 1 {
		t.Errorf("expected 1 inline comment, got %d", len(report.InlineComments))
	}
	if report.BySeverity[SeverityCritical] != 1 {
		t.Errorf("critical count = %d, want 1", report.BySeverity[SeverityCritical])
	}
}

func TestAggregateReportSkipsFailedResults(t *testing.T) {
	results := []*Result{
		{Error: "upstream failure", Violations: []Violation{{RuleID: "BAD"}}},
		{Violations: []Violation{{RuleID: "GOOD", File: "a.py", Line: NewLine(1)}}},
	}

	report := AggregateReport(results, 0)

	if report.TotalViolations != 1 {
		t.Fatalf("expected 1 violation, got %d", report.TotalViolations)
	}
	if report.Violations[0].RuleID != "GOOD" {
		t.Errorf("violation = %+v", report.Violations[0])
	}
}

func TestExtractInlineComments(t *testing.T) {
	results := []*Result{{
		Violations: []Violation{
			{RuleID: "R1", File: "a.py", Line: NewLine(10), Severity: SeverityHigh, Explanation: "bad", Suggestion: "fix it"},
			{RuleID: "R2", File: "", Line: NewLine(5)},               // no file
			{RuleID: "R3", File: "b.py", Line: lineFromJSON(t, `"?"`)}, // unresolvable line
			{RuleID: "R4", File: "c.py", Line: NewLine(3)},           // no explanation
		},
	}}

	report := AggregateReport(results, 0)

	if len(report.InlineComments) != 2 {
		t.Fatalf("expected 2 inline comments, got %d", len(report.InlineComments))
	}

	first := report.InlineComments[0]
	if first.Path != "a.py" || first.Line != 10 || first.RuleID != "R1" {
		t.Errorf("first comment = %+v", first)
	}
	if first.Suggestion != "fix it" {
		t.Errorf("suggestion = %q", first.Suggestion)
	}

	if report.InlineComments[1].Explanation != "Issue detected" {
		t.Errorf("missing explanation should default, got %q", report.InlineComments[1].Explanation)
	}
}

func TestExtractInlineCommentsCap(t *testing.T) {
	var violations []Violation
	for i := 1; i <= 30; i++ {
		violations = append(violations, Violation{
			RuleID: "R1", File: "a.py", Line: NewLine(i), Explanation: "x",
		})
	}

	report := AggregateReport([]*Result{{Violations: violations}}, 0)
	if len(report.InlineComments) != DefaultMaxInlineComments {
		t.Errorf("expected cap of %d, got %d", DefaultMaxInlineComments, len(report.InlineComments))
	}

	capped := AggregateReport([]*Result{{Violations: violations}}, 5)
	if len(capped.InlineComments) != 5 {
		t.Errorf("expected cap of 5, got %d", len(capped.InlineComments))
	}
}

func TestAggregateReportDensity(t *testing.T) {
	results := []*Result{
		{
			Violations: []Violation{{RuleID: "R1", File: "a.py", Line: NewLine(1)}},
			Metrics:    Metrics{FilesAnalyzed: 1, TotalLines: 100},
		},
		{
			Violations: []Violation{{RuleID: "R2", File: "b.py", Line: NewLine(2)}},
			Metrics:    Metrics{FilesAnalyzed: 1, TotalLines: 100},
		},
	}

	report := AggregateReport(results, 0)
	if want := 2.0 / 200.0; report.Metrics.ViolationDensity != want {
		t.Errorf("density = %f, want %f", report.Metrics.ViolationDensity, want)
	}
}

// lineFromJSON builds a LineRef through its JSON decoder, the same path
// model responses take.
func lineFromJSON(t *testing.T, data string) LineRef {
	t.Helper()
	var l LineRef
	if err := l.UnmarshalJSON([]byte(data)); err != nil {
		t.Fatalf("unmarshal line: %v", err)
	}
	return l
}
