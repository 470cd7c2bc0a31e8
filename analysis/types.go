// Package analysis defines the canonical result shape produced by the
// analysis channel and the merge/aggregation logic applied across calls.
package analysis

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Severity classifies how serious a violation is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"

	// SeverityNone is the sentinel max severity of an empty report.
	SeverityNone Severity = "none"
)

// SeverityOrder is the fixed total order of severities, most severe first.
var SeverityOrder = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInfo,
}

// unknownSeverityRank sorts severities outside the fixed set after all
// known values.
const unknownSeverityRank = 99

// severityRank returns the sort rank of a severity; lower is more severe.
// A missing severity defaults to medium, matching the reporting default.
func severityRank(s Severity) int {
	for i, known := range SeverityOrder {
		if s == known {
			return i
		}
	}
	return unknownSeverityRank
}

// normalizeSeverity lowercases a severity and defaults empty values to medium.
func normalizeSeverity(s Severity) Severity {
	if s == "" {
		return SeverityMedium
	}
	return Severity(strings.ToLower(string(s)))
}

// LineRef is a line reference as reported by the model. Models emit line
// numbers as JSON numbers, numeric strings, or placeholders like "?", so the
// raw value is preserved alongside the parsed number.
type LineRef struct {
	raw   string
	n     int
	valid bool
}

// NewLine returns a LineRef for a known line number.
func NewLine(n int) LineRef {
	return LineRef{raw: strconv.Itoa(n), n: n, valid: n > 0}
}

// Int returns the parsed line number and whether it is a positive integer.
func (l LineRef) Int() (int, bool) {
	return l.n, l.valid
}

// String renders the line for display, falling back to the raw value or "?".
func (l LineRef) String() string {
	if l.valid {
		return strconv.Itoa(l.n)
	}
	if l.raw != "" {
		return l.raw
	}
	return "?"
}

// UnmarshalJSON accepts numbers, numeric strings, and arbitrary strings.
func (l *LineRef) UnmarshalJSON(data []byte) error {
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		l.raw = num.String()
		if n, err := num.Int64(); err == nil && n > 0 {
			l.n = int(n)
			l.valid = true
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		l.raw = s
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
			l.n = n
			l.valid = true
		}
		return nil
	}

	// null or unexpected shape; leave unresolved
	return nil
}

// MarshalJSON writes a number when the reference parsed, the raw string when
// it did not, and null when nothing was reported.
func (l LineRef) MarshalJSON() ([]byte, error) {
	if l.valid {
		return []byte(strconv.Itoa(l.n)), nil
	}
	if l.raw != "" {
		return json.Marshal(l.raw)
	}
	return []byte("null"), nil
}

// Violation is one reported rule infraction.
type Violation struct {
	Severity    Severity `json:"severity"`
	RuleID      string   `json:"rule_id"`
	RuleName    string   `json:"rule_name,omitempty"`
	File        string   `json:"file"`
	Line        LineRef  `json:"line"`
	LineEnd     *LineRef `json:"line_end,omitempty"`
	CodeSnippet string   `json:"code_snippet,omitempty"`
	Explanation string   `json:"explanation"`
	Suggestion  string   `json:"suggestion,omitempty"`
	Confidence  float64  `json:"confidence,omitempty"`

	// Provenance, set during aggregation.
	Source   string `json:"source,omitempty"`
	Language string `json:"language,omitempty"`
}

// identity is the dedup key: two violations with the same file, line, and
// rule are the same finding.
func (v *Violation) identity() string {
	return v.File + "\x00" + v.Line.String() + "\x00" + v.RuleID
}

// Metrics holds rollup numbers for one analysis call.
type Metrics struct {
	FilesAnalyzed    int     `json:"files_analyzed"`
	TotalLines       int     `json:"total_lines"`
	ViolationDensity float64 `json:"violation_density"`
}

// Metadata records how a result was produced.
type Metadata struct {
	Language       string `json:"language,omitempty"`
	Strictness     string `json:"strictness,omitempty"`
	RulesFile      string `json:"rules_file,omitempty"`
	ChunksAnalyzed int    `json:"chunks_analyzed,omitempty"`
}

// Result is the canonical output of one analysis call.
// If Error is set the call failed; Violations is empty and the result is
// excluded from metric rollups.
type Result struct {
	Summary         string      `json:"summary"`
	Violations      []Violation `json:"violations"`
	PassedChecks    []string    `json:"passed_checks,omitempty"`
	Recommendations []string    `json:"recommendations,omitempty"`
	Metrics         Metrics     `json:"metrics"`
	Error           string      `json:"error,omitempty"`
	RawExcerpt      string      `json:"raw_response,omitempty"`
	Metadata        *Metadata   `json:"metadata,omitempty"`

	// Source identifies where the result came from when aggregating
	// results loaded from disk. Not serialized with the result itself.
	Source string `json:"-"`
}

// Failed reports whether the underlying analysis call failed.
func (r *Result) Failed() bool {
	return r.Error != ""
}
