package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/diffsentry/diffsentry/analysis"
	"github.com/diffsentry/diffsentry/channel"
)

const reviewDiff = `diff --git a/a.py b/a.py
--- a/a.py
+++ b/a.py
@@ -1,3 +1,4 @@
 import os
+password = "hunter2"

 def main():
diff --git a/b.py b/b.py
--- a/b.py
+++ b/b.py
@@ -10,2 +10,3 @@
 def helper():
+    return None
`

const criticalResponse = `{
  "summary": "Found a hardcoded credential",
  "violations": [
    {
      "severity": "critical",
      "rule_id": "SEC-001",
      "rule_name": "No hardcoded secrets",
      "file": "a.py",
      "line": 3,
      "explanation": "Password committed to source",
      "confidence": 0.98
    }
  ],
  "recommendations": ["Use a secrets manager"],
  "metrics": {"files_analyzed": 2, "total_lines": 7}
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAnalyzeSingleChunk(t *testing.T) {
	mock := &channel.Mock{Responses: []string{criticalResponse}}
	eng := New(mock, testLogger())

	result, err := eng.Analyze(context.Background(), &Input{
		Diff:         reviewDiff,
		SystemPrompt: "review this",
		Language:     "python",
		Strictness:   "normal",
		RulesFile:    "rules.yaml",
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(mock.Calls()) != 1 {
		t.Fatalf("expected 1 channel call, got %d", len(mock.Calls()))
	}

	call := mock.Calls()[0]
	if call.SystemPrompt != "review this" {
		t.Errorf("system prompt = %q", call.SystemPrompt)
	}
	if !strings.Contains(call.UserMessage, "a/a.py") {
		t.Error("user message should embed the diff")
	}
	if !strings.Contains(call.UserMessage, "Focus on python specific patterns.") {
		t.Error("user message should carry the language focus")
	}

	if len(result.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(result.Violations))
	}
	v := result.Violations[0]
	if v.Severity != analysis.SeverityCritical || v.File != "a.py" {
		t.Errorf("violation = %+v", v)
	}
	if line, ok := v.Line.Int(); !ok || line != 3 {
		t.Errorf("line = %v", v.Line)
	}

	if result.Metadata == nil {
		t.Fatal("expected metadata")
	}
	if result.Metadata.Language != "python" || result.Metadata.ChunksAnalyzed != 1 {
		t.Errorf("metadata = %+v", result.Metadata)
	}

	// Downstream aggregation over this run's result.
	report := analysis.AggregateReport([]*analysis.Result{result}, 0)
	if report.TotalViolations != 1 || report.MaxSeverity != analysis.SeverityCritical {
		t.Errorf("aggregated report = %+v", report)
	}
	if len(report.InlineComments) != 1 {
		t.Fatalf("expected 1 inline comment, got %d", len(report.InlineComments))
	}
	if c := report.InlineComments[0]; c.Path != "a.py" || c.Line != 3 {
		t.Errorf("inline comment = %+v", c)
	}
	if len(report.Recommendations) != 1 {
		t.Errorf("recommendations = %v", report.Recommendations)
	}
}

func TestAnalyzeEmptyDiff(t *testing.T) {
	mock := &channel.Mock{}
	eng := New(mock, testLogger())

	result, err := eng.Analyze(context.Background(), &Input{Diff: "   \n  "})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Summary != NoChangesSummary {
		t.Errorf("summary = %q", result.Summary)
	}
	if len(mock.Calls()) != 0 {
		t.Errorf("empty diff should not invoke the channel, got %d calls", len(mock.Calls()))
	}
}

func TestAnalyzeMultipleChunks(t *testing.T) {
	mock := &channel.Mock{Responses: []string{
		`{"summary": "Chunk one.", "violations": [], "metrics": {"files_analyzed": 1, "total_lines": 4}}`,
		`{"summary": "Chunk two.", "violations": [], "metrics": {"files_analyzed": 1, "total_lines": 3}}`,
	}}
	eng := New(mock, testLogger())
	// Budget small enough that each file section becomes its own chunk.
	eng.SetChunkBudget(30)

	result, err := eng.Analyze(context.Background(), &Input{Diff: reviewDiff})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(mock.Calls()) != 2 {
		t.Fatalf("expected 2 channel calls, got %d", len(mock.Calls()))
	}
	// Chunks are analyzed concurrently, so either response may land in
	// either chunk; both summaries must survive the merge.
	if !strings.Contains(result.Summary, "Chunk one.") || !strings.Contains(result.Summary, "Chunk two.") {
		t.Errorf("summary = %q", result.Summary)
	}
	if result.Metrics.FilesAnalyzed != 2 || result.Metrics.TotalLines != 7 {
		t.Errorf("metrics = %+v", result.Metrics)
	}
	if result.Metadata.ChunksAnalyzed != 2 {
		t.Errorf("chunks analyzed = %d", result.Metadata.ChunksAnalyzed)
	}
}

func TestAnalyzeChannelFailure(t *testing.T) {
	mock := &channel.Mock{Err: errors.New("endpoint down")}
	eng := New(mock, testLogger())

	result, err := eng.Analyze(context.Background(), &Input{Diff: reviewDiff})
	if err != nil {
		t.Fatalf("Analyze should not fail on channel errors: %v", err)
	}

	if !result.Failed() {
		t.Fatal("expected an error-tagged result")
	}
	if !strings.Contains(result.Error, "endpoint down") {
		t.Errorf("error = %q", result.Error)
	}
	if len(result.Violations) != 0 {
		t.Error("failed result should carry no violations")
	}
}

func TestAnalyzePartialFailure(t *testing.T) {
	// First chunk fails to parse, second chunk succeeds; the merged result
	// keeps the good chunk's findings.
	mock := &channel.Mock{Responses: []string{
		"not json at all",
		criticalResponse,
	}}
	eng := New(mock, testLogger())
	eng.SetChunkBudget(30)

	result, err := eng.Analyze(context.Background(), &Input{Diff: reviewDiff})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Failed() {
		t.Error("merged result should not be error-tagged when one chunk succeeds")
	}
	if len(result.Violations) != 1 {
		t.Errorf("expected the surviving chunk's violation, got %d", len(result.Violations))
	}
}

func TestAnalyzeNormalizesFencedResponse(t *testing.T) {
	mock := &channel.Mock{Responses: []string{"```json\n" + criticalResponse + "\n```"}}
	eng := New(mock, testLogger())

	result, err := eng.Analyze(context.Background(), &Input{Diff: reviewDiff})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.Failed() {
		t.Fatalf("fenced response should parse, got error %q", result.Error)
	}
	if len(result.Violations) != 1 {
		t.Errorf("expected 1 violation, got %d", len(result.Violations))
	}
}
