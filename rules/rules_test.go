package rules

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const rulesYAML = `rules:
  security:
    - id: SEC-001
      name: No hardcoded secrets
      description: Credentials must never be committed.
      severity: critical
      good_example: api_key = os.environ["API_KEY"]
      bad_example: api_key = "sk-123"
    - id: SEC-002
      name: Validate input
      description: External input must be validated.
      severity: high
  error_handling:
    - id: ERR-001
      name: No bare except
      description: Catch specific exceptions.
      severity: medium
`

func TestParse(t *testing.T) {
	rs, err := Parse([]byte(rulesYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if rs.Count() != 3 {
		t.Errorf("Count = %d, want 3", rs.Count())
	}

	categories := rs.Categories()
	expected := []string{"error_handling", "security"}
	if !reflect.DeepEqual(categories, expected) {
		t.Errorf("Categories = %v, want %v", categories, expected)
	}

	security := rs.Rules["security"]
	if len(security) != 2 || security[0].ID != "SEC-001" {
		t.Errorf("security rules = %+v", security)
	}
	if security[0].Severity != "critical" {
		t.Errorf("severity = %q", security[0].Severity)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/rules.yaml")
	if err == nil {
		t.Fatal("expected an error")
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		t.Error("a missing file should not be reported as a parse error")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("rules: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected an error")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected a ParseError, got %T", err)
	}
	if parseErr.Path != path {
		t.Errorf("ParseError path = %q", parseErr.Path)
	}
}

func TestFormatForPrompt(t *testing.T) {
	rs, err := Parse([]byte(rulesYAML))
	if err != nil {
		t.Fatal(err)
	}

	text := rs.FormatForPrompt()

	for _, want := range []string{
		"### Error Handling",
		"### Security",
		"**[SEC-001] No hardcoded secrets** (Severity: critical)",
		"✅ Good: `api_key = os.environ[\"API_KEY\"]`",
		"❌ Bad: `api_key = \"sk-123\"`",
		"Catch specific exceptions.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt text missing %q", want)
		}
	}

	// Categories come out sorted, so error_handling precedes security.
	if strings.Index(text, "### Error Handling") > strings.Index(text, "### Security") {
		t.Error("categories should be sorted")
	}
}

func TestFormatForPromptDefaults(t *testing.T) {
	rs, err := Parse([]byte("rules:\n  misc:\n    - description: a rule with nothing else\n"))
	if err != nil {
		t.Fatal(err)
	}

	text := rs.FormatForPrompt()
	if !strings.Contains(text, "**[UNKNOWN] Unnamed Rule** (Severity: medium)") {
		t.Errorf("missing defaults, got %q", text)
	}
}
