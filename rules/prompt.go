package rules

import (
	"fmt"
	"strings"
)

// Strictness levels accepted by the analyzer.
const (
	StrictnessLow    = "low"
	StrictnessNormal = "normal"
	StrictnessHigh   = "high"
)

// strictnessInstructions maps each strictness level to its prompt text.
var strictnessInstructions = map[string]string{
	StrictnessLow:    "Focus only on critical issues. Be lenient with style preferences.",
	StrictnessNormal: "Balance between catching issues and avoiding false positives.",
	StrictnessHigh:   "Be thorough. Flag any potential violations, even minor ones. This code is from an external contractor and requires careful review.",
}

// ValidStrictness reports whether s is a recognized strictness level.
func ValidStrictness(s string) bool {
	_, ok := strictnessInstructions[s]
	return ok
}

// outputContract instructs the model to respond with the canonical result
// shape and nothing else.
const outputContract = `## Output Format

You MUST respond with valid JSON only. No markdown, no explanation outside JSON.

` + "```json" + `
{
  "summary": "Brief overall assessment",
  "violations": [
    {
      "severity": "critical|high|medium|low|info",
      "rule_id": "RULE-XXX",
      "rule_name": "Name of violated rule",
      "file": "path/to/file.ext",
      "line": 42,
      "line_end": 45,
      "code_snippet": "the problematic code",
      "explanation": "Why this violates the rule",
      "suggestion": "How to fix it",
      "confidence": 0.95
    }
  ],
  "passed_checks": ["List of rules that passed"],
  "recommendations": ["General improvement suggestions"],
  "metrics": {
    "files_analyzed": 5,
    "total_lines": 234,
    "violation_density": 0.02
  }
}
` + "```" + `

Be precise about line numbers. Only report violations you are confident about (>0.7 confidence).`

// BuildSystemPrompt combines the base instructions, strictness level,
// formatted rules, optional language guidance, and the output contract.
func BuildSystemPrompt(basePrompt string, rs *RuleSet, language, languagePrompt, strictness string) string {
	instruction, ok := strictnessInstructions[strictness]
	if !ok {
		strictness = StrictnessNormal
		instruction = strictnessInstructions[StrictnessNormal]
	}

	var b strings.Builder

	fmt.Fprintf(&b, `%s

## Strictness Level: %s
%s

## Rules to Enforce

%s
`, basePrompt, strings.ToUpper(strictness), instruction, rs.FormatForPrompt())

	if language != "" && languagePrompt != "" {
		fmt.Fprintf(&b, `
## Language-Specific Guidelines (%s)

%s
`, titleCategory(language), languagePrompt)
	}

	b.WriteString("\n")
	b.WriteString(outputContract)
	b.WriteString("\n")

	return b.String()
}

// BuildUserMessage wraps a diff in the analysis request sent to the channel.
func BuildUserMessage(diffText, language string) string {
	focus := ""
	if language != "" {
		focus = fmt.Sprintf("\nFocus on %s specific patterns.", language)
	}

	return fmt.Sprintf(`Please analyze the following code diff for rule violations:

`+"```diff"+`
%s
`+"```"+`

Identify any violations of the rules specified in your instructions. Be thorough but avoid false positives.%s
`, diffText, focus)
}
