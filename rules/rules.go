// Package rules loads the YAML rule set and assembles the prompts sent to
// the analysis channel.
package rules

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseError indicates a rules file exists but contains invalid content.
// This is distinct from "file not found" errors.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid rules file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Rule is one enforceable review rule.
type Rule struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Severity    string `yaml:"severity"`
	GoodExample string `yaml:"good_example,omitempty"`
	BadExample  string `yaml:"bad_example,omitempty"`
}

// RuleSet is a rule collection grouped by category.
type RuleSet struct {
	Rules map[string][]Rule `yaml:"rules"`
}

// Load reads and parses a rule set from a YAML file.
func Load(path string) (*RuleSet, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rs, err := Parse(content)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return rs, nil
}

// Parse parses a rule set from YAML content.
func Parse(content []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(content, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return &rs, nil
}

// Categories returns the rule categories in sorted order so that prompt
// assembly is deterministic.
func (rs *RuleSet) Categories() []string {
	categories := make([]string, 0, len(rs.Rules))
	for category := range rs.Rules {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// Count returns the total number of rules across categories.
func (rs *RuleSet) Count() int {
	total := 0
	for _, rules := range rs.Rules {
		total += len(rules)
	}
	return total
}

// FormatForPrompt converts the rule set into the text block embedded in the
// system prompt.
func (rs *RuleSet) FormatForPrompt() string {
	var b strings.Builder

	for _, category := range rs.Categories() {
		fmt.Fprintf(&b, "### %s\n\n", titleCategory(category))

		for _, rule := range rs.Rules[category] {
			id := rule.ID
			if id == "" {
				id = "UNKNOWN"
			}
			name := rule.Name
			if name == "" {
				name = "Unnamed Rule"
			}
			severity := rule.Severity
			if severity == "" {
				severity = "medium"
			}

			fmt.Fprintf(&b, "**[%s] %s** (Severity: %s)\n", id, name, severity)
			fmt.Fprintf(&b, "  %s\n", rule.Description)

			if rule.GoodExample != "" {
				fmt.Fprintf(&b, "  ✅ Good: `%s`\n", rule.GoodExample)
			}
			if rule.BadExample != "" {
				fmt.Fprintf(&b, "  ❌ Bad: `%s`\n", rule.BadExample)
			}
			b.WriteString("\n")
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// titleCategory turns "error_handling" into "Error Handling".
func titleCategory(category string) string {
	words := strings.Split(strings.ReplaceAll(category, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
