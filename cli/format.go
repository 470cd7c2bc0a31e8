package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diffsentry/diffsentry/analysis"
	"github.com/diffsentry/diffsentry/report"
)

// emptyReview is written when the results directory has no usable files.
const emptyReview = "## ✅ Code Review Passed\n\nNo analysis results available."

var (
	formatResultsDir string
	formatOutput     string
	formatSummary    string
	formatMaxShown   int
	formatMaxInline  int
)

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Format analysis results as a review",
	Long: "Format loads the result JSON files from a directory, aggregates their\n" +
		"violations, and writes a markdown review plus a machine summary.",
	RunE: runFormat,
}

func init() {
	formatCmd.Flags().StringVar(&formatResultsDir, "results-dir", "", "Directory containing result JSON files (required)")
	formatCmd.Flags().StringVar(&formatOutput, "output", "", "Output markdown file (required)")
	formatCmd.Flags().StringVar(&formatSummary, "summary", "", "Output summary JSON file (required)")
	formatCmd.Flags().IntVar(&formatMaxShown, "max-shown", report.DefaultMaxShown, "Max violations to show in detail")
	formatCmd.Flags().IntVar(&formatMaxInline, "max-inline", analysis.DefaultMaxInlineComments, "Max inline comments in the summary")
}

func runFormat(cmd *cobra.Command, args []string) error {
	if formatResultsDir == "" || formatOutput == "" || formatSummary == "" {
		return usageErrorf("--results-dir, --output, and --summary are required")
	}

	logger := newLogger()

	results, err := loadResults(formatResultsDir)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results found to process")
		if err := writeFile(formatOutput, []byte(emptyReview)); err != nil {
			return err
		}
		return writeSummaryJSON(formatSummary, &report.Summary{
			MaxSeverity:    string(analysis.SeverityNone),
			BySeverity:     map[string]int{},
			ByLanguage:     map[string]int{},
			InlineComments: []report.InlineComment{},
		})
	}

	aggregated := analysis.AggregateReport(results, formatMaxInline)
	logger.Info("aggregated results",
		"files", len(results),
		"violations", aggregated.TotalViolations,
	)

	if err := writeFile(formatOutput, []byte(report.Render(aggregated, formatMaxShown))); err != nil {
		return err
	}

	summary := report.BuildSummary(aggregated)
	if err := writeSummaryJSON(formatSummary, summary); err != nil {
		return err
	}

	fmt.Printf("Review written to %s\n", formatOutput)
	fmt.Printf("Summary written to %s\n", formatSummary)

	printSeverityDigest(aggregated)
	return nil
}

// loadResults reads every *.json file in dir as an analysis result. Files
// that fail to parse are skipped with a warning so one corrupt artifact
// does not sink the whole review.
func loadResults(dir string) ([]*analysis.Result, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan results directory: %w", err)
	}

	var results []*analysis.Result
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", path, err)
			continue
		}

		var result analysis.Result
		if err := json.Unmarshal(data, &result); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", path, err)
			continue
		}

		result.Source = filepath.Base(path)
		results = append(results, &result)
	}

	return results, nil
}

func writeSummaryJSON(path string, summary *report.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// printSeverityDigest prints per-severity counts for workflow logs.
func printSeverityDigest(r *analysis.AggregatedReport) {
	if r.TotalViolations == 0 {
		return
	}

	fmt.Println("\nViolation Summary:")
	for _, sev := range analysis.SeverityOrder {
		if count := r.BySeverity[sev]; count > 0 {
			fmt.Printf("  %s %s: %d\n", report.Emoji(sev), titleSeverity(sev), count)
		}
	}
}

func titleSeverity(s analysis.Severity) string {
	str := string(s)
	if str == "" {
		return str
	}
	return strings.ToUpper(str[:1]) + str[1:]
}
