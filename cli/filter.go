package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diffsentry/diffsentry/diff"
	"github.com/diffsentry/diffsentry/language"
)

var (
	filterDiffPath string
	filterFiles    string
	filterExclude  string
	filterOutput   string
	filterCodeOnly bool
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter a diff to specific files",
	Long: "Filter keeps only the diff sections whose paths appear in --files and\n" +
		"drops any section matching an --exclude pattern.",
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringVar(&filterDiffPath, "diff", "", "Path to diff file (required)")
	filterCmd.Flags().StringVar(&filterFiles, "files", "", "Files to include: JSON array or comma-separated (required)")
	filterCmd.Flags().StringVar(&filterExclude, "exclude", "", "Comma-separated regexp patterns to exclude")
	filterCmd.Flags().StringVar(&filterOutput, "output", "", "Output filtered diff file (required)")
	filterCmd.Flags().BoolVar(&filterCodeOnly, "code-only", false, "Drop sections for non-code files (images, docs, lockfiles)")
}

func runFilter(cmd *cobra.Command, args []string) error {
	if filterDiffPath == "" || filterFiles == "" || filterOutput == "" {
		return usageErrorf("--diff, --files, and --output are required")
	}

	diffContent, err := os.ReadFile(filterDiffPath)
	if err != nil {
		return fmt.Errorf("failed to read diff: %w", err)
	}

	includeFiles := parseFileList(filterFiles)

	excludePatterns, invalid := parseExcludePatterns(filterExclude)
	if len(invalid) > 0 {
		logger := newLogger()
		for _, p := range invalid {
			logger.Warn("skipping invalid exclude pattern", "pattern", p)
		}
	}

	sections := diff.Segment(string(diffContent))
	filtered := diff.Filter(sections, includeFiles, excludePatterns)

	if filterCodeOnly {
		var code []diff.Section
		for _, s := range filtered {
			if language.IsCodeFile(s.Path) {
				code = append(code, s)
			}
		}
		filtered = code
	}

	if err := writeFile(filterOutput, []byte(diff.Join(filtered))); err != nil {
		return err
	}

	fmt.Printf("Filtered %d files down to %d files\n", len(sections), len(filtered))
	return nil
}

// parseExcludePatterns splits the comma-separated --exclude list and
// validates each entry as a regexp. Invalid patterns are returned
// separately so they can be reported instead of silently dropped.
func parseExcludePatterns(raw string) (valid, invalid []string) {
	if raw == "" {
		return nil, nil
	}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := regexp.Compile(p); err != nil {
			invalid = append(invalid, p)
			continue
		}
		valid = append(valid, p)
	}
	return valid, invalid
}

// parseFileList accepts either a JSON array of paths or a comma-separated
// list.
func parseFileList(raw string) []string {
	var files []string
	if err := json.Unmarshal([]byte(raw), &files); err == nil {
		return files
	}

	for _, f := range strings.Split(raw, ",") {
		files = append(files, strings.TrimSpace(f))
	}
	return files
}
