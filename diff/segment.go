// Package diff splits unified diffs into per-file sections and
// size-bounded chunks for submission to the analysis channel.
package diff

import (
	"regexp"
	"strings"
)

// headerRegexp matches unified diff file headers like "diff --git a/old b/new".
var headerRegexp = regexp.MustCompile(`^diff --git a/(.+?) b/(.+)$`)

// Section is one file's portion of a unified diff, header line included.
type Section struct {
	// Path is the post-change file path from the "b/" side of the header.
	Path string
	// Raw is the literal diff text of this section, line terminators preserved,
	// so that concatenating sections reconstructs the source diff.
	Raw string
}

// Segment parses a unified diff into per-file sections in header order.
// Lines before the first file header are discarded. A diff with no
// recognizable headers yields no sections; malformed diffs are not an error.
func Segment(diffText string) []Section {
	_, sections := segment(diffText)
	return sections
}

// segment returns the text preceding the first file header along with the
// parsed sections. The prefix is needed by the chunker to keep chunk
// concatenation lossless.
func segment(diffText string) (prefix string, sections []Section) {
	if diffText == "" {
		return "", nil
	}

	var prefixBuilder strings.Builder
	var raw strings.Builder
	var current *Section

	flush := func() {
		if current != nil {
			current.Raw = raw.String()
			sections = append(sections, *current)
			raw.Reset()
		}
	}

	for _, line := range strings.SplitAfter(diffText, "\n") {
		stripped := strings.TrimRight(line, "\r\n")
		if m := headerRegexp.FindStringSubmatch(stripped); m != nil {
			flush()
			current = &Section{Path: m[2]}
		}
		if current != nil {
			raw.WriteString(line)
		} else {
			prefixBuilder.WriteString(line)
		}
	}
	flush()

	return prefixBuilder.String(), sections
}

// Filter retains sections whose path is in includePaths (matched both with
// and without a leading slash) and does not match any exclude pattern.
// Relative order is preserved. Invalid exclude patterns are skipped.
func Filter(sections []Section, includePaths []string, excludePatterns []string) []Section {
	include := make(map[string]bool, len(includePaths)*2)
	for _, p := range includePaths {
		include[p] = true
		include[strings.TrimPrefix(p, "/")] = true
	}

	var excludes []*regexp.Regexp
	for _, pattern := range excludePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		excludes = append(excludes, re)
	}

	var filtered []Section
	for _, s := range sections {
		if !include[s.Path] && !include[strings.TrimPrefix(s.Path, "/")] {
			continue
		}
		excluded := false
		for _, re := range excludes {
			if re.MatchString(s.Path) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered
}

// Join concatenates sections back into a single diff text.
func Join(sections []Section) string {
	var builder strings.Builder
	for _, s := range sections {
		builder.WriteString(s.Raw)
	}
	return builder.String()
}

// Paths returns the file paths of the given sections in order.
func Paths(sections []Section) []string {
	paths := make([]string, len(sections))
	for i, s := range sections {
		paths[i] = s.Path
	}
	return paths
}
