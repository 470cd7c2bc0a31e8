// Package language detects programming languages from file paths and
// content, used to split a diff into per-language analysis passes.
package language

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Unknown is returned when no language could be determined.
const Unknown = "unknown"

// extensionLanguages maps file extensions to language categories.
var extensionLanguages = map[string]string{
	// Python
	"py":  "python",
	"pyi": "python",
	"pyx": "python",

	// Java
	"java": "java",

	// JavaScript/TypeScript
	"js":  "javascript",
	"jsx": "javascript",
	"ts":  "javascript",
	"tsx": "javascript",
	"mjs": "javascript",
	"cjs": "javascript",

	// Go
	"go": "go",

	// Rust
	"rs": "rust",

	// C/C++
	"c":   "c",
	"h":   "c",
	"cpp": "cpp",
	"hpp": "cpp",
	"cc":  "cpp",
	"cxx": "cpp",

	// Ruby
	"rb": "ruby",

	// PHP
	"php": "php",

	// Shell
	"sh":   "shell",
	"bash": "shell",
	"zsh":  "shell",

	// Infrastructure
	"tf":  "terraform",
	"hcl": "terraform",

	// Configuration
	"yaml": "yaml",
	"yml":  "yaml",
	"json": "json",
	"toml": "toml",

	// Web
	"html": "html",
	"css":  "css",
	"scss": "css",
	"sass": "css",
	"less": "css",

	// SQL
	"sql": "sql",

	// Kotlin
	"kt":  "kotlin",
	"kts": "kotlin",

	// Swift
	"swift": "swift",

	// Scala
	"scala": "scala",
	"sc":    "scala",
}

// contentPatterns score file content against language-specific line shapes.
var contentPatterns = map[string][]*regexp.Regexp{
	"python": compileAll(
		`^#!/usr/bin/env python`,
		`^#!/usr/bin/python`,
		`^import\s+\w+`,
		`^from\s+\w+\s+import`,
		`^def\s+\w+\s*\(`,
		`^class\s+\w+(\s*\(.*\))?\s*:`,
	),
	"javascript": compileAll(
		`^import\s+.*\s+from\s+["']`,
		`^const\s+\w+\s*=`,
		`^let\s+\w+\s*=`,
		`^export\s+(default\s+)?(function|class|const)`,
		`^\s*function\s+\w+\s*\(`,
		`^\s*class\s+\w+\s*(extends|{)`,
	),
	"java": compileAll(
		`^package\s+[\w.]+;`,
		`^import\s+[\w.]+;`,
		`^public\s+(class|interface|enum)\s+\w+`,
		`^@\w+(\(.*\))?$`,
	),
	"go": compileAll(
		`^package\s+\w+`,
		`^import\s+\(`,
		`^func\s+(\(\w+\s+\*?\w+\)\s+)?\w+\(`,
		`^type\s+\w+\s+(struct|interface)\s*{`,
	),
	"terraform": compileAll(
		`^resource\s+"[\w_]+"`,
		`^provider\s+"[\w_]+"`,
		`^variable\s+"[\w_]+"`,
		`^module\s+"[\w_]+"`,
		`^terraform\s*{`,
	),
	"kubernetes": compileAll(
		`^apiVersion:\s*`,
		`^kind:\s*(Deployment|Service|ConfigMap|Pod|Ingress)`,
		`^metadata:\s*$`,
		`^spec:\s*$`,
	),
	"shell": compileAll(
		`^#!/bin/(ba)?sh`,
		`^#!/usr/bin/env\s+(ba)?sh`,
		`^\s*if\s+\[\[?\s+`,
		`^\s*for\s+\w+\s+in\s+`,
	),
}

// skipExtensions are common non-code files excluded from analysis.
var skipExtensions = map[string]bool{
	"md": true, "txt": true, "rst": true, "lock": true, "sum": true,
	"png": true, "jpg": true, "jpeg": true, "gif": true, "svg": true, "ico": true,
	"woff": true, "woff2": true, "ttf": true, "eot": true,
	"zip": true, "tar": true, "gz": true, "bz2": true,
	"pdf": true, "doc": true, "docx": true,
}

// contentScanLines bounds how much content is scanned for patterns.
const contentScanLines = 50

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}

// DetectFromPath detects a language from the file extension; empty when
// the extension is unknown.
func DetectFromPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return extensionLanguages[ext]
}

// DetectFromContent detects a language by scoring content patterns over the
// first lines of the file. Ties break lexicographically so detection is
// deterministic. Empty when nothing matches.
func DetectFromContent(content string) string {
	lines := strings.Split(content, "\n")
	if len(lines) > contentScanLines {
		lines = lines[:contentScanLines]
	}

	scores := make(map[string]int)
	for lang, patterns := range contentPatterns {
		for _, pattern := range patterns {
			for _, line := range lines {
				if pattern.MatchString(strings.TrimSpace(line)) {
					scores[lang]++
				}
			}
		}
	}
	if len(scores) == 0 {
		return ""
	}

	best := ""
	bestScore := 0
	langs := make([]string, 0, len(scores))
	for lang := range scores {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		if scores[lang] > bestScore {
			best = lang
			bestScore = scores[lang]
		}
	}
	return best
}

// Detect determines the language of a file from its path and, when
// available, its content. YAML files whose content looks like Kubernetes
// manifests are reported as "kubernetes".
func Detect(path, content string) string {
	if lang := DetectFromPath(path); lang != "" {
		if lang == "yaml" && content != "" && DetectFromContent(content) == "kubernetes" {
			return "kubernetes"
		}
		return lang
	}

	if content != "" {
		if lang := DetectFromContent(content); lang != "" {
			return lang
		}
	}

	return Unknown
}

// Categorize groups file paths by detected language.
func Categorize(files []string) map[string][]string {
	categories := make(map[string][]string)
	for _, file := range files {
		lang := Detect(file, "")
		categories[lang] = append(categories[lang], file)
	}
	return categories
}

// Supported lists the languages with dedicated rule sets.
func Supported() []string {
	return []string{"python", "java", "javascript", "go", "terraform", "kubernetes", "shell"}
}

// IsCodeFile reports whether a file should be analyzed at all.
func IsCodeFile(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if skipExtensions[ext] {
		return false
	}
	_, ok := extensionLanguages[ext]
	return ok
}
