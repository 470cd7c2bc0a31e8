package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diffsentry/diffsentry/analysis"
	"github.com/diffsentry/diffsentry/channel"
	"github.com/diffsentry/diffsentry/diff"
	"github.com/diffsentry/diffsentry/engine"
	"github.com/diffsentry/diffsentry/language"
	"github.com/diffsentry/diffsentry/rules"
	"github.com/diffsentry/diffsentry/store/postgres"
	"github.com/diffsentry/diffsentry/tokens"
)

var (
	analyzeDiffPath   string
	analyzeRulesPath  string
	analyzePromptPath string
	analyzeBasePath   string
	analyzeOutput     string
	analyzeLanguage   string
	analyzeStrictness string
	analyzeChannel    string
	analyzeChunkToks  int
	analyzeExactToks  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a diff against a rules file",
	Long: "Analyze reads a unified diff, chunks it to the token budget, sends each\n" +
		"chunk to the configured analysis channel, and writes the merged result\n" +
		"as JSON.",
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeDiffPath, "diff", "", "Path to diff file (required)")
	analyzeCmd.Flags().StringVar(&analyzeRulesPath, "rules", "", "Path to rules YAML file (required)")
	analyzeCmd.Flags().StringVar(&analyzePromptPath, "prompt", "", "Path to prompt template (required)")
	analyzeCmd.Flags().StringVar(&analyzeBasePath, "base-prompt", "", "Path to base system prompt; makes --prompt language-specific")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "analysis_result.json", "Output JSON file path")
	analyzeCmd.Flags().StringVar(&analyzeLanguage, "language", "", "Programming language being analyzed (default: detect from diff)")
	analyzeCmd.Flags().StringVar(&analyzeStrictness, "strictness", rules.StrictnessNormal, "Analysis strictness level (low, normal, high)")
	analyzeCmd.Flags().StringVar(&analyzeChannel, "channel", "serving", "Analysis channel (serving, anthropic, mock)")
	analyzeCmd.Flags().IntVar(&analyzeChunkToks, "chunk-tokens", tokens.DefaultTokenBudget, "Per-chunk token budget")
	analyzeCmd.Flags().BoolVar(&analyzeExactToks, "exact-tokens", false, "Count chunk tokens exactly instead of estimating")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeDiffPath == "" || analyzeRulesPath == "" || analyzePromptPath == "" {
		return usageErrorf("--diff, --rules, and --prompt are required")
	}
	if !rules.ValidStrictness(analyzeStrictness) {
		return usageErrorf("invalid strictness %q (want low, normal, or high)", analyzeStrictness)
	}

	logger := newLogger()

	diffContent, err := os.ReadFile(analyzeDiffPath)
	if err != nil {
		return fmt.Errorf("failed to read diff: %w", err)
	}

	if strings.TrimSpace(string(diffContent)) == "" {
		fmt.Println("Empty diff, nothing to analyze")
		result := &analysis.Result{Summary: engine.NoChangesSummary, Violations: []analysis.Violation{}}
		return writeResultJSON(analyzeOutput, result)
	}

	ruleSet, err := rules.Load(analyzeRulesPath)
	if err != nil {
		return err
	}

	basePrompt, languagePrompt, err := loadPrompts()
	if err != nil {
		return err
	}

	lang := analyzeLanguage
	if lang == "" {
		lang = detectDiffLanguage(string(diffContent))
		if lang != "" {
			logger.Info("detected language from diff", "language", lang)
		}
	}

	systemPrompt := rules.BuildSystemPrompt(basePrompt, ruleSet, lang, languagePrompt, analyzeStrictness)

	ch, err := buildChannel(analyzeChannel, logger)
	if err != nil {
		return err
	}

	eng := engine.New(ch, logger)
	eng.SetChunkBudget(analyzeChunkToks)
	if analyzeExactToks {
		eng.SetCounter(tokens.NewCounter())
	}

	ctx := context.Background()

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := postgres.NewFromDSN(dsn)
		if err != nil {
			logger.Warn("run archive unavailable", "error", err)
		} else {
			defer db.Close()
			if err := db.Migrate(ctx); err != nil {
				logger.Warn("run archive migration failed", "error", err)
			} else {
				eng.SetStore(db)
			}
		}
	}

	result, err := eng.Analyze(ctx, &engine.Input{
		Diff:         string(diffContent),
		SystemPrompt: systemPrompt,
		Language:     lang,
		Strictness:   analyzeStrictness,
		RulesFile:    analyzeRulesPath,
	})
	if err != nil {
		return err
	}

	if err := writeResultJSON(analyzeOutput, result); err != nil {
		return err
	}

	printViolationDigest(result)
	return nil
}

// loadPrompts resolves the base and language prompts. When --base-prompt is
// given, --prompt carries the language-specific guidance; otherwise --prompt
// is the base and there is no language guidance.
func loadPrompts() (basePrompt, languagePrompt string, err error) {
	prompt, err := os.ReadFile(analyzePromptPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read prompt: %w", err)
	}

	if analyzeBasePath == "" {
		return string(prompt), "", nil
	}

	base, err := os.ReadFile(analyzeBasePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read base prompt: %w", err)
	}
	return string(base), string(prompt), nil
}

// buildChannel constructs the analysis channel named by --channel from
// environment credentials.
func buildChannel(name string, logger *slog.Logger) (channel.Channel, error) {
	switch name {
	case "serving":
		host := os.Getenv("SERVING_HOST")
		token := os.Getenv("SERVING_TOKEN")
		if host == "" || token == "" {
			return nil, usageErrorf("SERVING_HOST and SERVING_TOKEN are required for the serving channel")
		}
		endpoint := os.Getenv("SERVING_ENDPOINT")
		if endpoint == "" {
			endpoint = "code-review-v1"
		}
		return channel.NewServing(host, token, endpoint, logger), nil

	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, usageErrorf("ANTHROPIC_API_KEY is required for the anthropic channel")
		}
		return channel.NewAnthropic(apiKey, os.Getenv("ANTHROPIC_MODEL"), logger), nil

	case "mock":
		return &channel.Mock{}, nil

	default:
		return nil, usageErrorf("unknown channel %q (want serving, anthropic, or mock)", name)
	}
}

// detectDiffLanguage picks the first recognized language among the diff's
// touched files.
func detectDiffLanguage(diffContent string) string {
	for _, path := range diff.Paths(diff.Segment(diffContent)) {
		if lang := language.DetectFromPath(path); lang != "" {
			return lang
		}
	}
	return ""
}

// writeResultJSON writes a result as indented JSON.
func writeResultJSON(path string, result *analysis.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// printViolationDigest prints a short stdout summary for workflow logs.
func printViolationDigest(result *analysis.Result) {
	fmt.Printf("Analysis complete. Found %d violation(s)\n", len(result.Violations))

	for i, v := range result.Violations {
		if i == 5 {
			break
		}
		severity := strings.ToUpper(string(v.Severity))
		if severity == "" {
			severity = "UNKNOWN"
		}
		ruleID := v.RuleID
		if ruleID == "" {
			ruleID = "UNKNOWN"
		}
		file := v.File
		if file == "" {
			file = "unknown"
		}
		fmt.Printf("  [%s] %s: %s:%s\n", severity, ruleID, file, v.Line.String())
	}

	if extra := len(result.Violations) - 5; extra > 0 {
		fmt.Printf("  ... and %d more\n", extra)
	}
}
