// Package engine orchestrates the diff-to-findings pipeline: segmentation,
// chunking, analysis calls, normalization, and merging.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/diffsentry/diffsentry/analysis"
	"github.com/diffsentry/diffsentry/channel"
	"github.com/diffsentry/diffsentry/diff"
	"github.com/diffsentry/diffsentry/rules"
	"github.com/diffsentry/diffsentry/store"
	"github.com/diffsentry/diffsentry/tokens"
)

const (
	// DefaultTemperature keeps responses consistent and factual.
	DefaultTemperature = 0.1

	// DefaultMaxTokens is the response budget for one analysis call.
	DefaultMaxTokens = 4000

	// MaxConcurrentChunks limits how many chunks are analyzed in parallel.
	MaxConcurrentChunks = 5

	// NoChangesSummary is reported when the diff is empty.
	NoChangesSummary = "No changes to analyze"

	// channelFailureSummary is the summary of a result whose analysis call
	// failed outright.
	channelFailureSummary = "Analysis failed due to channel error"
)

// Engine runs the analysis pipeline against a configured channel.
type Engine struct {
	channel       channel.Channel
	logger        *slog.Logger
	store         store.Store
	counter       *tokens.Counter
	maxChunkBytes int
	temperature   float64
	maxTokens     int
}

// New creates an Engine with the default chunk budget.
func New(ch channel.Channel, logger *slog.Logger) *Engine {
	return &Engine{
		channel:       ch,
		logger:        logger,
		maxChunkBytes: tokens.BudgetBytes(tokens.DefaultTokenBudget),
		temperature:   DefaultTemperature,
		maxTokens:     DefaultMaxTokens,
	}
}

// SetStore enables archiving of analysis runs.
func (e *Engine) SetStore(s store.Store) {
	e.store = s
}

// SetCounter enables exact token accounting for chunk payloads.
func (e *Engine) SetCounter(c *tokens.Counter) {
	e.counter = c
}

// SetChunkBudget overrides the per-chunk token budget.
func (e *Engine) SetChunkBudget(maxTokens int) {
	if maxTokens > 0 {
		e.maxChunkBytes = tokens.BudgetBytes(maxTokens)
	}
}

// Input describes one analysis run.
type Input struct {
	Diff         string
	SystemPrompt string
	Language     string
	Strictness   string
	RulesFile    string
}

// Analyze runs the pipeline over a diff and returns the merged result.
//
// An empty diff short-circuits without invoking the channel. Chunks are
// analyzed concurrently; a failed call becomes an error-tagged result in
// its slot so merge order always matches chunk order, and one bad chunk
// never blanks out an otherwise-good run. The returned error is non-nil
// only when the context is canceled.
func (e *Engine) Analyze(ctx context.Context, input *Input) (*analysis.Result, error) {
	if strings.TrimSpace(input.Diff) == "" {
		e.logger.Info("empty diff, nothing to analyze")
		return &analysis.Result{Summary: NoChangesSummary, Violations: []analysis.Violation{}}, nil
	}

	chunks := diff.ChunkDiff(input.Diff, e.maxChunkBytes)
	e.logger.Info("chunked diff",
		"chunk_count", len(chunks),
		"diff_size", len(input.Diff),
	)

	results := make([]*analysis.Result, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(MaxConcurrentChunks)

	for i, c := range chunks {
		i, c := i, c // capture for goroutine
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			results[i] = e.analyzeChunk(gctx, input, &c)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis canceled: %w", err)
	}

	merged := results[0]
	if len(results) > 1 {
		merged = analysis.MergeChunks(results)
	}

	merged.Metadata = &analysis.Metadata{
		Language:       input.Language,
		Strictness:     input.Strictness,
		RulesFile:      input.RulesFile,
		ChunksAnalyzed: len(chunks),
	}

	e.logger.Info("analysis complete",
		"violations", len(merged.Violations),
		"chunks", len(chunks),
		"failed", merged.Failed(),
	)

	e.archiveRun(ctx, input, merged, len(chunks))

	return merged, nil
}

// analyzeChunk invokes the channel for one chunk and normalizes the
// response. Failures surface as error-tagged results, never as errors.
func (e *Engine) analyzeChunk(ctx context.Context, input *Input, c *diff.Chunk) *analysis.Result {
	promptTokens := tokens.Estimate(c.Text)
	if e.counter != nil {
		if exact, err := e.counter.Count(c.Text, tokens.DefaultEncoding); err == nil {
			promptTokens = exact
		}
	}

	e.logger.Info("analyzing chunk",
		"chunk", c.Index+1,
		"total", c.Total,
		"files", len(c.Sections),
		"size_bytes", c.SizeBytes,
		"prompt_tokens", promptTokens,
	)

	raw, err := e.channel.Invoke(ctx, channel.Request{
		SystemPrompt: input.SystemPrompt,
		UserMessage:  rules.BuildUserMessage(c.Text, input.Language),
		Temperature:  e.temperature,
		MaxTokens:    e.maxTokens,
	})
	if err != nil {
		e.logger.Warn("chunk analysis failed",
			"chunk", c.Index+1,
			"channel", e.channel.Name(),
			"error", err,
		)
		return &analysis.Result{
			Summary: channelFailureSummary,
			Error:   fmt.Sprintf("analysis channel failed: %v", err),
		}
	}

	return analysis.Normalize(raw)
}

// archiveRun stores the run when a store is configured. Storage failures
// are logged and do not fail the run.
func (e *Engine) archiveRun(ctx context.Context, input *Input, result *analysis.Result, chunkCount int) {
	if e.store == nil {
		return
	}

	record := &store.RunRecord{
		Language:       input.Language,
		Strictness:     input.Strictness,
		RulesFile:      input.RulesFile,
		ChunkCount:     chunkCount,
		ViolationCount: len(result.Violations),
		MaxSeverity:    string(analysis.MaxSeverity(result.Violations)),
		Summary:        result.Summary,
		Result:         result,
	}

	if err := e.store.StoreRun(ctx, record); err != nil {
		e.logger.Error("failed to archive run", "error", err)
	}
}
