// Package store defines the optional archive for analysis runs.
package store

import (
	"context"

	"github.com/diffsentry/diffsentry/analysis"
)

// RunRecord captures one analysis run for later inspection.
type RunRecord struct {
	ID             int64            `json:"id,omitempty"`
	Language       string           `json:"language,omitempty"`
	Strictness     string           `json:"strictness,omitempty"`
	RulesFile      string           `json:"rules_file,omitempty"`
	ChunkCount     int              `json:"chunk_count"`
	ViolationCount int              `json:"violation_count"`
	MaxSeverity    string           `json:"max_severity"`
	Summary        string           `json:"summary"`
	Result         *analysis.Result `json:"result,omitempty"`
	CreatedAt      string           `json:"created_at,omitempty"`
}

// Store archives analysis runs. Implementations must be safe for concurrent
// use by multiple goroutines.
type Store interface {
	StoreRun(ctx context.Context, run *RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]*RunRecord, error)
}
