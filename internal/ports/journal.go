package ports

import (
	"context"

	"github.com/alejandrodnm/simtrader/internal/domain"
)

// Journal persists what happened during a run for later inspection.
// The live run state itself stays in memory.
type Journal interface {
	// SaveTrade records one executed trade with its strategy context.
	SaveTrade(ctx context.Context, runID string, rec domain.TradeRecord, strategy, reason string, confidence int) error

	// SaveTrace records one analysis cycle.
	SaveTrace(ctx context.Context, runID string, trace domain.AnalysisTrace) error

	// SaveRunSummary upserts the run's aggregate result.
	SaveRunSummary(ctx context.Context, summary domain.RunSummary) error

	// Close releases the underlying store cleanly.
	Close() error
}
