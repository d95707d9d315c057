package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/simtrader/internal/adapters/storage"
	"github.com/alejandrodnm/simtrader/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJournal(t *testing.T) *storage.SQLiteJournal {
	t.Helper()
	j, err := storage.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSaveTradeAndTrace(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()

	rec := domain.TradeRecord{
		ID: 1, Symbol: "NVTK", Side: domain.SideBuy,
		Qty: 10, Price: 100, Notional: 1000, Day: 0, Tick: 5,
	}
	require.NoError(t, j.SaveTrade(ctx, "run-1", rec, "momentum", "trend up", 62))

	chosen := domain.CandidateMove{Action: domain.ActionBuy, Symbol: "NVTK", Score: 2.5}
	trace := domain.AnalysisTrace{
		Day: 0, Tick: 5, PositionScore: 12.5, Chosen: &chosen,
		Confidence: 62, Strategy: "momentum", Reasoning: "trend up",
		Candidates: []domain.CandidateMove{chosen}, Depth: 5, Nodes: 8,
	}
	require.NoError(t, j.SaveTrace(ctx, "run-1", trace))
}

func TestRunSummaryUpsert(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()
	start := time.Now().UTC().Truncate(time.Second)

	s := domain.RunSummary{
		ID: "run-1", Mode: "synthetic", Scenario: "normal",
		StartedAt: start, EndedAt: start,
		Ticks: 100, FinalValue: 10100, ReturnPct: 1.0,
	}
	require.NoError(t, j.SaveRunSummary(ctx, s))

	s.Ticks = 200
	s.FinalValue = 10500
	s.ReturnPct = 5.0
	require.NoError(t, j.SaveRunSummary(ctx, s))

	runs, err := j.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1, "same id must upsert, not duplicate")
	assert.Equal(t, 200, runs[0].Ticks)
	assert.InDelta(t, 10500.0, runs[0].FinalValue, 1e-9)
}

func TestRecentRunsOrder(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, j.SaveRunSummary(ctx, domain.RunSummary{
			ID: id, Mode: "synthetic",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			EndedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := j.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "mid", runs[1].ID)
}
