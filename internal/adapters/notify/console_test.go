package notify_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/alejandrodnm/simtrader/internal/adapters/notify"
	"github.com/alejandrodnm/simtrader/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update() domain.DashboardUpdate {
	chosen := domain.CandidateMove{
		Action: domain.ActionBuy, Symbol: "NVTK", Qty: 10, Price: 181.5,
		Strategy: "momentum", Edge: 0.6, Score: 3.1,
	}
	return domain.DashboardUpdate{
		Tick: 42,
		Day:  3,
		Stats: domain.PortfolioStats{
			Cash: 8185, TotalValue: 10000, ReturnPct: 0,
			Holdings: map[string]domain.Holding{
				"NVTK": {Symbol: "NVTK", Qty: 10, AvgCost: 181.5},
			},
		},
		Quotes: []domain.Quote{
			{Symbol: "NVTK", Price: 181.5, Bid: 181.4, Ask: 181.6},
			{Symbol: "QBIT", Price: 64.2, Bid: 64.1, Ask: 64.3},
		},
		Trace: &domain.AnalysisTrace{
			PositionScore: 5, Chosen: &chosen, Confidence: 63,
			Reasoning: "[momentum] NVTK up 2.1% over 5 bars",
			Strategy:  "momentum", Candidates: []domain.CandidateMove{chosen},
		},
	}
}

func TestCompactModeIsOneLine(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	require.NoError(t, c.Notify(context.Background(), update()))

	out := buf.String()
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
	assert.Contains(t, out, "d3 t42")
	assert.Contains(t, out, "BUY NVTK")
	assert.Contains(t, out, "conf 63")
}

func TestTableModePrintsBoards(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	require.NoError(t, c.Notify(context.Background(), update()))

	out := buf.String()
	assert.Contains(t, out, "NVTK")
	assert.Contains(t, out, "QBIT")
	assert.Contains(t, out, "position score")
	assert.Contains(t, out, "momentum")
}

func TestCompactModeHold(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	u := update()
	u.Trace = &domain.AnalysisTrace{Confidence: 7, Reasoning: "nothing cleared"}
	require.NoError(t, c.Notify(context.Background(), u))

	assert.Contains(t, buf.String(), "HOLD (conf 7)")
}

func TestEventLineInCompactMode(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	u := update()
	u.Trace = nil
	u.Events = []domain.MarketEvent{{Type: domain.EventOutage, Symbol: "QBIT", Text: "QuantumBit Labs reports service outage", Magnitude: -0.015}}
	require.NoError(t, c.Notify(context.Background(), u))

	assert.Contains(t, buf.String(), "EVENT OUTAGE QBIT -")
}
