package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/simtrader/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implements ports.Notifier on stdout.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole creates a notifier that writes to stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify renders one cycle update in the configured mode.
func (c *Console) Notify(_ context.Context, u domain.DashboardUpdate) error {
	if c.table {
		c.printFull(u)
	} else {
		c.printCompact(u)
	}
	return nil
}

// printCompact prints the essentials in one line.
func (c *Console) printCompact(u domain.DashboardUpdate) {
	now := time.Now().Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] d%d t%d | $%.2f (%+.2f%%) | dd %.1f%% | %d trades",
		now, u.Day, u.Tick, u.Stats.TotalValue, u.Stats.ReturnPct,
		u.Stats.MaxDrawdown*100, u.Stats.Trades)

	if u.Trace != nil {
		if u.Trace.Chosen != nil {
			fmt.Fprintf(&sb, " | %s %s x%.0f @%.2f (conf %d)",
				u.Trace.Chosen.Action, u.Trace.Chosen.Symbol,
				u.Trace.Chosen.Qty, u.Trace.Chosen.Price, u.Trace.Confidence)
		} else {
			fmt.Fprintf(&sb, " | HOLD (conf %d)", u.Trace.Confidence)
		}
	}
	for _, ev := range u.Events {
		dir := "-"
		if ev.Bullish() {
			dir = "+"
		}
		fmt.Fprintf(&sb, " | EVENT %s %s %s", ev.Type, ev.Symbol, dir)
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull prints the quote board, portfolio and latest analysis.
func (c *Console) printFull(u domain.DashboardUpdate) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] day %d, tick %d\n", now, u.Day, u.Tick)

	c.printQuotes(u.Quotes)
	c.printPortfolio(u.Stats)
	if u.Trace != nil {
		c.printAnalysis(*u.Trace)
	}
	for _, ev := range u.Events {
		fmt.Fprintf(c.out, "  EVENT: %s\n", ev.Text)
	}
}

func (c *Console) printQuotes(quotes []domain.Quote) {
	if len(quotes) == 0 {
		return
	}
	sorted := make([]domain.Quote, len(quotes))
	copy(sorted, quotes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Symbol < sorted[j].Symbol })

	table := tablewriter.NewWriter(c.out)
	table.Header("Symbol", "Price", "Bid", "Ask")
	for _, q := range sorted {
		table.Append(
			q.Symbol,
			fmt.Sprintf("%.2f", q.Price),
			fmt.Sprintf("%.2f", q.Bid),
			fmt.Sprintf("%.2f", q.Ask),
		)
	}
	table.Render()
}

func (c *Console) printPortfolio(stats domain.PortfolioStats) {
	fmt.Fprintf(c.out, "  cash $%.2f | value $%.2f | P&L $%+.2f (%+.2f%%) | win %.0f%% | sharpe %.2f | max dd %.1f%%\n",
		stats.Cash, stats.TotalValue, stats.TotalPnL, stats.ReturnPct,
		stats.WinRate*100, stats.Sharpe, stats.MaxDrawdown*100)

	if len(stats.Holdings) == 0 {
		return
	}
	symbols := make([]string, 0, len(stats.Holdings))
	for sym := range stats.Holdings {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	table := tablewriter.NewWriter(c.out)
	table.Header("Holding", "Qty", "Avg cost")
	for _, sym := range symbols {
		h := stats.Holdings[sym]
		table.Append(sym, fmt.Sprintf("%.0f", h.Qty), fmt.Sprintf("%.2f", h.AvgCost))
	}
	table.Render()
}

func (c *Console) printAnalysis(trace domain.AnalysisTrace) {
	fmt.Fprintf(c.out, "  position score %+.1f | strategy %s | depth %d | %d nodes\n",
		trace.PositionScore, trace.Strategy, trace.Depth, trace.Nodes)
	fmt.Fprintf(c.out, "  %s\n", trace.Reasoning)

	if len(trace.Candidates) == 0 {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Move", "Symbol", "Qty", "Strategy", "Edge", "Score")
	for i, cand := range trace.Candidates {
		if i >= 5 {
			break
		}
		table.Append(
			string(cand.Action),
			cand.Symbol,
			fmt.Sprintf("%.0f", cand.Qty),
			cand.Strategy,
			fmt.Sprintf("%.2f", cand.Edge),
			fmt.Sprintf("%.2f", cand.Score),
		)
	}
	table.Render()
}

// PrintRunSummary prints the final report once a run ends.
func (c *Console) PrintRunSummary(s domain.RunSummary) {
	fmt.Fprintf(c.out, "\n=== run %s (%s) ===\n", s.ID, s.Mode)
	fmt.Fprintf(c.out, "ticks %d | days %d | final $%.2f | return %+.2f%% | max dd %.1f%% | sharpe %.2f | %d trades | win %.0f%%\n",
		s.Ticks, s.Days, s.FinalValue, s.ReturnPct, s.MaxDrawdown*100,
		s.Sharpe, s.Trades, s.WinRate*100)
}
