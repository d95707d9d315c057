package domain

import "time"

// HistorySeries is an ordered OHLCV series fetched from the external
// historical data source, plus its metadata.
type HistorySeries struct {
	Symbol        string
	Exchange      string
	Currency      string
	PreviousClose float64
	Bars          []Bar
}

// SymbolMatch is one hit from the symbol search interface.
type SymbolMatch struct {
	Symbol   string
	Name     string
	Exchange string
	Type     string
}

// RunSummary is the journaled result of one finished run.
type RunSummary struct {
	ID          string
	Mode        string // synthetic | replay
	Scenario    string
	Symbol      string // replay only
	StartedAt   time.Time
	EndedAt     time.Time
	Ticks       int
	Days        int
	FinalValue  float64
	ReturnPct   float64
	MaxDrawdown float64
	Sharpe      float64
	Trades      int
	WinRate     float64
}

// DashboardUpdate is the per-cycle payload handed to the presentation port.
type DashboardUpdate struct {
	Tick   int
	Day    int
	Stats  PortfolioStats
	Quotes []Quote
	Events []MarketEvent
	Trace  *AnalysisTrace
}
