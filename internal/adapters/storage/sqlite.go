package storage

// sqlite.go: run journal.
//
// Strategy:
//   - `runs`: one row per run, upserted as the summary evolves.
//   - `trades`: every executed trade with its strategy context.
//   - `traces`: one row per analysis cycle, pruned per run to the most
//     recent 200 so long sessions stay lightweight.
//   - Prune on startup: runs (and their children) older than 30 days.

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/alejandrodnm/simtrader/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    mode         TEXT     NOT NULL,
    scenario     TEXT,
    symbol       TEXT,
    started_at   DATETIME NOT NULL,
    ended_at     DATETIME,
    ticks        INTEGER  NOT NULL DEFAULT 0,
    days         INTEGER  NOT NULL DEFAULT 0,
    final_value  REAL     NOT NULL DEFAULT 0,
    return_pct   REAL     NOT NULL DEFAULT 0,
    max_drawdown REAL     NOT NULL DEFAULT 0,
    sharpe       REAL     NOT NULL DEFAULT 0,
    trades       INTEGER  NOT NULL DEFAULT 0,
    win_rate     REAL     NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS trades (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id     TEXT    NOT NULL,
    seq        INTEGER NOT NULL,
    symbol     TEXT    NOT NULL,
    side       TEXT    NOT NULL,
    qty        REAL    NOT NULL,
    price      REAL    NOT NULL,
    notional   REAL    NOT NULL,
    day        INTEGER NOT NULL,
    tick       INTEGER NOT NULL,
    pnl        REAL    NOT NULL DEFAULT 0,
    strategy   TEXT,
    reason     TEXT,
    confidence INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS traces (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id         TEXT    NOT NULL,
    day            INTEGER NOT NULL,
    tick           INTEGER NOT NULL,
    position_score REAL    NOT NULL,
    action         TEXT    NOT NULL,
    symbol         TEXT,
    confidence     INTEGER NOT NULL,
    strategy       TEXT,
    reasoning      TEXT,
    candidates     INTEGER NOT NULL DEFAULT 0,
    depth          INTEGER NOT NULL DEFAULT 0,
    nodes          INTEGER NOT NULL DEFAULT 0,
    created_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, seq);
CREATE INDEX IF NOT EXISTS idx_traces_run ON traces(run_id, tick DESC);
CREATE INDEX IF NOT EXISTS idx_runs_start ON runs(started_at DESC);
`

const (
	retentionRuns = 30 * 24 * time.Hour
	tracesPerRun  = 200
)

// SQLiteJournal implements ports.Journal on SQLite (pure Go, no CGo).
type SQLiteJournal struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteJournal opens (or creates) the database at path, applies the
// schema and prunes stale runs.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteJournal: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: apply schema: %w", err)
	}

	j := &SQLiteJournal{db: db}
	j.pruneOld(context.Background())
	return j, nil
}

// SaveTrade records an executed trade.
func (j *SQLiteJournal) SaveTrade(ctx context.Context, runID string, rec domain.TradeRecord, strategy, reason string, confidence int) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades (run_id, seq, symbol, side, qty, price, notional, day, tick, pnl, strategy, reason, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.ID, rec.Symbol, string(rec.Side), rec.Qty, rec.Price, rec.Notional,
		rec.Day, rec.Tick, rec.RealizedPnL, strategy, reason, confidence, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveTrade: %w", err)
	}
	return nil
}

// SaveTrace records one analysis cycle and prunes the run's trace tail.
func (j *SQLiteJournal) SaveTrace(ctx context.Context, runID string, trace domain.AnalysisTrace) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	action, symbol := "HOLD", ""
	if trace.Chosen != nil {
		action = string(trace.Chosen.Action)
		symbol = trace.Chosen.Symbol
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO traces (run_id, day, tick, position_score, action, symbol, confidence, strategy, reasoning, candidates, depth, nodes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, trace.Day, trace.Tick, trace.PositionScore, action, symbol,
		trace.Confidence, trace.Strategy, trace.Reasoning, len(trace.Candidates),
		trace.Depth, trace.Nodes, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveTrace: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		DELETE FROM traces WHERE run_id = ? AND id NOT IN (
			SELECT id FROM traces WHERE run_id = ? ORDER BY id DESC LIMIT ?
		)`, runID, runID, tracesPerRun)
	if err != nil {
		return fmt.Errorf("storage.SaveTrace: prune: %w", err)
	}
	return nil
}

// SaveRunSummary upserts the run's aggregate row.
func (j *SQLiteJournal) SaveRunSummary(ctx context.Context, s domain.RunSummary) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (id, mode, scenario, symbol, started_at, ended_at, ticks, days, final_value, return_pct, max_drawdown, sharpe, trades, win_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ended_at     = excluded.ended_at,
			ticks        = excluded.ticks,
			days         = excluded.days,
			final_value  = excluded.final_value,
			return_pct   = excluded.return_pct,
			max_drawdown = excluded.max_drawdown,
			sharpe       = excluded.sharpe,
			trades       = excluded.trades,
			win_rate     = excluded.win_rate`,
		s.ID, s.Mode, s.Scenario, s.Symbol, s.StartedAt.UTC(), s.EndedAt.UTC(),
		s.Ticks, s.Days, s.FinalValue, s.ReturnPct, s.MaxDrawdown, s.Sharpe,
		s.Trades, s.WinRate,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveRunSummary: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit run summaries, newest first.
func (j *SQLiteJournal) RecentRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, mode, COALESCE(scenario,''), COALESCE(symbol,''), started_at, COALESCE(ended_at, started_at),
		       ticks, days, final_value, return_pct, max_drawdown, sharpe, trades, win_rate
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentRuns: %w", err)
	}
	defer rows.Close()

	var out []domain.RunSummary
	for rows.Next() {
		var s domain.RunSummary
		if err := rows.Scan(&s.ID, &s.Mode, &s.Scenario, &s.Symbol, &s.StartedAt, &s.EndedAt,
			&s.Ticks, &s.Days, &s.FinalValue, &s.ReturnPct, &s.MaxDrawdown, &s.Sharpe,
			&s.Trades, &s.WinRate); err != nil {
			return nil, fmt.Errorf("storage.RecentRuns: scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// pruneOld drops runs past retention along with their trades and traces.
func (j *SQLiteJournal) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns)
	j.db.ExecContext(ctx, `DELETE FROM trades WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`, cutoff)
	j.db.ExecContext(ctx, `DELETE FROM traces WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`, cutoff)
	j.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff)
}

// Close closes the database.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
