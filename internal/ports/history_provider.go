package ports

import (
	"context"

	"github.com/alejandrodnm/simtrader/internal/domain"
)

// HistoryProvider fetches historical OHLCV series for the replay driver.
type HistoryProvider interface {
	// FetchHistory returns the ordered daily bars for symbol over the given
	// range (e.g. "1y") and interval (e.g. "1d"), plus series metadata.
	FetchHistory(ctx context.Context, symbol, rng, interval string) (*domain.HistorySeries, error)
}

// SymbolSearcher resolves free-text queries to tradeable symbols.
type SymbolSearcher interface {
	SearchSymbols(ctx context.Context, query string) ([]domain.SymbolMatch, error)
}
