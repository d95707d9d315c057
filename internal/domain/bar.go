package domain

import "time"

// Bar is one closed OHLCV period. Immutable once appended to history.
type Bar struct {
	Day    int
	Date   time.Time // set for replayed historical bars, zero for synthetic
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
