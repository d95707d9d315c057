package domain

import "fmt"

// EventType classifies a market event.
type EventType string

const (
	EventEarningsBeat EventType = "EARNINGS_BEAT"
	EventEarningsMiss EventType = "EARNINGS_MISS"
	EventSectorRally  EventType = "SECTOR_RALLY"
	EventSectorSell   EventType = "SECTOR_SELLOFF"
	EventRegulation   EventType = "REGULATION"
	EventOutage       EventType = "OUTAGE"
	EventUpgrade      EventType = "ANALYST_UPGRADE"
	EventDowngrade    EventType = "ANALYST_DOWNGRADE"
)

// EventTemplate describes the effect envelope of one event type.
// Magnitude is drawn uniformly from [MinEffect, MaxEffect], duration from
// [MinTicks, MaxTicks].
type EventTemplate struct {
	Type      EventType
	Headline  string // fmt pattern with one %s for the instrument name
	MinEffect float64
	MaxEffect float64
	VolMult   float64
	MinTicks  int
	MaxTicks  int
}

// EventTemplates is the built-in catalogue the simulator draws from.
var EventTemplates = []EventTemplate{
	{EventEarningsBeat, "%s beats earnings expectations", 0.010, 0.035, 1.6, 10, 30},
	{EventEarningsMiss, "%s misses earnings expectations", -0.035, -0.010, 1.8, 10, 30},
	{EventSectorRally, "Sector momentum lifts %s", 0.005, 0.020, 1.3, 15, 40},
	{EventSectorSell, "Sector rotation hits %s", -0.020, -0.005, 1.4, 15, 40},
	{EventRegulation, "Regulators open inquiry into %s", -0.030, -0.008, 1.7, 20, 50},
	{EventOutage, "%s reports service outage", -0.025, -0.006, 1.5, 5, 20},
	{EventUpgrade, "Analysts upgrade %s to buy", 0.006, 0.022, 1.2, 10, 35},
	{EventDowngrade, "Analysts cut %s to underweight", -0.022, -0.006, 1.2, 10, 35},
}

// MarketEvent is one active event affecting a single instrument.
// Effect decays linearly over Duration ticks, then clears.
type MarketEvent struct {
	ID        string
	Type      EventType
	Symbol    string
	Text      string
	Magnitude float64
	Day       int
	Tick      int
	Duration  int
	TicksLeft int
}

// Bullish reports whether the event pushes the price upward.
func (e MarketEvent) Bullish() bool {
	return e.Magnitude > 0
}

func (e MarketEvent) String() string {
	return fmt.Sprintf("%s %s (%.2f%%, %d ticks)", e.Type, e.Symbol, e.Magnitude*100, e.Duration)
}
