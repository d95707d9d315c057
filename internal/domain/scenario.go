package domain

// Scenario is a named multiplier set applied uniformly to all instruments.
// Swapping it at runtime only affects ticks from that point forward.
type Scenario struct {
	Name           string
	Trend          float64 // scales intrinsic drift
	Volatility     float64 // scales intrinsic noise
	EventFrequency float64 // scales event spawn probability
}

// Built-in scenarios.
var (
	ScenarioCalm     = Scenario{Name: "calm", Trend: 0.3, Volatility: 0.5, EventFrequency: 0.4}
	ScenarioNormal   = Scenario{Name: "normal", Trend: 1.0, Volatility: 1.0, EventFrequency: 1.0}
	ScenarioVolatile = Scenario{Name: "volatile", Trend: 1.0, Volatility: 2.2, EventFrequency: 2.0}
	ScenarioBull     = Scenario{Name: "bull", Trend: 3.0, Volatility: 1.1, EventFrequency: 1.2}
	ScenarioBear     = Scenario{Name: "bear", Trend: -2.5, Volatility: 1.4, EventFrequency: 1.5}
)

// ScenarioByName resolves a scenario preset. Unknown names fall back to normal.
func ScenarioByName(name string) Scenario {
	switch name {
	case "calm":
		return ScenarioCalm
	case "volatile":
		return ScenarioVolatile
	case "bull":
		return ScenarioBull
	case "bear":
		return ScenarioBear
	default:
		return ScenarioNormal
	}
}
