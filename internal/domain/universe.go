package domain

// DefaultUniverse returns the built-in synthetic instrument set.
// Volatility and drift are per-tick fractions of price.
func DefaultUniverse() []*Instrument {
	specs := []struct {
		symbol, name, sector string
		base, vol, drift     float64
	}{
		{"NVTK", "Novatek Systems", "tech", 180, 0.0042, 0.00022},
		{"QBIT", "QuantumBit Labs", "tech", 64, 0.0060, 0.00030},
		{"HELX", "Helix Biogen", "health", 92, 0.0048, 0.00012},
		{"SOLR", "Solaris Grid", "energy", 38, 0.0052, 0.00018},
		{"ATLB", "Atlantic Bancorp", "finance", 120, 0.0030, 0.00008},
		{"CRGO", "Cargolink Freight", "industrial", 55, 0.0036, 0.00006},
	}

	out := make([]*Instrument, 0, len(specs))
	for _, s := range specs {
		out = append(out, &Instrument{
			Symbol:       s.symbol,
			Name:         s.name,
			Sector:       s.sector,
			BasePrice:    s.base,
			Volatility:   s.vol,
			Drift:        s.drift,
			Price:        s.base,
			Open:         s.base,
			High:         s.base,
			Low:          s.base,
			Bid:          s.base,
			Ask:          s.base,
			EventVolMult: 1,
		})
	}
	return out
}
