package models

import (
	"encoding/json"
	"math"
)

// IndicatorSet maps an indicator name ("SMA_50", "RSI", "MACD", "Signal",
// "UpperBand", "LowerBand") to a value column aligned with the source
// series, one entry per bar. Positions before a rolling window has filled
// carry NaN.
type IndicatorSet map[string][]float64

// RiskSnapshot is a derived view of one-day return risk, recomputed on
// demand and never stored.
type RiskSnapshot struct {
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	ValueAtRisk          float64 `json:"value_at_risk"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	ConfidenceLevel      float64 `json:"confidence_level"`
}

// SimulationResult holds simulated price trajectories. Values has shape
// [days][paths]: row i is simulated day i, column j is one path, row 0 is
// the anchor price for every path.
type SimulationResult struct {
	Symbol string  `json:"symbol"`
	Anchor float64 `json:"anchor"`
	Days   int     `json:"days"`
	Paths  int     `json:"paths"`
	Seed   int64   `json:"seed"`

	Values [][]float64 `json:"values"`
}

// PathQuantiles summarizes a simulation per day for lightweight charting.
type PathQuantiles struct {
	Low  []float64 `json:"low"`
	Mid  []float64 `json:"mid"`
	High []float64 `json:"high"`
}

// ChartFloat marshals NaN and infinities as JSON null so chart libraries
// render a gap instead of choking on non-finite numbers.
type ChartFloat float64

func (f ChartFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// ChartColumn converts a raw value column into its JSON-safe form.
func ChartColumn(in []float64) []ChartFloat {
	out := make([]ChartFloat, len(in))
	for i, v := range in {
		out[i] = ChartFloat(v)
	}
	return out
}
