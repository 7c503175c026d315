package models

import "time"

// CompanyProfile carries descriptive fields shown on the dashboard header.
// Display only, the analytics engine never reads it.
type CompanyProfile struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Sector    string  `json:"sector"`
	Industry  string  `json:"industry"`
	Summary   string  `json:"summary"`
	MarketCap float64 `json:"market_cap"`
	Website   string  `json:"website"`
}

// ForecastPoint is one forecasted date with its uncertainty band.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// Forecast is the opaque output of the external forecasting service.
type Forecast struct {
	Symbol  string          `json:"symbol"`
	Horizon int             `json:"horizon_days"`
	Model   string          `json:"model"`
	Points  []ForecastPoint `json:"points"`
}

// SentimentSnapshot is the latest social-sentiment reading for a symbol.
// Score runs -1 bearish to +1 bullish; Change is the score delta since the
// previous reading. Sources breaks the score down per message source.
type SentimentSnapshot struct {
	Symbol    string             `json:"symbol"`
	Score     float64            `json:"score"`
	Change    float64            `json:"change"`
	Positive  float64            `json:"positive"`
	Neutral   float64            `json:"neutral"`
	Negative  float64            `json:"negative"`
	Sources   map[string]float64 `json:"sources,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}
