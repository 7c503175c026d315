package models

// Responses for dashboard HTTP endpoints.

// ChartResponse carries the bar series plus the requested indicator
// columns. Indicator columns align index-for-index with Bars; warm-up
// positions serialize as null.
type ChartResponse struct {
	Symbol     string                  `json:"symbol"`
	Period     string                  `json:"period"`
	Bars       []PriceBar              `json:"bars"`
	Indicators map[string][]ChartFloat `json:"indicators"`
}

// RiskResponse wraps a risk snapshot with its request context.
type RiskResponse struct {
	Symbol string       `json:"symbol"`
	Period string       `json:"period"`
	Bars   int          `json:"bars"`
	Risk   RiskSnapshot `json:"risk"`
}

// SimulateResponse returns the full path matrix plus per-day quantile
// bands for lightweight rendering.
type SimulateResponse struct {
	Symbol    string        `json:"symbol"`
	Period    string        `json:"period"`
	Anchor    float64       `json:"anchor"`
	Days      int           `json:"days"`
	Paths     int           `json:"paths"`
	Seed      int64         `json:"seed"`
	Quantiles PathQuantiles `json:"quantiles"`
	Values    [][]float64   `json:"values"`
}

// CompareEntry is one ticker's rebased close series. Dates are the
// ticker's own trading days; series are not aligned across tickers.
type CompareEntry struct {
	Symbol string    `json:"symbol"`
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
}

// CompareResponse carries one entry per resolved ticker. Tickers that
// failed to resolve are reported in Errors instead of failing the whole
// request.
type CompareResponse struct {
	Period string            `json:"period"`
	Series []CompareEntry    `json:"series"`
	Errors map[string]string `json:"errors,omitempty"`
}
