package models

import "time"

// PriceBar is one OHLCV record at daily (or coarser) resolution.
type PriceBar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume uint64    `json:"volume"`
}

// PriceSeries is a time-ordered bar sequence for a single symbol.
// Bars are oldest first with strictly increasing timestamps; consumers
// treat the series as read-only once built.
type PriceSeries struct {
	Symbol string     `json:"symbol"`
	Bars   []PriceBar `json:"bars"`
}

func (s PriceSeries) Len() int { return len(s.Bars) }

// Closes returns the close column in bar order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i := range s.Bars {
		out[i] = s.Bars[i].Close
	}
	return out
}

// LastClose returns the most recent close, or 0 for an empty series.
func (s PriceSeries) LastClose() float64 {
	if len(s.Bars) == 0 {
		return 0
	}
	return s.Bars[len(s.Bars)-1].Close
}

// Timestamps returns the bar timestamps in order.
func (s PriceSeries) Timestamps() []time.Time {
	out := make([]time.Time, len(s.Bars))
	for i := range s.Bars {
		out[i] = s.Bars[i].Time
	}
	return out
}

// SeriesPoint is a dated scalar observation, the shape shared with the
// forecasting collaborator and with simple line charts.
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ClosePoints projects the series onto (date, close) observations.
func (s PriceSeries) ClosePoints() []SeriesPoint {
	out := make([]SeriesPoint, len(s.Bars))
	for i := range s.Bars {
		out[i] = SeriesPoint{Date: s.Bars[i].Time, Value: s.Bars[i].Close}
	}
	return out
}

// Quote is a realtime trade print from the streaming provider.
type Quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
	// Timestamp is unix seconds of the trade.
	Timestamp int64 `json:"timestamp"`
}
