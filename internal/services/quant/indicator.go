package quant

import (
	"fmt"
	"math"

	"stockinsight/internal/domain/models"
)

// Kind selects one indicator overlay.
type Kind string

const (
	KindSMAShort  Kind = "sma_short"
	KindSMALong   Kind = "sma_long"
	KindRSI       Kind = "rsi"
	KindMACD      Kind = "macd"
	KindBollinger Kind = "bollinger"
)

// AllKinds lists every supported indicator in display order.
func AllKinds() []Kind {
	return []Kind{KindSMAShort, KindSMALong, KindRSI, KindMACD, KindBollinger}
}

// Params carries the rolling-window sizes for the indicator engine.
// Non-positive fields fall back to the conventional defaults.
type Params struct {
	SMAShortWindow int
	SMALongWindow  int
	RSIWindow      int
	MACDFast       int
	MACDSlow       int
	MACDSignal     int
	BollWindow     int
	BollK          float64
}

// DefaultParams returns the window sizes the dashboard ships with.
func DefaultParams() Params {
	return Params{
		SMAShortWindow: 50,
		SMALongWindow:  200,
		RSIWindow:      14,
		MACDFast:       12,
		MACDSlow:       26,
		MACDSignal:     9,
		BollWindow:     20,
		BollK:          2,
	}
}

// Normalize fills non-positive fields with defaults.
func (p Params) Normalize() Params {
	def := DefaultParams()
	if p.SMAShortWindow <= 0 {
		p.SMAShortWindow = def.SMAShortWindow
	}
	if p.SMALongWindow <= 0 {
		p.SMALongWindow = def.SMALongWindow
	}
	if p.RSIWindow <= 0 {
		p.RSIWindow = def.RSIWindow
	}
	if p.MACDFast <= 0 {
		p.MACDFast = def.MACDFast
	}
	if p.MACDSlow <= 0 {
		p.MACDSlow = def.MACDSlow
	}
	if p.MACDSignal <= 0 {
		p.MACDSignal = def.MACDSignal
	}
	if p.BollWindow <= 0 {
		p.BollWindow = def.BollWindow
	}
	if p.BollK <= 0 {
		p.BollK = def.BollK
	}
	return p
}

// Compute derives the requested indicator columns from the series. Every
// column aligns with the bars one to one; positions before a rolling
// window has filled are NaN. Only requested kinds are computed, and an
// empty request yields an empty set. A series with zero bars fails with
// ErrInsufficientData; a short series is not an error, it just yields
// NaN-leading columns.
func Compute(series models.PriceSeries, requested []Kind, p Params) (models.IndicatorSet, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("compute indicators %s: %w", series.Symbol, ErrInsufficientData)
	}
	p = p.Normalize()
	closes := series.Closes()
	out := make(models.IndicatorSet, len(requested)+2)
	for _, k := range requested {
		switch k {
		case KindSMAShort:
			out[SMAKey(p.SMAShortWindow)] = SMA(closes, p.SMAShortWindow)
		case KindSMALong:
			out[SMAKey(p.SMALongWindow)] = SMA(closes, p.SMALongWindow)
		case KindRSI:
			out["RSI"] = RSI(closes, p.RSIWindow)
		case KindMACD:
			line, signal := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
			out["MACD"] = line
			out["Signal"] = signal
		case KindBollinger:
			mid, upper, lower := Bollinger(closes, p.BollWindow, p.BollK)
			out[SMAKey(p.BollWindow)] = mid
			out["UpperBand"] = upper
			out["LowerBand"] = lower
		default:
			return nil, fmt.Errorf("indicator %q: %w", string(k), ErrInvalidParameter)
		}
	}
	return out, nil
}

// SMAKey names an SMA column by its window, e.g. "SMA_50".
func SMAKey(window int) string { return fmt.Sprintf("SMA_%d", window) }

// SMA returns the trailing arithmetic mean over the last window values
// inclusive of the current one. The first window-1 entries are NaN.
func SMA(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(window)
	}
	return out
}

// RSI returns the Relative Strength Index using trailing simple means of
// gains and losses over window deltas. The first window entries are NaN.
// When the loss average is zero the oscillator saturates at exactly 100
// instead of dividing by zero.
func RSI(closes []float64, window int) []float64 {
	out := nanSlice(len(closes))
	if window <= 0 {
		return out
	}
	for i := window; i < len(closes); i++ {
		gains := 0.0
		losses := 0.0
		for j := i - window + 1; j <= i; j++ {
			delta := closes[j] - closes[j-1]
			if delta > 0 {
				gains += delta
			} else {
				losses -= delta
			}
		}
		avgGain := gains / float64(window)
		avgLoss := losses / float64(window)
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// EMA returns the exponential moving average with smoothing 2/(span+1):
// ema[0] = x[0], ema[i] = alpha*x[i] + (1-alpha)*ema[i-1]. Every index is
// defined, there is no warm-up gap.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	if span < 1 {
		span = 1
	}
	alpha := 2.0 / (float64(span) + 1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		prev := out[i-1]
		out[i] = prev + alpha*(values[i]-prev)
	}
	return out
}

// MACD returns the MACD line (fast EMA minus slow EMA) and its signal
// line (EMA of the MACD line over signalSpan).
func MACD(closes []float64, fast, slow, signalSpan int) (line, signal []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	line = make([]float64, len(closes))
	for i := range line {
		line[i] = emaFast[i] - emaSlow[i]
	}
	signal = EMA(line, signalSpan)
	return line, signal
}

// Bollinger returns the middle band (trailing SMA) with upper and lower
// bands at plus and minus k sample standard deviations over the window.
func Bollinger(closes []float64, window int, k float64) (mid, upper, lower []float64) {
	mid = SMA(closes, window)
	std := rollingStd(closes, window)
	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))
	for i := range closes {
		if math.IsNaN(mid[i]) || math.IsNaN(std[i]) {
			continue
		}
		upper[i] = mid[i] + k*std[i]
		lower[i] = mid[i] - k*std[i]
	}
	return mid, upper, lower
}

// rollingStd computes the trailing sample standard deviation per index.
func rollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 1 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}
		m := sum / float64(window)
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - m
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
