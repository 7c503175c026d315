package quant

import (
	"fmt"
	"math"

	"stockinsight/internal/domain/models"
)

// TradingDaysPerYear is the annualization convention for daily bars.
const TradingDaysPerYear = 252

// LogReturns computes r_i = ln(close[i+1] / close[i]) over the series.
// The result has one element fewer than the series has bars. Fewer than
// two bars fails with ErrInsufficientData.
func LogReturns(series models.PriceSeries) ([]float64, error) {
	if series.Len() < 2 {
		return nil, fmt.Errorf("log returns %s: %w", series.Symbol, ErrInsufficientData)
	}
	closes := series.Closes()
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out = append(out, math.Log(closes[i]/closes[i-1]))
	}
	return out, nil
}

// PctReturns computes simple percentage returns close[i+1]/close[i] - 1.
// Display only: volatility, Sharpe, VaR and the simulator all run on log
// returns, never on these.
func PctReturns(series models.PriceSeries) ([]float64, error) {
	if series.Len() < 2 {
		return nil, fmt.Errorf("pct returns %s: %w", series.Symbol, ErrInsufficientData)
	}
	closes := series.Closes()
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out, nil
}

// AnnualizedVolatility scales the sample standard deviation of per-bar
// returns by the square root of the trading year.
func AnnualizedVolatility(returns []float64, tradingDays int) (float64, error) {
	if len(returns) < 2 {
		return 0, fmt.Errorf("annualized volatility: %w", ErrInsufficientData)
	}
	if tradingDays <= 0 {
		tradingDays = TradingDaysPerYear
	}
	return sampleStd(returns) * math.Sqrt(float64(tradingDays)), nil
}

// SharpeRatio is the annualized mean excess return divided by the return
// volatility. riskFreeRate is annual and is de-annualized per bar. A
// zero-variance return series fails with ErrDegenerateInput; no infinity
// sentinel is ever returned.
func SharpeRatio(returns []float64, tradingDays int, riskFreeRate float64) (float64, error) {
	if len(returns) < 2 {
		return 0, fmt.Errorf("sharpe ratio: %w", ErrInsufficientData)
	}
	if tradingDays <= 0 {
		tradingDays = TradingDaysPerYear
	}
	sd := sampleStd(returns)
	if sd == 0 {
		return 0, fmt.Errorf("sharpe ratio: zero return variance: %w", ErrDegenerateInput)
	}
	excess := mean(returns) - riskFreeRate/float64(tradingDays)
	return excess / sd * math.Sqrt(float64(tradingDays)), nil
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStd is the n-1 denominator standard deviation. Callers guarantee
// len(xs) >= 2.
func sampleStd(xs []float64) float64 {
	m := mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
