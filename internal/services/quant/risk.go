package quant

import (
	"fmt"
	"math"

	"stockinsight/internal/domain/models"
)

// ParametricVaR estimates the one-day loss quantile assuming normally
// distributed returns: mu + sigma * z(1-confidence), where z is the
// standard normal quantile. The result is a signed fractional return,
// typically negative. Gaussian VaR understates tail risk on fat-tailed
// return distributions; that model choice is intentional and callers
// should label the figure accordingly.
func ParametricVaR(returns []float64, confidence float64) (float64, error) {
	if !(confidence > 0 && confidence < 1) {
		return 0, fmt.Errorf("confidence %v outside (0,1): %w", confidence, ErrInvalidParameter)
	}
	if len(returns) < 2 {
		return 0, fmt.Errorf("parametric var: %w", ErrInsufficientData)
	}
	mu := mean(returns)
	sigma := sampleStd(returns)
	return mu + sigma*normQuantile(1-confidence), nil
}

// ComputeRisk assembles the full risk snapshot for a daily return series.
func ComputeRisk(returns []float64, confidence float64, tradingDays int, riskFreeRate float64) (models.RiskSnapshot, error) {
	var snap models.RiskSnapshot
	vaR, err := ParametricVaR(returns, confidence)
	if err != nil {
		return snap, err
	}
	vol, err := AnnualizedVolatility(returns, tradingDays)
	if err != nil {
		return snap, err
	}
	sharpe, err := SharpeRatio(returns, tradingDays, riskFreeRate)
	if err != nil {
		return snap, err
	}
	snap = models.RiskSnapshot{
		AnnualizedVolatility: vol,
		ValueAtRisk:          vaR,
		SharpeRatio:          sharpe,
		ConfidenceLevel:      confidence,
	}
	return snap, nil
}

// normQuantile is the standard normal inverse CDF at p in (0,1).
func normQuantile(p float64) float64 {
	return math.Sqrt2 * math.Erfinv(2*p-1)
}
