package quant

import (
	"errors"
	"math"
	"testing"
)

func TestParametricVaRMonotonicInConfidence(t *testing.T) {
	returns := []float64{0.012, -0.008, 0.004, -0.015, 0.009, 0.002, -0.006, 0.011, -0.003, 0.007}
	v90, err := ParametricVaR(returns, 0.90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v95, err := ParametricVaR(returns, 0.95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v99, err := ParametricVaR(returns, 0.99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !(v99 <= v95 && v95 <= v90) {
		t.Fatalf("VaR not monotone: v99=%v v95=%v v90=%v", v99, v95, v90)
	}
}

func TestParametricVaRKnownQuantile(t *testing.T) {
	// Symmetric returns: mu = 0, sigma = sqrt(0.0002). VaR at 95% is
	// sigma times the 5% normal quantile.
	returns := []float64{-0.01, 0.01}
	got, err := ParametricVaR(returns, 0.95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := math.Sqrt(0.0002) * -1.6448536269514722
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("VaR = %v, want %v", got, want)
	}
	if got >= 0 {
		t.Fatalf("VaR = %v, want negative loss quantile", got)
	}
}

func TestParametricVaRInvalidConfidence(t *testing.T) {
	returns := []float64{-0.01, 0.01, 0.002}
	for _, c := range []float64{0, 1, -0.5, 1.5, math.NaN()} {
		if _, err := ParametricVaR(returns, c); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("confidence %v: err = %v, want ErrInvalidParameter", c, err)
		}
	}
}

func TestParametricVaRInsufficient(t *testing.T) {
	if _, err := ParametricVaR([]float64{0.01}, 0.95); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestComputeRiskSnapshot(t *testing.T) {
	returns := []float64{0.012, -0.008, 0.004, -0.015, 0.009}
	snap, err := ComputeRisk(returns, 0.95, 252, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.ConfidenceLevel != 0.95 {
		t.Fatalf("confidence = %v, want 0.95", snap.ConfidenceLevel)
	}
	if snap.AnnualizedVolatility <= 0 {
		t.Fatalf("volatility = %v, want positive", snap.AnnualizedVolatility)
	}
	if snap.ValueAtRisk >= 0 {
		t.Fatalf("VaR = %v, want negative for this distribution", snap.ValueAtRisk)
	}
}

func TestComputeRiskPropagatesInvalidConfidence(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.02}
	if _, err := ComputeRisk(returns, 1.2, 252, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("err = %v, want ErrInvalidParameter", err)
	}
}

func TestComputeRiskDegenerate(t *testing.T) {
	flat := []float64{0.005, 0.005, 0.005}
	if _, err := ComputeRisk(flat, 0.95, 252, 0); !errors.Is(err, ErrDegenerateInput) {
		t.Fatalf("err = %v, want ErrDegenerateInput", err)
	}
}
