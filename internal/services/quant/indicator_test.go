package quant

import (
	"errors"
	"math"
	"testing"
	"time"

	"stockinsight/internal/domain/models"
)

func mkSeries(sym string, closes ...float64) models.PriceSeries {
	bars := make([]models.PriceBar, len(closes))
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.PriceBar{Time: base.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return models.PriceSeries{Symbol: sym, Bars: bars}
}

func linearCloses(start float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

func TestSMALengthAndWarmup(t *testing.T) {
	vals := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3.5}
	w := 4
	got := SMA(vals, w)
	if len(got) != len(vals) {
		t.Fatalf("len = %d, want %d", len(got), len(vals))
	}
	for i := 0; i < w-1; i++ {
		if !math.IsNaN(got[i]) {
			t.Fatalf("index %d = %v, want NaN", i, got[i])
		}
	}
	for i := w - 1; i < len(vals); i++ {
		sum := 0.0
		for j := i - w + 1; j <= i; j++ {
			sum += vals[j]
		}
		want := sum / float64(w)
		if got[i] != want {
			t.Fatalf("index %d = %v, want %v", i, got[i], want)
		}
	}
}

func TestSMAShorterThanWindow(t *testing.T) {
	got := SMA([]float64{1, 2, 3}, 10)
	for i, v := range got {
		if !math.IsNaN(v) {
			t.Fatalf("index %d = %v, want NaN", i, v)
		}
	}
}

func TestRSIWithinBounds(t *testing.T) {
	vals := []float64{44, 44.5, 43.8, 44.2, 45, 46.1, 45.5, 44.9, 45.3, 46, 47.2, 46.8, 46.5, 47, 47.5, 46.9, 46.2, 46.7, 47.1, 48}
	got := RSI(vals, 14)
	for i, v := range got {
		if math.IsNaN(v) {
			if i >= 14 {
				t.Fatalf("index %d unexpectedly NaN", i)
			}
			continue
		}
		if v < 0 || v > 100 {
			t.Fatalf("index %d = %v, outside [0,100]", i, v)
		}
	}
}

func TestRSIAllGainsIsExactly100(t *testing.T) {
	// 30 bars rising one unit per bar: every delta is a gain.
	vals := linearCloses(100, 30)
	got := RSI(vals, 14)
	for i := 0; i < 14; i++ {
		if !math.IsNaN(got[i]) {
			t.Fatalf("index %d = %v, want NaN warm-up", i, got[i])
		}
	}
	if got[29] != 100 {
		t.Fatalf("RSI[29] = %v, want exactly 100", got[29])
	}
}

func TestRSIFlatSeriesSaturates(t *testing.T) {
	vals := make([]float64, 20)
	for i := range vals {
		vals[i] = 50
	}
	got := RSI(vals, 14)
	if got[19] != 100 {
		t.Fatalf("RSI[19] = %v, want 100 (zero loss average)", got[19])
	}
}

func TestEMAConstantFixedPoint(t *testing.T) {
	vals := make([]float64, 50)
	for i := range vals {
		vals[i] = 42.5
	}
	for _, span := range []int{1, 9, 12, 26} {
		got := EMA(vals, span)
		for i, v := range got {
			if v != 42.5 {
				t.Fatalf("span %d index %d = %v, want exactly 42.5", span, i, v)
			}
		}
	}
}

func TestEMADefinedFromIndexZero(t *testing.T) {
	vals := []float64{10, 11, 12}
	got := EMA(vals, 12)
	if got[0] != vals[0] {
		t.Fatalf("EMA[0] = %v, want %v", got[0], vals[0])
	}
	for i, v := range got {
		if math.IsNaN(v) {
			t.Fatalf("index %d is NaN, EMA has no warm-up gap", i)
		}
	}
}

func TestMACDIsEMADifference(t *testing.T) {
	vals := []float64{50, 51, 49.5, 52, 53.1, 52.4, 54, 55.5, 54.8, 56, 57.2, 56.1, 58, 59, 58.3, 60}
	line, signal := MACD(vals, 12, 26, 9)
	fast := EMA(vals, 12)
	slow := EMA(vals, 26)
	for i := range vals {
		if line[i] != fast[i]-slow[i] {
			t.Fatalf("MACD[%d] = %v, want %v", i, line[i], fast[i]-slow[i])
		}
	}
	wantSignal := EMA(line, 9)
	for i := range vals {
		if signal[i] != wantSignal[i] {
			t.Fatalf("Signal[%d] = %v, want %v", i, signal[i], wantSignal[i])
		}
	}
}

func TestBollingerBandOrdering(t *testing.T) {
	vals := []float64{20, 21, 19.5, 22, 23, 22.5, 24, 25, 24.2, 26, 25.5, 27, 26.8, 28, 27.5, 29, 28.4, 30, 29.6, 31, 30.2, 32}
	mid, upper, lower := Bollinger(vals, 20, 2)
	for i := range vals {
		if math.IsNaN(mid[i]) {
			if i >= 19 {
				t.Fatalf("index %d unexpectedly NaN", i)
			}
			continue
		}
		if !(upper[i] >= mid[i] && mid[i] >= lower[i]) {
			t.Fatalf("index %d: upper %v mid %v lower %v out of order", i, upper[i], mid[i], lower[i])
		}
		if upper[i] == lower[i] {
			t.Fatalf("index %d: bands collapsed on non-constant input", i)
		}
	}
}

func TestBollingerConstantSeriesCollapses(t *testing.T) {
	vals := make([]float64, 20)
	for i := range vals {
		vals[i] = 50.0
	}
	mid, upper, lower := Bollinger(vals, 20, 2)
	if mid[19] != 50.0 || upper[19] != 50.0 || lower[19] != 50.0 {
		t.Fatalf("constant series: mid %v upper %v lower %v, want all exactly 50.0", mid[19], upper[19], lower[19])
	}
}

func TestComputeZeroBarsFails(t *testing.T) {
	_, err := Compute(models.PriceSeries{Symbol: "AAPL"}, []Kind{KindRSI}, DefaultParams())
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestComputeOnlyRequested(t *testing.T) {
	s := mkSeries("AAPL", linearCloses(100, 40)...)
	got, err := Compute(s, []Kind{KindRSI}, DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d columns, want 1", len(got))
	}
	if _, ok := got["RSI"]; !ok {
		t.Fatalf("missing RSI column, got %v", got)
	}
}

func TestComputeAllColumns(t *testing.T) {
	s := mkSeries("AAPL", linearCloses(100, 60)...)
	got, err := Compute(s, AllKinds(), DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, key := range []string{"SMA_50", "SMA_200", "RSI", "MACD", "Signal", "SMA_20", "UpperBand", "LowerBand"} {
		col, ok := got[key]
		if !ok {
			t.Fatalf("missing column %s", key)
		}
		if len(col) != s.Len() {
			t.Fatalf("column %s len %d, want %d", key, len(col), s.Len())
		}
	}
}

func TestComputeUnknownKind(t *testing.T) {
	s := mkSeries("AAPL", 100, 101)
	_, err := Compute(s, []Kind{Kind("vwap")}, DefaultParams())
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("err = %v, want ErrInvalidParameter", err)
	}
}

func TestParamsNormalizeDefaults(t *testing.T) {
	p := Params{}.Normalize()
	def := DefaultParams()
	if p != def {
		t.Fatalf("normalized zero params = %+v, want %+v", p, def)
	}
	p = Params{RSIWindow: 7}.Normalize()
	if p.RSIWindow != 7 || p.MACDFast != def.MACDFast {
		t.Fatalf("partial override broken: %+v", p)
	}
}
