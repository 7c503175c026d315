package marketdata

import (
	"errors"
	"testing"
	"time"

	"stockinsight/internal/domain/repository"
	applogger "stockinsight/pkg/logger"
)

func f(v float64) *float64 { return &v }
func i64(v int64) *int64   { return &v }

func mkResult(timestamps []int64, closes []*float64) *chartResult {
	r := &chartResult{Timestamp: timestamps}
	r.Indicators.Quote = make([]struct {
		Open   []*float64 `json:"open"`
		High   []*float64 `json:"high"`
		Low    []*float64 `json:"low"`
		Close  []*float64 `json:"close"`
		Volume []*int64   `json:"volume"`
	}, 1)
	r.Indicators.Quote[0].Close = closes
	r.Indicators.Quote[0].Open = make([]*float64, len(closes))
	r.Indicators.Quote[0].High = make([]*float64, len(closes))
	r.Indicators.Quote[0].Low = make([]*float64, len(closes))
	r.Indicators.Quote[0].Volume = make([]*int64, len(closes))
	return r
}

func TestMapChartSkipsNullCloses(t *testing.T) {
	day := int64(86400)
	r := mkResult(
		[]int64{1700000000, 1700000000 + day, 1700000000 + 2*day},
		[]*float64{f(101), nil, f(103)},
	)

	series, err := mapChart("AAPL", r)
	if err != nil {
		t.Fatalf("mapChart: %v", err)
	}
	if len(series.Bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(series.Bars))
	}
	if series.Bars[0].Close != 101 || series.Bars[1].Close != 103 {
		t.Errorf("unexpected closes %v %v", series.Bars[0].Close, series.Bars[1].Close)
	}
}

func TestMapChartSortsByTime(t *testing.T) {
	day := int64(86400)
	r := mkResult(
		[]int64{1700000000 + 2*day, 1700000000, 1700000000 + day},
		[]*float64{f(3), f(1), f(2)},
	)

	series, err := mapChart("AAPL", r)
	if err != nil {
		t.Fatalf("mapChart: %v", err)
	}
	for i := 1; i < len(series.Bars); i++ {
		if !series.Bars[i-1].Time.Before(series.Bars[i].Time) {
			t.Fatalf("bars out of order at %d", i)
		}
	}
	if series.Bars[0].Close != 1 || series.Bars[2].Close != 3 {
		t.Errorf("values did not follow timestamps: %v", series.Closes())
	}
}

func TestMapChartTruncatesToDay(t *testing.T) {
	// 2023-11-14 14:30 UTC session open
	ts := time.Date(2023, 11, 14, 14, 30, 0, 0, time.UTC).Unix()
	r := mkResult([]int64{ts}, []*float64{f(100)})

	series, err := mapChart("AAPL", r)
	if err != nil {
		t.Fatalf("mapChart: %v", err)
	}
	got := series.Bars[0].Time
	want := time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMapChartVolume(t *testing.T) {
	r := mkResult([]int64{1700000000}, []*float64{f(100)})
	r.Indicators.Quote[0].Volume[0] = i64(123456)

	series, err := mapChart("AAPL", r)
	if err != nil {
		t.Fatalf("mapChart: %v", err)
	}
	if series.Bars[0].Volume != 123456 {
		t.Errorf("got volume %d, want 123456", series.Bars[0].Volume)
	}
}

func TestMapChartAllNull(t *testing.T) {
	r := mkResult([]int64{1700000000, 1700086400}, []*float64{nil, nil})
	if _, err := mapChart("AAPL", r); err == nil {
		t.Fatal("expected error for all-null chart")
	}
}

func TestMapQuotePrefersMeta(t *testing.T) {
	r := mkResult([]int64{1700000000}, []*float64{f(100)})
	r.Meta.RegularMarketPrice = 187.25
	r.Meta.RegularMarketTime = 1700000123

	q, err := mapQuote("AAPL", r)
	if err != nil {
		t.Fatalf("mapQuote: %v", err)
	}
	if q.Price != 187.25 {
		t.Errorf("got price %v, want meta price", q.Price)
	}
	if q.Timestamp != 1700000123 {
		t.Errorf("got ts %v, want meta ts", q.Timestamp)
	}
}

func TestMapQuoteFallsBackToLastBar(t *testing.T) {
	day := int64(86400)
	r := mkResult([]int64{1700000000, 1700000000 + day}, []*float64{f(100), f(105)})

	q, err := mapQuote("AAPL", r)
	if err != nil {
		t.Fatalf("mapQuote: %v", err)
	}
	if q.Price != 105 {
		t.Errorf("got price %v, want last close 105", q.Price)
	}
}

func TestAPIErrorNotFound(t *testing.T) {
	l, _ := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	p := &YahooProvider{log: l, hosts: defaultHosts}

	err := p.apiError("NOPE", &apiError{Code: "Not Found", Description: "No data found"})
	if !errors.Is(err, repository.ErrSymbolNotFound) {
		t.Fatalf("got %v, want ErrSymbolNotFound", err)
	}

	err = p.apiError("AAPL", &apiError{Code: "Bad Request", Description: "bad range"})
	if errors.Is(err, repository.ErrSymbolNotFound) {
		t.Fatal("generic upstream error mapped to not-found")
	}
}
