package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"stockinsight/internal/domain/models"
	"stockinsight/internal/domain/repository"
	"stockinsight/pkg/cache"
	"stockinsight/pkg/config"
	applogger "stockinsight/pkg/logger"
)

type fakeMarket struct {
	mu       sync.Mutex
	series   map[string]models.PriceSeries
	errs     map[string]error
	barCalls map[string]int

	quote        models.Quote
	quoteCalls   int
	profile      models.CompanyProfile
	profileCalls int
}

var _ repository.MarketData = (*fakeMarket)(nil)

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		series:   make(map[string]models.PriceSeries),
		errs:     make(map[string]error),
		barCalls: make(map[string]int),
	}
}

func (m *fakeMarket) GetBars(ctx context.Context, symbol string, period repository.Period) (models.PriceSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.barCalls[symbol]++
	if err, ok := m.errs[symbol]; ok {
		return models.PriceSeries{}, err
	}
	s, ok := m.series[symbol]
	if !ok {
		return models.PriceSeries{}, fmt.Errorf("%s: %w", symbol, repository.ErrSymbolNotFound)
	}
	return s, nil
}

func (m *fakeMarket) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quoteCalls++
	return m.quote, nil
}

func (m *fakeMarket) GetProfile(ctx context.Context, symbol string) (models.CompanyProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profileCalls++
	return m.profile, nil
}

func (m *fakeMarket) bars(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.barCalls[symbol]
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

// barSeries builds n daily bars with alternating up and down closes so
// return-based math never degenerates.
func barSeries(symbol string, n int) models.PriceSeries {
	bars := make([]models.PriceBar, n)
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			price *= 1.01
		} else {
			price *= 0.995
		}
		bars[i] = models.PriceBar{
			Time:   day.AddDate(0, 0, i),
			Open:   price,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1000,
		}
	}
	return models.PriceSeries{Symbol: symbol, Bars: bars}
}

func newTestDashboard(t *testing.T, market repository.MarketData) (*Dashboard, *cache.MemoryCache) {
	t.Helper()
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { mem.Close() })
	d := NewDashboard(&config.Config{}, market, mem, nil, nil, testLogger(t))
	return d, mem
}

func TestChartComputesRequestedIndicators(t *testing.T) {
	market := newFakeMarket()
	market.series["AAPL"] = barSeries("AAPL", 40)
	d, _ := newTestDashboard(t, market)

	resp, err := d.Chart(context.Background(), models.ChartRequest{
		Symbol:     "aapl",
		Period:     "1y",
		Indicators: []string{"rsi"},
	})
	if err != nil {
		t.Fatalf("Chart: %v", err)
	}
	if resp.Symbol != "AAPL" {
		t.Errorf("symbol = %q, want AAPL", resp.Symbol)
	}
	if len(resp.Bars) != 40 {
		t.Errorf("bars = %d, want 40", len(resp.Bars))
	}
	if len(resp.Indicators) != 1 {
		t.Fatalf("indicator columns = %d, want 1", len(resp.Indicators))
	}
	col, ok := resp.Indicators["RSI"]
	if !ok {
		t.Fatalf("RSI column missing, got %v", keysOf(resp.Indicators))
	}
	if len(col) != 40 {
		t.Errorf("RSI length = %d, want 40", len(col))
	}
}

func TestChartDefaultsToAllIndicators(t *testing.T) {
	market := newFakeMarket()
	market.series["MSFT"] = barSeries("MSFT", 30)
	d, _ := newTestDashboard(t, market)

	resp, err := d.Chart(context.Background(), models.ChartRequest{Symbol: "MSFT", Period: "6mo"})
	if err != nil {
		t.Fatalf("Chart: %v", err)
	}
	// All five indicators; MACD and Bollinger contribute extra columns.
	for _, key := range []string{"SMA_50", "SMA_200", "RSI", "MACD", "Signal", "SMA_20", "UpperBand", "LowerBand"} {
		if _, ok := resp.Indicators[key]; !ok {
			t.Errorf("column %q missing", key)
		}
	}
}

func TestChartCachesBars(t *testing.T) {
	market := newFakeMarket()
	market.series["NVDA"] = barSeries("NVDA", 25)
	d, _ := newTestDashboard(t, market)

	for i := 0; i < 3; i++ {
		if _, err := d.Chart(context.Background(), models.ChartRequest{Symbol: "NVDA", Period: "1y"}); err != nil {
			t.Fatalf("Chart #%d: %v", i, err)
		}
	}
	if got := market.bars("NVDA"); got != 1 {
		t.Errorf("provider fetches = %d, want 1", got)
	}
}

func TestRiskSnapshot(t *testing.T) {
	market := newFakeMarket()
	market.series["AAPL"] = barSeries("AAPL", 120)
	d, _ := newTestDashboard(t, market)

	resp, err := d.Risk(context.Background(), models.RiskRequest{Symbol: "AAPL", Period: "1y"})
	if err != nil {
		t.Fatalf("Risk: %v", err)
	}
	if resp.Bars != 120 {
		t.Errorf("bars = %d, want 120", resp.Bars)
	}
	if resp.Risk.AnnualizedVolatility <= 0 {
		t.Errorf("volatility = %v, want > 0", resp.Risk.AnnualizedVolatility)
	}
	if resp.Risk.ValueAtRisk >= 0 {
		t.Errorf("VaR = %v, want < 0 for a 95%% left tail", resp.Risk.ValueAtRisk)
	}
}

func TestSimulateDeterministicWithSeed(t *testing.T) {
	market := newFakeMarket()
	market.series["AAPL"] = barSeries("AAPL", 60)
	d, _ := newTestDashboard(t, market)

	req := models.SimulateRequest{Symbol: "AAPL", Period: "1y", Paths: 8, Horizon: 5, Seed: 42}
	first, err := d.Simulate(context.Background(), req)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	second, err := d.Simulate(context.Background(), req)
	if err != nil {
		t.Fatalf("Simulate again: %v", err)
	}
	if first.Seed != 42 || second.Seed != 42 {
		t.Errorf("seeds = %d, %d, want 42 echoed", first.Seed, second.Seed)
	}
	if !reflect.DeepEqual(first.Values, second.Values) {
		t.Error("same seed produced different paths")
	}
	if len(first.Values) != 5 {
		t.Errorf("rows = %d, want one per horizon day", len(first.Values))
	}
	for j, v := range first.Values[0] {
		if v != first.Anchor {
			t.Fatalf("row 0 col %d = %v, want anchor %v", j, v, first.Anchor)
		}
	}
}

func TestSimulatePicksSeedWhenZero(t *testing.T) {
	market := newFakeMarket()
	market.series["AAPL"] = barSeries("AAPL", 60)
	d, _ := newTestDashboard(t, market)

	resp, err := d.Simulate(context.Background(), models.SimulateRequest{Symbol: "AAPL", Period: "1y", Paths: 4, Horizon: 3})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if resp.Seed == 0 {
		t.Error("seed = 0, want a server-chosen seed echoed back")
	}
}

func TestComparePartialFailure(t *testing.T) {
	market := newFakeMarket()
	market.series["AAPL"] = barSeries("AAPL", 20)
	market.errs["BAD"] = fmt.Errorf("BAD: %w", repository.ErrSymbolNotFound)
	d, _ := newTestDashboard(t, market)

	resp, err := d.Compare(context.Background(), models.CompareRequest{Symbols: []string{"AAPL", "BAD"}, Period: "1y"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(resp.Series) != 1 || resp.Series[0].Symbol != "AAPL" {
		t.Fatalf("series = %+v, want AAPL only", resp.Series)
	}
	if resp.Series[0].Values[0] != 1.0 {
		t.Errorf("first value = %v, want exactly 1.0", resp.Series[0].Values[0])
	}
	if _, ok := resp.Errors["BAD"]; !ok {
		t.Errorf("errors = %v, want BAD entry", resp.Errors)
	}
}

func TestCompareAllFail(t *testing.T) {
	market := newFakeMarket()
	market.errs["X"] = errors.New("boom")
	market.errs["Y"] = errors.New("boom")
	d, _ := newTestDashboard(t, market)

	_, err := d.Compare(context.Background(), models.CompareRequest{Symbols: []string{"X", "Y"}, Period: "1y"})
	if err == nil {
		t.Fatal("want error when every symbol fails")
	}
}

func TestCompareDeduplicatesSymbols(t *testing.T) {
	market := newFakeMarket()
	market.series["AAPL"] = barSeries("AAPL", 15)
	d, _ := newTestDashboard(t, market)

	resp, err := d.Compare(context.Background(), models.CompareRequest{Symbols: []string{"aapl", "AAPL", " aapl "}, Period: "1y"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(resp.Series) != 1 {
		t.Errorf("series = %d, want 1 after dedupe", len(resp.Series))
	}
}

func TestForecastDisabled(t *testing.T) {
	market := newFakeMarket()
	market.series["AAPL"] = barSeries("AAPL", 20)
	d, _ := newTestDashboard(t, market)

	_, err := d.Forecast(context.Background(), models.ForecastRequest{Symbol: "AAPL", Period: "1y", Horizon: 10})
	if !errors.Is(err, ErrFeatureDisabled) {
		t.Errorf("err = %v, want ErrFeatureDisabled", err)
	}
}

func TestSentimentDisabled(t *testing.T) {
	d, _ := newTestDashboard(t, newFakeMarket())

	_, err := d.Sentiment(context.Background(), models.SentimentRequest{Symbol: "AAPL"})
	if !errors.Is(err, ErrFeatureDisabled) {
		t.Errorf("err = %v, want ErrFeatureDisabled", err)
	}
}

func TestQuoteCached(t *testing.T) {
	market := newFakeMarket()
	market.quote = models.Quote{Symbol: "AAPL", Price: 190.5, Timestamp: time.Now().Unix()}
	d, _ := newTestDashboard(t, market)

	for i := 0; i < 2; i++ {
		q, err := d.Quote(context.Background(), "aapl")
		if err != nil {
			t.Fatalf("Quote #%d: %v", i, err)
		}
		if q.Price != 190.5 {
			t.Errorf("price = %v, want 190.5", q.Price)
		}
	}
	if market.quoteCalls != 1 {
		t.Errorf("provider calls = %d, want 1", market.quoteCalls)
	}
}

func TestWarmFillsBarsCache(t *testing.T) {
	market := newFakeMarket()
	market.series["AAPL"] = barSeries("AAPL", 30)
	market.quote = models.Quote{Symbol: "AAPL", Price: 190.5, Timestamp: time.Now().Unix()}
	market.profile = models.CompanyProfile{Symbol: "AAPL", Name: "Apple Inc."}
	d, _ := newTestDashboard(t, market)

	if err := d.Warm(context.Background(), "AAPL", repository.P1Y); err != nil {
		t.Fatalf("Warm: %v", err)
	}
	// A chart right after a warm pass must not refetch.
	if _, err := d.Chart(context.Background(), models.ChartRequest{Symbol: "AAPL", Period: "1y"}); err != nil {
		t.Fatalf("Chart: %v", err)
	}
	if got := market.bars("AAPL"); got != 1 {
		t.Errorf("provider fetches = %d, want 1", got)
	}
}

func keysOf(m map[string][]models.ChartFloat) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
