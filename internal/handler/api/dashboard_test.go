package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"stockinsight/internal/domain/models"
	"stockinsight/internal/domain/repository"
	"stockinsight/internal/usecase"
	"stockinsight/pkg/cache"
	"stockinsight/pkg/config"
	applogger "stockinsight/pkg/logger"
)

type fakeMarket struct {
	mu     sync.Mutex
	series map[string]models.PriceSeries
	errs   map[string]error
	quote  models.Quote
}

var _ repository.MarketData = (*fakeMarket)(nil)

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		series: make(map[string]models.PriceSeries),
		errs:   make(map[string]error),
	}
}

func (m *fakeMarket) GetBars(ctx context.Context, symbol string, period repository.Period) (models.PriceSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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
	return m.quote, nil
}

func (m *fakeMarket) GetProfile(ctx context.Context, symbol string) (models.CompanyProfile, error) {
	return models.CompanyProfile{Symbol: symbol, Name: "Test Corp"}, nil
}

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

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestServer(t *testing.T) (*echo.Echo, *fakeMarket) {
	t.Helper()
	market := newFakeMarket()
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { mem.Close() })
	log := testLogger(t)
	dash := usecase.NewDashboard(&config.Config{}, market, mem, nil, nil, log)
	h := NewDashboardHandler(log, dash, nil)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, market
}

// envelope mirrors the response body shape so tests can decode Data
// per endpoint.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doGet(t *testing.T, e *echo.Echo, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	// Errors ride in the envelope; the transport status stays 200.
	if rec.Code != http.StatusOK {
		t.Fatalf("http status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t)
	_, env := doGet(t, e, "/health")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", env.Status)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data["status"] != "ok" {
		t.Errorf("health status = %v, want ok", data["status"])
	}
}

func TestChartEndpoint(t *testing.T) {
	e, market := newTestServer(t)
	market.series["AAPL"] = barSeries("AAPL", 260)

	rec, env := doGet(t, e, "/api/chart?symbol=aapl&period=1y&indicators=rsi")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (message %q)", env.Status, env.Message)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=60" {
		t.Errorf("Cache-Control = %q, want public, max-age=60", cc)
	}

	var chart models.ChartResponse
	if err := json.Unmarshal(env.Data, &chart); err != nil {
		t.Fatalf("decode chart: %v", err)
	}
	if chart.Symbol != "AAPL" {
		t.Errorf("symbol = %q, want AAPL", chart.Symbol)
	}
	col, ok := chart.Indicators["RSI"]
	if !ok {
		t.Fatalf("indicators missing RSI, got %v", keysOf(chart.Indicators))
	}
	if len(col) != len(chart.Bars) {
		t.Errorf("RSI length = %d, bars = %d", len(col), len(chart.Bars))
	}
}

func keysOf(m map[string][]models.ChartFloat) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestChartMissingSymbol(t *testing.T) {
	e, _ := newTestServer(t)
	_, env := doGet(t, e, "/api/chart")
	if env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", env.Status)
	}
}

func TestChartUnknownSymbol(t *testing.T) {
	e, market := newTestServer(t)
	market.errs["NOPE"] = fmt.Errorf("NOPE: %w", repository.ErrSymbolNotFound)

	_, env := doGet(t, e, "/api/chart?symbol=NOPE")
	if env.Status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", env.Status)
	}
	var appErrs []struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(env.Data, &appErrs); err != nil {
		t.Fatalf("decode errors: %v", err)
	}
	if len(appErrs) != 1 || appErrs[0].Code != "ERR_NOT_FOUND" {
		t.Errorf("errors = %+v, want single ERR_NOT_FOUND", appErrs)
	}
}

func TestRiskShortSeries(t *testing.T) {
	e, market := newTestServer(t)
	market.series["TINY"] = barSeries("TINY", 1)

	_, env := doGet(t, e, "/api/risk?symbol=TINY")
	if env.Status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", env.Status)
	}
}

func TestForecastDisabled(t *testing.T) {
	e, market := newTestServer(t)
	market.series["AAPL"] = barSeries("AAPL", 260)

	_, env := doGet(t, e, "/api/forecast?symbol=AAPL")
	if env.Status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", env.Status)
	}
}

func TestSimulateNoStore(t *testing.T) {
	e, market := newTestServer(t)
	market.series["AAPL"] = barSeries("AAPL", 260)

	rec, env := doGet(t, e, "/api/simulate?symbol=AAPL&paths=50&horizon=10&seed=7")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (message %q)", env.Status, env.Message)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}
	var sim models.SimulateResponse
	if err := json.Unmarshal(env.Data, &sim); err != nil {
		t.Fatalf("decode simulate: %v", err)
	}
	if sim.Paths != 50 || sim.Days != 10 {
		t.Errorf("paths/days = %d/%d, want 50/10", sim.Paths, sim.Days)
	}
}

func TestCompareCommaSeparated(t *testing.T) {
	e, market := newTestServer(t)
	market.series["AAPL"] = barSeries("AAPL", 260)
	market.series["MSFT"] = barSeries("MSFT", 260)

	_, env := doGet(t, e, "/api/compare?symbols=AAPL,MSFT&period=1y")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (message %q)", env.Status, env.Message)
	}
	var cmp models.CompareResponse
	if err := json.Unmarshal(env.Data, &cmp); err != nil {
		t.Fatalf("decode compare: %v", err)
	}
	if len(cmp.Series) != 2 {
		t.Fatalf("series count = %d, want 2", len(cmp.Series))
	}
	for _, s := range cmp.Series {
		if len(s.Values) == 0 || s.Values[0] != 1.0 {
			t.Errorf("%s first value = %v, want 1.0", s.Symbol, s.Values)
			break
		}
	}
}

func TestQuoteMissingSymbol(t *testing.T) {
	e, _ := newTestServer(t)
	_, env := doGet(t, e, "/api/quote")
	if env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", env.Status)
	}
}
