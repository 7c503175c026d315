package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"stockinsight/internal/domain/models"
	"stockinsight/internal/domain/repository"
	"stockinsight/pkg/config"
	xhttp "stockinsight/pkg/http"
	applogger "stockinsight/pkg/logger"
	"stockinsight/pkg/util"
)

var defaultHosts = []string{
	"query1.finance.yahoo.com",
	"query2.finance.yahoo.com",
}

// YahooProvider implements repository.MarketData against the public
// Yahoo Finance chart and quoteSummary APIs.
type YahooProvider struct {
	http  *xhttp.Client
	hosts []string
	next  uint32
	log   *applogger.Logger
}

var _ repository.MarketData = (*YahooProvider)(nil)

// NewYahooProvider creates a provider from config. Outbound requests share
// one rate limiter so burst traffic cannot trip the upstream throttling.
func NewYahooProvider(cfg *config.Config, log *applogger.Logger) *YahooProvider {
	hosts := cfg.MarketData.Hosts
	if len(hosts) == 0 {
		hosts = defaultHosts
	}

	ua := cfg.MarketData.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0"
	}

	timeout := cfg.MarketData.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	client := xhttp.NewClient(
		xhttp.WithTimeout(timeout),
		xhttp.WithUserAgent(ua),
		xhttp.WithRateLimit(cfg.MarketData.RateLimit.RequestsPerSec, cfg.MarketData.RateLimit.Burst),
	)

	return &YahooProvider{
		http:  client,
		hosts: hosts,
		log:   log,
	}
}

// host rotates between configured hosts round-robin.
func (p *YahooProvider) host() string {
	n := atomic.AddUint32(&p.next, 1)
	return p.hosts[int(n)%len(p.hosts)]
}

// GetBars fetches daily OHLCV bars covering the period.
func (p *YahooProvider) GetBars(ctx context.Context, symbol string, period repository.Period) (models.PriceSeries, error) {
	sym := util.NormalizeSymbol(symbol)
	if sym == "" {
		return models.PriceSeries{}, fmt.Errorf("marketdata: empty symbol")
	}

	chart, err := p.fetchChart(ctx, sym, "1d", string(period))
	if err != nil {
		return models.PriceSeries{}, err
	}

	return mapChart(sym, chart)
}

// GetQuote returns the latest price snapshot for a symbol. The chart meta
// carries the regular market price; the last bar is the fallback.
func (p *YahooProvider) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	sym := util.NormalizeSymbol(symbol)
	if sym == "" {
		return models.Quote{}, fmt.Errorf("marketdata: empty symbol")
	}

	chart, err := p.fetchChart(ctx, sym, "1d", "1d")
	if err != nil {
		return models.Quote{}, err
	}

	return mapQuote(sym, chart)
}

// GetProfile returns company descriptors from the quoteSummary API.
func (p *YahooProvider) GetProfile(ctx context.Context, symbol string) (models.CompanyProfile, error) {
	sym := util.NormalizeSymbol(symbol)
	if sym == "" {
		return models.CompanyProfile{}, fmt.Errorf("marketdata: empty symbol")
	}

	endpoint := fmt.Sprintf("https://%s/v10/finance/quoteSummary/%s", p.host(), url.PathEscape(sym))

	var out quoteSummaryResponse
	err := p.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    endpoint,
		QueryParams: map[string][]string{
			"modules": {"assetProfile,price"},
		},
	}, &out)
	if err != nil {
		return models.CompanyProfile{}, p.mapUpstreamErr(sym, "quoteSummary", err)
	}

	if out.QuoteSummary.Error != nil {
		return models.CompanyProfile{}, p.apiError(sym, out.QuoteSummary.Error)
	}
	if len(out.QuoteSummary.Result) == 0 {
		return models.CompanyProfile{}, fmt.Errorf("marketdata: %s: %w", sym, repository.ErrSymbolNotFound)
	}

	r := out.QuoteSummary.Result[0]
	name := r.Price.LongName
	if name == "" {
		name = r.Price.ShortName
	}

	return models.CompanyProfile{
		Symbol:    sym,
		Name:      name,
		Sector:    r.AssetProfile.Sector,
		Industry:  r.AssetProfile.Industry,
		Summary:   r.AssetProfile.LongBusinessSummary,
		MarketCap: r.Price.MarketCap.Raw,
		Website:   r.AssetProfile.Website,
	}, nil
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol, interval, rng string) (*chartResult, error) {
	endpoint := fmt.Sprintf("https://%s/v8/finance/chart/%s", p.host(), url.PathEscape(symbol))

	var out chartResponse
	err := p.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    endpoint,
		QueryParams: map[string][]string{
			"interval": {interval},
			"range":    {rng},
			"events":   {"div,split"},
		},
	}, &out)
	if err != nil {
		return nil, p.mapUpstreamErr(symbol, "chart", err)
	}

	if out.Chart.Error != nil {
		return nil, p.apiError(symbol, out.Chart.Error)
	}
	if len(out.Chart.Result) == 0 {
		return nil, fmt.Errorf("marketdata: %s: %w", symbol, repository.ErrSymbolNotFound)
	}

	return &out.Chart.Result[0], nil
}

// mapUpstreamErr translates transport-level failures. A 404 from the chart
// API means the ticker does not exist.
func (p *YahooProvider) mapUpstreamErr(symbol, op string, err error) error {
	var se *xhttp.StatusError
	if errors.As(err, &se) && se.Status == 404 {
		return fmt.Errorf("marketdata: %s: %w", symbol, repository.ErrSymbolNotFound)
	}
	p.log.Warn("upstream request failed",
		applogger.String("op", op),
		applogger.String("symbol", symbol),
		applogger.Error(err),
	)
	return fmt.Errorf("marketdata: %s %s: %w", op, symbol, err)
}

func (p *YahooProvider) apiError(symbol string, e *apiError) error {
	if strings.EqualFold(e.Code, "Not Found") {
		return fmt.Errorf("marketdata: %s: %w", symbol, repository.ErrSymbolNotFound)
	}
	return fmt.Errorf("marketdata: %s: upstream error %s: %s", symbol, e.Code, e.Description)
}

// mapChart converts a chart API result into an ordered daily series.
// Bars with a null close are skipped (holidays, halted sessions).
func mapChart(symbol string, r *chartResult) (models.PriceSeries, error) {
	if len(r.Timestamp) == 0 || len(r.Indicators.Quote) == 0 {
		return models.PriceSeries{}, fmt.Errorf("marketdata: %s: empty chart", symbol)
	}

	q := r.Indicators.Quote[0]
	bars := make([]models.PriceBar, 0, len(r.Timestamp))

	for i, ts := range r.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		bar := models.PriceBar{
			Time:  util.TruncateToDay(time.Unix(ts, 0)),
			Close: *q.Close[i],
		}
		if i < len(q.Open) && q.Open[i] != nil {
			bar.Open = *q.Open[i]
		}
		if i < len(q.High) && q.High[i] != nil {
			bar.High = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			bar.Low = *q.Low[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = uint64(*q.Volume[i])
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return models.PriceSeries{}, fmt.Errorf("marketdata: %s: no usable bars", symbol)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	return models.PriceSeries{Symbol: symbol, Bars: bars}, nil
}

func mapQuote(symbol string, r *chartResult) (models.Quote, error) {
	if r.Meta.RegularMarketPrice > 0 {
		ts := r.Meta.RegularMarketTime
		if ts == 0 {
			ts = time.Now().Unix()
		}
		return models.Quote{
			Symbol:    symbol,
			Price:     r.Meta.RegularMarketPrice,
			Timestamp: ts,
		}, nil
	}

	series, err := mapChart(symbol, r)
	if err != nil {
		return models.Quote{}, err
	}
	last := series.Bars[len(series.Bars)-1]
	return models.Quote{
		Symbol:    symbol,
		Price:     last.Close,
		Volume:    float64(last.Volume),
		Timestamp: last.Time.Unix(),
	}, nil
}
