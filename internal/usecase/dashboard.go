package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stockinsight/internal/domain/models"
	"stockinsight/internal/domain/repository"
	domsvc "stockinsight/internal/domain/service"
	svcmetrics "stockinsight/internal/service/metrics"
	"stockinsight/internal/services/quant"
	"stockinsight/pkg/cache"
	"stockinsight/pkg/config"
	applogger "stockinsight/pkg/logger"
	"stockinsight/pkg/util"
)

// ErrFeatureDisabled reports an operation whose collaborator is not
// configured in this deployment.
var ErrFeatureDisabled = errors.New("feature disabled")

type cacheTTLs struct {
	bars      time.Duration
	quote     time.Duration
	profile   time.Duration
	forecast  time.Duration
	sentiment time.Duration
}

func ttlsFromConfig(cfg *config.Config) cacheTTLs {
	t := cacheTTLs{
		bars:      cfg.Cache.TTL.Bars,
		quote:     cfg.Cache.TTL.Quote,
		profile:   cfg.Cache.TTL.Profile,
		forecast:  cfg.Cache.TTL.Forecast,
		sentiment: cfg.Cache.TTL.Sentiment,
	}
	if t.bars <= 0 {
		t.bars = 15 * time.Minute
	}
	if t.quote <= 0 {
		t.quote = 30 * time.Second
	}
	if t.profile <= 0 {
		t.profile = 24 * time.Hour
	}
	if t.forecast <= 0 {
		t.forecast = 6 * time.Hour
	}
	if t.sentiment <= 0 {
		t.sentiment = 10 * time.Minute
	}
	return t
}

// Dashboard orchestrates provider fetches, caching and the analytics
// engine behind the HTTP endpoints. Raw closes go in, derived series and
// snapshots come out; nothing derived is ever persisted.
type Dashboard struct {
	market repository.MarketData
	cache  cache.Service
	fc     domsvc.Forecaster
	sent   domsvc.SentimentProvider
	log    *applogger.Logger

	params          quant.Params
	tradingDays     int
	riskFree        float64
	confidence      float64
	defaultPaths    int
	defaultHorizon  int
	simulateTimeout time.Duration
	ttl             cacheTTLs
}

// NewDashboard builds the dashboard usecase. Forecaster and sentiment
// provider may be nil; the matching operations then report
// ErrFeatureDisabled.
func NewDashboard(
	cfg *config.Config,
	market repository.MarketData,
	c cache.Service,
	fc domsvc.Forecaster,
	sent domsvc.SentimentProvider,
	log *applogger.Logger,
) *Dashboard {
	svcmetrics.Register()

	params := quant.Params{
		SMAShortWindow: cfg.Analytics.SMAShortWindow,
		SMALongWindow:  cfg.Analytics.SMALongWindow,
		RSIWindow:      cfg.Analytics.RSIWindow,
		MACDFast:       cfg.Analytics.MACDFast,
		MACDSlow:       cfg.Analytics.MACDSlow,
		MACDSignal:     cfg.Analytics.MACDSignal,
		BollWindow:     cfg.Analytics.BollWindow,
		BollK:          cfg.Analytics.BollK,
	}.Normalize()

	tradingDays := cfg.Analytics.TradingDays
	if tradingDays <= 0 {
		tradingDays = quant.TradingDaysPerYear
	}
	confidence := cfg.Analytics.Confidence
	if confidence == 0 {
		confidence = 0.95
	}
	defaultPaths := cfg.Analytics.DefaultPaths
	if defaultPaths <= 0 {
		defaultPaths = 200
	}
	defaultHorizon := cfg.Analytics.DefaultHorizon
	if defaultHorizon <= 0 {
		defaultHorizon = 30
	}
	simulateTimeout := cfg.Analytics.SimulateTimeout
	if simulateTimeout <= 0 {
		simulateTimeout = 10 * time.Second
	}

	return &Dashboard{
		market:          market,
		cache:           c,
		fc:              fc,
		sent:            sent,
		log:             log,
		params:          params,
		tradingDays:     tradingDays,
		riskFree:        cfg.Analytics.RiskFreeRate,
		confidence:      confidence,
		defaultPaths:    defaultPaths,
		defaultHorizon:  defaultHorizon,
		simulateTimeout: simulateTimeout,
		ttl:             ttlsFromConfig(cfg),
	}
}

// observe records latency and errors for one analytics operation.
func observe(op string, start time.Time, err error) {
	svcmetrics.AnalyticsLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		svcmetrics.AnalyticsErrors.WithLabelValues(op).Inc()
	}
}

// Chart returns the bar series with the requested indicator columns.
func (d *Dashboard) Chart(ctx context.Context, req models.ChartRequest) (resp *models.ChartResponse, err error) {
	start := time.Now()
	defer func() { observe("chart", start, err) }()

	sym := util.NormalizeSymbol(req.Symbol)
	period := repository.NormalizePeriod(req.Period)

	series, err := d.series(ctx, sym, period)
	if err != nil {
		return nil, err
	}

	kinds := make([]quant.Kind, 0, len(req.Indicators))
	for _, s := range req.Indicators {
		kinds = append(kinds, quant.Kind(s))
	}
	if len(kinds) == 0 {
		kinds = quant.AllKinds()
	}

	ind, err := quant.Compute(series, kinds, d.params)
	if err != nil {
		return nil, err
	}

	cols := make(map[string][]models.ChartFloat, len(ind))
	for name, col := range ind {
		cols[name] = models.ChartColumn(col)
	}

	return &models.ChartResponse{
		Symbol:     sym,
		Period:     string(period),
		Bars:       series.Bars,
		Indicators: cols,
	}, nil
}

// Risk computes the one-day-return risk snapshot over the period.
func (d *Dashboard) Risk(ctx context.Context, req models.RiskRequest) (resp *models.RiskResponse, err error) {
	start := time.Now()
	defer func() { observe("risk", start, err) }()

	sym := util.NormalizeSymbol(req.Symbol)
	period := repository.NormalizePeriod(req.Period)

	confidence := req.Confidence
	if confidence == 0 {
		confidence = d.confidence
	}
	riskFree := req.RiskFree
	if riskFree == 0 {
		riskFree = d.riskFree
	}

	series, err := d.series(ctx, sym, period)
	if err != nil {
		return nil, err
	}

	returns, err := quant.LogReturns(series)
	if err != nil {
		return nil, err
	}

	snapshot, err := quant.ComputeRisk(returns, confidence, d.tradingDays, riskFree)
	if err != nil {
		return nil, err
	}

	return &models.RiskResponse{
		Symbol: sym,
		Period: string(period),
		Bars:   series.Len(),
		Risk:   snapshot,
	}, nil
}

// Simulate runs a Monte Carlo projection anchored at the last close. The
// run is bounded by the configured timeout regardless of caller patience.
func (d *Dashboard) Simulate(ctx context.Context, req models.SimulateRequest) (resp *models.SimulateResponse, err error) {
	start := time.Now()
	defer func() { observe("simulate", start, err) }()

	sym := util.NormalizeSymbol(req.Symbol)
	period := repository.NormalizePeriod(req.Period)

	paths := req.Paths
	if paths <= 0 {
		paths = d.defaultPaths
	}
	horizon := req.Horizon
	if horizon <= 0 {
		horizon = d.defaultHorizon
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, cancel := context.WithTimeout(ctx, d.simulateTimeout)
	defer cancel()

	series, err := d.series(ctx, sym, period)
	if err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	svcmetrics.SimulationPaths.Observe(float64(paths))

	result, err := quant.Simulate(series, paths, horizon, seed)
	if err != nil {
		return nil, err
	}

	return &models.SimulateResponse{
		Symbol:    sym,
		Period:    string(period),
		Anchor:    result.Anchor,
		Days:      result.Days,
		Paths:     result.Paths,
		Seed:      result.Seed,
		Quantiles: quant.Quantiles(result, 5, 50, 95),
		Values:    result.Values,
	}, nil
}

// Compare rebases each ticker's closes to its first value. Tickers that
// fail resolve into the Errors map; the call only fails when none
// resolve.
func (d *Dashboard) Compare(ctx context.Context, req models.CompareRequest) (resp *models.CompareResponse, err error) {
	start := time.Now()
	defer func() { observe("compare", start, err) }()

	symbols := util.NormalizeSymbols(req.Symbols)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("compare: %w: no symbols", quant.ErrInvalidParameter)
	}
	period := repository.NormalizePeriod(req.Period)

	seriesSet, errs := d.fetchMany(ctx, symbols, period)

	normalized, err := quant.Normalize(seriesSet)
	if err != nil {
		return nil, err
	}

	out := &models.CompareResponse{
		Period: string(period),
		Series: make([]models.CompareEntry, 0, len(symbols)),
	}
	for _, sym := range symbols {
		series, ok := seriesSet[sym]
		if !ok {
			continue
		}
		values := normalized[sym]
		dates := make([]string, series.Len())
		for i, bar := range series.Bars {
			dates[i] = util.FormatDate(bar.Time)
		}
		out.Series = append(out.Series, models.CompareEntry{
			Symbol: sym,
			Dates:  dates,
			Values: values,
		})
	}

	if len(errs) > 0 {
		out.Errors = make(map[string]string, len(errs))
		for sym, ferr := range errs {
			out.Errors[sym] = ferr.Error()
		}
	}
	if len(out.Series) == 0 {
		for _, ferr := range errs {
			return nil, fmt.Errorf("compare: %w", ferr)
		}
		return nil, fmt.Errorf("compare: no data")
	}
	return out, nil
}

// fetchMany resolves several tickers concurrently, serving cache hits in
// one batch and fanning out only for the misses.
func (d *Dashboard) fetchMany(ctx context.Context, symbols []string, period repository.Period) (map[string]models.PriceSeries, map[string]error) {
	found := make(map[string]models.PriceSeries, len(symbols))
	errs := make(map[string]error)

	keys := make([]string, len(symbols))
	keyToSym := make(map[string]string, len(symbols))
	for i, sym := range symbols {
		keys[i] = barsKey(sym, period)
		keyToSym[keys[i]] = sym
	}
	if cached, err := cache.MGetTyped[models.PriceSeries](ctx, d.cache, keys...); err == nil {
		for key, series := range cached {
			if series.Len() > 0 {
				found[keyToSym[key]] = series
			}
		}
	}

	type item struct {
		sym    string
		series models.PriceSeries
		err    error
	}
	ch := make(chan item, len(symbols))
	var wg sync.WaitGroup

	for _, sym := range symbols {
		if _, ok := found[sym]; ok {
			continue
		}
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			series, err := d.series(ctx, sym, period)
			ch <- item{sym, series, err}
		}(sym)
	}
	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			errs[it.sym] = it.err
			continue
		}
		found[it.sym] = it.series
	}
	return found, errs
}

// Forecast proxies the close history to the forecasting collaborator.
func (d *Dashboard) Forecast(ctx context.Context, req models.ForecastRequest) (resp *models.Forecast, err error) {
	start := time.Now()
	defer func() { observe("forecast", start, err) }()

	if d.fc == nil {
		return nil, fmt.Errorf("forecast: %w", ErrFeatureDisabled)
	}

	sym := util.NormalizeSymbol(req.Symbol)
	period := repository.NormalizePeriod(req.Period)
	horizon := req.Horizon
	if horizon <= 0 {
		horizon = d.defaultHorizon
	}

	key := cache.GenerateKeyWithParams("forecast", sym, string(period), horizon)
	var cached models.Forecast
	if cerr := d.cache.Get(ctx, key, &cached); cerr == nil && len(cached.Points) > 0 {
		return &cached, nil
	}

	series, err := d.series(ctx, sym, period)
	if err != nil {
		return nil, err
	}

	forecast, err := d.fc.Forecast(ctx, sym, series.ClosePoints(), horizon)
	if err != nil {
		return nil, err
	}

	if cerr := d.cache.Set(ctx, key, forecast, d.ttl.forecast); cerr != nil {
		d.log.Warn("forecast cache write failed", applogger.String("symbol", sym), applogger.Error(cerr))
	}
	return &forecast, nil
}

// Profile returns company descriptors, cached for a day.
func (d *Dashboard) Profile(ctx context.Context, req models.ProfileRequest) (resp *models.CompanyProfile, err error) {
	start := time.Now()
	defer func() { observe("profile", start, err) }()

	sym := util.NormalizeSymbol(req.Symbol)
	key := cache.GenerateKey("profile", sym)

	var cached models.CompanyProfile
	if cerr := d.cache.Get(ctx, key, &cached); cerr == nil && cached.Symbol != "" {
		return &cached, nil
	}

	profile, err := d.market.GetProfile(ctx, sym)
	if err != nil {
		return nil, err
	}

	if cerr := d.cache.Set(ctx, key, profile, d.ttl.profile); cerr != nil {
		d.log.Warn("profile cache write failed", applogger.String("symbol", sym), applogger.Error(cerr))
	}
	return &profile, nil
}

// Sentiment returns the latest social sentiment snapshot.
func (d *Dashboard) Sentiment(ctx context.Context, req models.SentimentRequest) (resp *models.SentimentSnapshot, err error) {
	start := time.Now()
	defer func() { observe("sentiment", start, err) }()

	if d.sent == nil {
		return nil, fmt.Errorf("sentiment: %w", ErrFeatureDisabled)
	}

	sym := util.NormalizeSymbol(req.Symbol)
	key := cache.GenerateKey("sentiment", sym)

	var cached models.SentimentSnapshot
	if cerr := d.cache.Get(ctx, key, &cached); cerr == nil && cached.Symbol != "" {
		return &cached, nil
	}

	snapshot, err := d.sent.Snapshot(ctx, sym)
	if err != nil {
		return nil, err
	}

	if cerr := d.cache.Set(ctx, key, snapshot, d.ttl.sentiment); cerr != nil {
		d.log.Warn("sentiment cache write failed", applogger.String("symbol", sym), applogger.Error(cerr))
	}
	return &snapshot, nil
}

// Quote returns a short-lived cached spot quote.
func (d *Dashboard) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	sym := util.NormalizeSymbol(symbol)
	key := cache.GenerateKey("quote", sym)

	var cached models.Quote
	if cerr := d.cache.Get(ctx, key, &cached); cerr == nil && cached.Symbol != "" {
		return cached, nil
	}

	quote, err := d.market.GetQuote(ctx, sym)
	if err != nil {
		return models.Quote{}, err
	}

	if cerr := d.cache.Set(ctx, key, quote, d.ttl.quote); cerr != nil {
		d.log.Warn("quote cache write failed", applogger.String("symbol", sym), applogger.Error(cerr))
	}
	return quote, nil
}

// Warm pre-loads a symbol's bars, quote and profile into the cache. Bars
// are the load-bearing part; the rest is best-effort.
func (d *Dashboard) Warm(ctx context.Context, symbol string, period repository.Period) error {
	sym := util.NormalizeSymbol(symbol)

	if _, err := d.series(ctx, sym, period); err != nil {
		return err
	}
	if _, err := d.Quote(ctx, sym); err != nil {
		d.log.Debug("quote warm failed", applogger.String("symbol", sym), applogger.Error(err))
	}
	if _, err := d.Profile(ctx, models.ProfileRequest{Symbol: sym}); err != nil {
		d.log.Debug("profile warm failed", applogger.String("symbol", sym), applogger.Error(err))
	}
	return nil
}

// series is the cache-aside read path for daily bars.
func (d *Dashboard) series(ctx context.Context, symbol string, period repository.Period) (models.PriceSeries, error) {
	key := barsKey(symbol, period)

	var cached models.PriceSeries
	if err := d.cache.Get(ctx, key, &cached); err == nil && cached.Len() > 0 {
		return cached, nil
	}

	series, err := d.market.GetBars(ctx, symbol, period)
	if err != nil {
		return models.PriceSeries{}, err
	}

	if err := d.cache.Set(ctx, key, series, d.ttl.bars); err != nil {
		d.log.Warn("bars cache write failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
	return series, nil
}

func barsKey(symbol string, period repository.Period) string {
	return cache.GenerateKeyWithParams("bars", symbol, string(period))
}
