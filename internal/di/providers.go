package di

import (
	"fmt"
	"io"
	"net"
	"strconv"

	"stockinsight/internal/domain/repository"
	domsvc "stockinsight/internal/domain/service"
	"stockinsight/internal/handler"
	"stockinsight/internal/handler/api"
	"stockinsight/internal/handler/ws"
	mid "stockinsight/internal/middleware"
	"stockinsight/internal/service/forecast"
	"stockinsight/internal/service/marketdata"
	"stockinsight/internal/service/ratelimit"
	"stockinsight/internal/service/refresh"
	"stockinsight/internal/service/sentiment"
	"stockinsight/internal/usecase"
	"stockinsight/pkg/cache"
	"stockinsight/pkg/config"
	xmw "stockinsight/pkg/http/middleware"
	applogger "stockinsight/pkg/logger"
	"stockinsight/pkg/metrics"
	"stockinsight/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	output := cfg.Logging.Output
	if output == "" {
		output = "stdout"
	}
	return applogger.New(&applogger.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache builds the cache stack: memory only by default, memory
// over Redis when Redis is enabled.
func ProvideCache(cfg *config.Config, log *applogger.Logger) (cache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		var memOpts []cache.MemoryOption
		if cfg.Cache.Memory.MaxItems > 0 {
			memOpts = append(memOpts, cache.WithMemoryMaxSize(cfg.Cache.Memory.MaxItems))
		}
		log.Info("cache: in-process memory only")
		return cache.NewMemoryCache(memOpts...), nil
	}

	redisOpts := []cache.RedisOption{
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
	}
	if cfg.Cache.Redis.Addr != "" {
		host, port := splitHostPort(cfg.Cache.Redis.Addr)
		redisOpts = append(redisOpts, cache.WithRedisHost(host), cache.WithRedisPort(port))
	}
	rc, err := cache.NewRedisCache(redisOpts...)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}

	var layeredOpts []cache.LayeredOption
	if cfg.Cache.Memory.MaxItems > 0 {
		layeredOpts = append(layeredOpts, cache.WithLayeredMemorySize(cfg.Cache.Memory.MaxItems))
	}
	log.Info("cache: layered memory over redis", applogger.String("addr", cfg.Cache.Redis.Addr))
	return cache.NewLayeredCache(rc, layeredOpts...), nil
}

// splitHostPort splits "host:port", tolerating a bare host.
func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideMarketData creates the historical bars and quotes provider.
func ProvideMarketData(cfg *config.Config, log *applogger.Logger) repository.MarketData {
	return marketdata.NewYahooProvider(cfg, log)
}

// ProvideForecaster creates the forecasting collaborator, or nil when
// forecasting is disabled.
func ProvideForecaster(cfg *config.Config, log *applogger.Logger) domsvc.Forecaster {
	if !cfg.Forecast.Enabled {
		return nil
	}
	return forecast.NewHTTPForecaster(cfg, log)
}

// ProvideSentiment creates the sentiment collaborator, or nil when
// sentiment is disabled.
func ProvideSentiment(cfg *config.Config) domsvc.SentimentProvider {
	if !cfg.Sentiment.Enabled {
		return nil
	}
	return sentiment.NewHTTPProvider(cfg)
}

// ProvideDashboard creates the dashboard use case.
func ProvideDashboard(
	cfg *config.Config,
	market repository.MarketData,
	c cache.Service,
	fc domsvc.Forecaster,
	sent domsvc.SentimentProvider,
	log *applogger.Logger,
) *usecase.Dashboard {
	return usecase.NewDashboard(cfg, market, c, fc, sent, log)
}

// ProvideHub creates the realtime quote hub.
func ProvideHub() *usecase.QuoteHub {
	return usecase.NewQuoteHub()
}

// ProvideCollector creates the live quote collector, or nil when the
// stream is disabled. The hub terminates the validation pipeline.
func ProvideCollector(
	cfg *config.Config,
	hub *usecase.QuoteHub,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.QuoteCollector {
	if !cfg.Stream.Enabled {
		return nil
	}
	stream := marketdata.NewStream(cfg)
	pipe := mid.NewQuotePipeline(hub, m,
		mid.WithMaxRPS(cfg.Stream.MaxPerSecond),
		mid.WithBufferSize(cfg.Stream.BufferSize),
	)
	return usecase.NewQuoteCollector(stream, pipe, m, log)
}

// ProvideRefresher creates the watchlist warm scheduler, or nil when the
// watchlist is empty.
func ProvideRefresher(
	cfg *config.Config,
	dash *usecase.Dashboard,
	c cache.Service,
	log *applogger.Logger,
) *refresh.Scheduler {
	if len(cfg.Watchlist.Symbols) == 0 {
		return nil
	}
	return refresh.NewScheduler(cfg, dash, c, log)
}

// ProvideRateLimiter creates the per-client inbound limiter, or nil when
// limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideAPIHandler creates the REST handler. A nil limiter must stay a
// nil interface, otherwise the middleware would call through it.
func ProvideAPIHandler(log *applogger.Logger, dash *usecase.Dashboard, rl *ratelimit.Limiter) *api.DashboardHandler {
	var allower xmw.Allower
	if rl != nil {
		allower = rl
	}
	return api.NewDashboardHandler(log, dash, allower)
}

// ProvideStreamHandler creates the websocket handler, or nil when the
// live feed is disabled.
func ProvideStreamHandler(cfg *config.Config, hub *usecase.QuoteHub, log *applogger.Logger) *ws.StreamHandler {
	if !cfg.Stream.Enabled {
		return nil
	}
	return ws.NewStreamHandler(hub, log)
}

// ProvideRouter creates the top-level route registrar.
func ProvideRouter(apiHandler *api.DashboardHandler, streamHandler *ws.StreamHandler) *handler.Router {
	return handler.NewRouter(apiHandler, streamHandler)
}

// ProvideApp creates the application server and attaches resources that
// need closing on shutdown.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.QuoteCollector,
	refresher *refresh.Scheduler,
	router *handler.Router,
	c cache.Service,
	rl *ratelimit.Limiter,
) *server.App {
	app := server.New(cfg, log, collector, refresher)
	app.SetHTTPHandler(router)
	if closer, ok := c.(io.Closer); ok {
		app.AddCloser(closer)
	}
	if rl != nil {
		app.AddCloser(rl)
	}
	return app
}
