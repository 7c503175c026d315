package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"stockinsight/internal/service/refresh"
	"stockinsight/internal/usecase"
	"stockinsight/pkg/config"
	xhttp "stockinsight/pkg/http"
	applogger "stockinsight/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	collector   *usecase.QuoteCollector
	refresher   *refresh.Scheduler
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	closers     []io.Closer
}

// New creates a new App instance with all dependencies. Collector and
// refresher may be nil when the corresponding feature is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.QuoteCollector,
	refresher *refresh.Scheduler,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		collector: collector,
		refresher: refresher,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// AddCloser registers a resource to close on shutdown, in registration order.
func (a *App) AddCloser(c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, c)
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)

	// Start live quote collector
	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.log.Error("quote collector error", applogger.Error(err))
			}
		}()
		a.log.Info("quote collector started", applogger.Strings("symbols", a.cfg.Watchlist.Symbols))
	}

	// Start watchlist refresh scheduler
	if a.refresher != nil {
		if err := a.refresher.Start(); err != nil {
			a.log.Error("refresh scheduler start error", applogger.Error(err))
		} else {
			a.log.Info("refresh scheduler started", applogger.String("spec", a.cfg.Watchlist.RefreshSpec))
		}
	}

	serverErr := a.httpServer.Start()

	// Block until interrupted or the listener dies.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.log.Info("shutdown signal received", applogger.String("signal", sig.String()))
	case err := <-serverErr:
		a.log.Error("http server failed", applogger.Error(err))
		_ = a.shutdown(ctx)
		return err
	}

	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop taking scheduled work first, then the stream, then the server.
	if a.refresher != nil {
		if err := a.refresher.Stop(shutdownCtx); err != nil {
			a.log.Warn("refresh scheduler stop error", applogger.Error(err))
		}
	}

	if a.collector != nil {
		if err := a.collector.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("collector stop error", applogger.Error(err))
		}
	}

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("resource close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
