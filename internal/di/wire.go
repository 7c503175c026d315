//go:build wireinject
// +build wireinject

package di

import (
	"stockinsight/pkg/config"
	"stockinsight/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logging and metrics
		ProvideLogger,
		ProvideMetrics,

		// Cache and upstream providers
		ProvideCache,
		ProvideMarketData,
		ProvideForecaster,
		ProvideSentiment,

		// Use cases
		ProvideDashboard,
		ProvideHub,
		ProvideCollector,
		ProvideRefresher,

		// HTTP surface
		ProvideRateLimiter,
		ProvideAPIHandler,
		ProvideStreamHandler,
		ProvideRouter,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
