package repository

import (
	"context"
	"errors"

	"stockinsight/internal/domain/models"
)

// ErrSymbolNotFound reports that the provider has no data for a symbol.
// Implementations wrap it so callers can branch with errors.Is.
var ErrSymbolNotFound = errors.New("symbol not found")

// MarketData supplies historical bars, spot quotes and company descriptors.
// Implementations own provider auth, retries and outbound rate limiting;
// consumers receive either well-formed data or an error.
type MarketData interface {
	GetBars(ctx context.Context, symbol string, period Period) (models.PriceSeries, error)
	GetQuote(ctx context.Context, symbol string) (models.Quote, error)
	GetProfile(ctx context.Context, symbol string) (models.CompanyProfile, error)
}

// QuoteStream is a live trade feed over a persistent connection.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Quote, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records operational signals from the collector and API layers.
type Metrics interface {
	RecordQuote(symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
