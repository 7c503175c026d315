package service

import (
	"context"

	"stockinsight/internal/domain/models"
)

// Forecaster produces a dated point forecast with uncertainty bounds from an
// observed (date, value) history. The model behind it is opaque to callers.
type Forecaster interface {
	Forecast(ctx context.Context, symbol string, history []models.SeriesPoint, horizonDays int) (models.Forecast, error)
}

// SentimentProvider returns the latest social-sentiment reading for a symbol.
type SentimentProvider interface {
	Snapshot(ctx context.Context, symbol string) (models.SentimentSnapshot, error)
}
