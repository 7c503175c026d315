package forecast

import (
	"context"
	"fmt"
	"time"

	"stockinsight/internal/domain/models"
	domsvc "stockinsight/internal/domain/service"
	"stockinsight/pkg/config"
	xhttp "stockinsight/pkg/http"
	applogger "stockinsight/pkg/logger"
	"stockinsight/pkg/util"
)

// HTTPForecaster calls an external forecasting sidecar. The model math is
// entirely the sidecar's concern; this client only moves points across.
type HTTPForecaster struct {
	baseURL string
	retries int
	client  *xhttp.Client
	log     *applogger.Logger
}

var _ domsvc.Forecaster = (*HTTPForecaster)(nil)

// NewHTTPForecaster builds the client from config.
func NewHTTPForecaster(cfg *config.Config, log *applogger.Logger) *HTTPForecaster {
	timeout := cfg.Forecast.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPForecaster{
		baseURL: cfg.Forecast.ServiceURL,
		retries: cfg.Forecast.Retries,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		log:     log,
	}
}

type forecastReq struct {
	Symbol  string       `json:"symbol"`
	Points  []historyRow `json:"points"`
	Horizon int          `json:"horizon"`
}

type historyRow struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type forecastResp struct {
	Model  string `json:"model"`
	Points []struct {
		Date  string  `json:"date"`
		Yhat  float64 `json:"yhat"`
		Lower float64 `json:"yhat_lower"`
		Upper float64 `json:"yhat_upper"`
	} `json:"points"`
}

// Forecast posts the close history and returns the fitted projection.
func (f *HTTPForecaster) Forecast(ctx context.Context, symbol string, history []models.SeriesPoint, horizonDays int) (models.Forecast, error) {
	if f.baseURL == "" {
		return models.Forecast{}, fmt.Errorf("forecast service not configured")
	}
	if len(history) == 0 {
		return models.Forecast{}, fmt.Errorf("forecast %s: empty history", symbol)
	}

	req := forecastReq{
		Symbol:  symbol,
		Points:  make([]historyRow, 0, len(history)),
		Horizon: horizonDays,
	}
	for _, p := range history {
		req.Points = append(req.Points, historyRow{
			Date:  util.FormatDate(p.Date),
			Value: p.Value,
		})
	}

	var resp forecastResp
	if err := f.postJSONWithRetry(ctx, "/forecast", req, &resp, f.retries); err != nil {
		return models.Forecast{}, fmt.Errorf("forecast %s: %w", symbol, err)
	}

	out := models.Forecast{
		Symbol:  symbol,
		Horizon: horizonDays,
		Model:   resp.Model,
		Points:  make([]models.ForecastPoint, 0, len(resp.Points)),
	}
	for _, p := range resp.Points {
		date, ok := util.ParseTime(p.Date)
		if !ok {
			f.log.Warn("forecast point with bad date skipped",
				applogger.String("symbol", symbol),
				applogger.String("date", p.Date),
			)
			continue
		}
		out.Points = append(out.Points, models.ForecastPoint{
			Date:  date,
			Value: p.Yhat,
			Lower: p.Lower,
			Upper: p.Upper,
		})
	}
	if len(out.Points) == 0 {
		return models.Forecast{}, fmt.Errorf("forecast %s: empty response", symbol)
	}
	return out, nil
}

func (f *HTTPForecaster) postJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    f.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

// postJSONWithRetry retries transient failures with linear backoff.
func (f *HTTPForecaster) postJSONWithRetry(ctx context.Context, path string, payload interface{}, dest interface{}, attempts int) error {
	if attempts <= 1 {
		return f.postJSON(ctx, path, payload, dest)
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = f.postJSON(ctx, path, payload, dest)
		if err == nil {
			return nil
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
