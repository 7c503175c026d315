package sentiment

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"stockinsight/internal/domain/models"
	domsvc "stockinsight/internal/domain/service"
	"stockinsight/pkg/config"
	xhttp "stockinsight/pkg/http"
	"stockinsight/pkg/util"
)

// HTTPProvider fetches social sentiment readings from an external API
// authenticated with a bearer key.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
}

var _ domsvc.SentimentProvider = (*HTTPProvider)(nil)

// NewHTTPProvider builds the client from config.
func NewHTTPProvider(cfg *config.Config) *HTTPProvider {
	timeout := cfg.Sentiment.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{
		baseURL: cfg.Sentiment.BaseURL,
		apiKey:  cfg.Sentiment.APIKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type sentimentResp struct {
	Symbol    string             `json:"symbol"`
	Score     float64            `json:"score"`
	Change    float64            `json:"change"`
	Positive  float64            `json:"positive"`
	Neutral   float64            `json:"neutral"`
	Negative  float64            `json:"negative"`
	Sources   map[string]float64 `json:"sources"`
	Timestamp int64              `json:"timestamp"`
}

// Snapshot returns the latest sentiment reading for a symbol.
func (p *HTTPProvider) Snapshot(ctx context.Context, symbol string) (models.SentimentSnapshot, error) {
	sym := util.NormalizeSymbol(symbol)
	if sym == "" {
		return models.SentimentSnapshot{}, fmt.Errorf("sentiment: empty symbol")
	}
	if p.baseURL == "" || p.apiKey == "" {
		return models.SentimentSnapshot{}, fmt.Errorf("sentiment service not configured")
	}

	var resp sentimentResp
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/sentiment/%s", p.baseURL, url.PathEscape(sym)),
		Headers: map[string]string{
			"Authorization": "Bearer " + p.apiKey,
		},
	}, &resp)
	if err != nil {
		return models.SentimentSnapshot{}, fmt.Errorf("sentiment %s: %w", sym, err)
	}

	ts := resp.Timestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}

	return models.SentimentSnapshot{
		Symbol:    sym,
		Score:     resp.Score,
		Change:    resp.Change,
		Positive:  resp.Positive,
		Neutral:   resp.Neutral,
		Negative:  resp.Negative,
		Sources:   resp.Sources,
		Timestamp: time.Unix(ts, 0).UTC(),
	}, nil
}
