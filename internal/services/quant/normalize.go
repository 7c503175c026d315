package quant

import (
	"fmt"

	"stockinsight/internal/domain/models"
)

// Normalize rescales each series to its first close, producing base-1.0
// relative performance sequences for cross-symbol comparison. Series are
// normalized independently and positionally; differing lengths or date
// ranges are left as-is, alignment is the caller's concern. Any empty
// series fails with ErrInsufficientData naming the ticker.
func Normalize(seriesSet map[string]models.PriceSeries) (map[string][]float64, error) {
	out := make(map[string][]float64, len(seriesSet))
	for symbol, series := range seriesSet {
		if series.Len() == 0 {
			return nil, fmt.Errorf("normalize %s: %w", symbol, ErrInsufficientData)
		}
		closes := series.Closes()
		base := closes[0]
		norm := make([]float64, len(closes))
		for i, c := range closes {
			norm[i] = c / base
		}
		out[symbol] = norm
	}
	return out, nil
}
