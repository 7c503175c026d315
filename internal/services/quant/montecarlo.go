package quant

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"stockinsight/internal/domain/models"
)

// Simulate generates pathCount price trajectories over horizonDays via
// multiplicative log-return shocks drawn from Normal(mu, sigma), where mu
// and sigma are the raw sample mean and standard deviation of the
// historical log returns. The drift is used as-is, with no -sigma^2/2
// geometric correction, so the expected log step matches the historical
// mean exactly. Row 0 of every path is the last observed close.
//
// The same seed on the same input reproduces the output bit for bit:
// per-path generator seeds are drawn up front from a master stream, so
// the parallel fan-out below cannot perturb the result.
func Simulate(series models.PriceSeries, pathCount, horizonDays int, seed int64) (models.SimulationResult, error) {
	var res models.SimulationResult
	if pathCount <= 0 || horizonDays <= 0 {
		return res, fmt.Errorf("simulate: paths=%d horizon=%d: %w", pathCount, horizonDays, ErrInvalidParameter)
	}
	returns, err := LogReturns(series)
	if err != nil {
		return res, fmt.Errorf("simulate: %w", err)
	}
	mu := mean(returns)
	sigma := 0.0
	if len(returns) >= 2 {
		sigma = sampleStd(returns)
	}
	anchor := series.LastClose()

	values := make([][]float64, horizonDays)
	for i := range values {
		values[i] = make([]float64, pathCount)
	}
	for j := 0; j < pathCount; j++ {
		values[0][j] = anchor
	}

	master := rand.New(rand.NewSource(seed))
	seeds := make([]int64, pathCount)
	for j := range seeds {
		seeds[j] = master.Int63()
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > pathCount {
		workers = pathCount
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			// Each path writes only its own column, so the workers never
			// share output cells.
			for j := range jobs {
				rng := rand.New(rand.NewSource(seeds[j]))
				price := anchor
				for t := 1; t < horizonDays; t++ {
					shock := mu + sigma*rng.NormFloat64()
					price *= math.Exp(shock)
					values[t][j] = price
				}
			}
		}()
	}
	for j := 0; j < pathCount; j++ {
		jobs <- j
	}
	close(jobs)
	wg.Wait()

	res = models.SimulationResult{
		Symbol: series.Symbol,
		Anchor: anchor,
		Days:   horizonDays,
		Paths:  pathCount,
		Seed:   seed,
		Values: values,
	}
	return res, nil
}

// Quantiles reduces a simulation to per-day low/mid/high percentile bands
// (percentiles in [0,100], linearly interpolated) for fan charts.
func Quantiles(res models.SimulationResult, low, mid, high float64) models.PathQuantiles {
	q := models.PathQuantiles{
		Low:  make([]float64, res.Days),
		Mid:  make([]float64, res.Days),
		High: make([]float64, res.Days),
	}
	buf := make([]float64, res.Paths)
	for day := 0; day < res.Days; day++ {
		copy(buf, res.Values[day])
		sort.Float64s(buf)
		q.Low[day] = percentile(buf, low)
		q.Mid[day] = percentile(buf, mid)
		q.High[day] = percentile(buf, high)
	}
	return q
}

// percentile interpolates over an ascending slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(pos)
	frac := pos - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
