package refresh

import (
	"context"
	"fmt"
	"time"

	"stockinsight/internal/domain/repository"
	"stockinsight/pkg/cache"
	"stockinsight/pkg/config"
	applogger "stockinsight/pkg/logger"
	"stockinsight/pkg/util"

	"github.com/robfig/cron/v3"
)

const (
	defaultSpec    = "@every 15m"
	refreshTimeout = 2 * time.Minute
	refreshLockKey = "lock:refresh"
	refreshLockTTL = 90 * time.Second
)

// Warmer loads a symbol's data into the cache ahead of user requests.
type Warmer interface {
	Warm(ctx context.Context, symbol string, period repository.Period) error
}

// Scheduler re-warms the watchlist on a cron spec so the first dashboard
// hit after market moves is served from cache.
type Scheduler struct {
	cron    *cron.Cron
	warmer  Warmer
	cache   cache.Service
	symbols []string
	period  repository.Period
	spec    string
	log     *applogger.Logger
}

// NewScheduler creates a watchlist refresh scheduler.
func NewScheduler(cfg *config.Config, warmer Warmer, c cache.Service, log *applogger.Logger) *Scheduler {
	spec := cfg.Watchlist.RefreshSpec
	if spec == "" {
		spec = defaultSpec
	}
	return &Scheduler{
		cron:    cron.New(),
		warmer:  warmer,
		cache:   c,
		symbols: util.NormalizeSymbols(cfg.Watchlist.Symbols),
		period:  repository.NormalizePeriod(cfg.Watchlist.WarmupPeriod),
		spec:    spec,
		log:     log,
	}
}

// Start registers the refresh job, runs one warm-up pass in the background
// and starts the cron loop.
func (s *Scheduler) Start() error {
	if len(s.symbols) == 0 {
		return fmt.Errorf("refresh: empty watchlist")
	}
	if _, err := s.cron.AddFunc(s.spec, s.refreshTask); err != nil {
		return fmt.Errorf("refresh: register task: %w", err)
	}

	go s.refreshTask()

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for a running refresh to finish, bounded
// by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) refreshTask() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	// Only one instance warms at a time; the others skip the round.
	ok, err := s.cache.TryLock(ctx, refreshLockKey, refreshLockTTL)
	if err != nil {
		s.log.Warn("refresh lock unavailable, warming anyway", applogger.Error(err))
	} else if !ok {
		s.log.Debug("refresh already running elsewhere")
		return
	} else {
		defer func() {
			_ = s.cache.Unlock(context.Background(), refreshLockKey)
		}()
	}

	start := time.Now()
	warmed := 0
	for _, sym := range s.symbols {
		if ctx.Err() != nil {
			s.log.Warn("refresh cut short", applogger.Error(ctx.Err()))
			break
		}
		if err := s.warmer.Warm(ctx, sym, s.period); err != nil {
			s.log.Warn("warm failed",
				applogger.String("symbol", sym),
				applogger.Error(err),
			)
			continue
		}
		warmed++
	}

	s.log.Info("watchlist refreshed",
		applogger.Int("warmed", warmed),
		applogger.Int("total", len(s.symbols)),
		applogger.Duration("took", time.Since(start)),
	)
}
