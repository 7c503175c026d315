package usecase

import (
	"context"
	"fmt"
	"sync"

	"stockinsight/internal/domain/repository"
	mid "stockinsight/internal/middleware"
	applogger "stockinsight/pkg/logger"
)

// QuoteCollector owns the live trade feed. It keeps the stream
// connected, pushes every trade through the validation pipeline and
// hands the survivors to the hub.
type QuoteCollector struct {
	stream  repository.QuoteStream
	pipe    *mid.QuotePipeline
	metrics repository.Metrics
	log     *applogger.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewQuoteCollector(
	stream repository.QuoteStream,
	pipe *mid.QuotePipeline,
	metrics repository.Metrics,
	log *applogger.Logger,
) *QuoteCollector {
	return &QuoteCollector{
		stream:  stream,
		pipe:    pipe,
		metrics: metrics,
		log:     log,
		done:    make(chan struct{}),
	}
}

// Start connects, subscribes and launches the consume loop. It returns
// once the feed is up; reconnects after that are the loop's problem.
func (c *QuoteCollector) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	if err := c.stream.Connect(ctx); err != nil {
		cancel()
		return fmt.Errorf("collector connect: %w", err)
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		cancel()
		c.stream.Close()
		return fmt.Errorf("collector subscribe: %w", err)
	}

	c.pipe.Start(ctx)

	c.mu.Lock()
	c.started = true
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(ctx)
	return nil
}

// run cycles consume and reconnect until the context ends. Each
// consumeOnce owns one connection's channels; when they close, the loop
// dials fresh ones instead of selecting on the dead pair.
func (c *QuoteCollector) run(ctx context.Context) {
	defer close(c.done)

	for {
		c.consumeOnce(ctx)

		if ctx.Err() != nil {
			return
		}

		c.log.Warn("quote stream lost, reconnecting")
		if err := c.stream.Reconnect(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.metrics.RecordError("stream_reconnect")
			c.log.Error("stream reconnect failed", applogger.Error(err))
			continue
		}
		c.log.Info("quote stream reconnected")
	}
}

// consumeOnce drains one connection until it errors or closes.
func (c *QuoteCollector) consumeOnce(ctx context.Context) {
	quotes, errs := c.stream.Read(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case q, ok := <-quotes:
			if !ok {
				return
			}
			c.metrics.RecordQuote(q.Symbol)
			c.metrics.RecordLastPrice(q.Symbol, q.Price)
			if err := c.pipe.Process(ctx, q); err != nil {
				c.log.Debug("quote rejected",
					applogger.String("symbol", q.Symbol),
					applogger.Error(err))
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			c.metrics.RecordError("stream_read")
			c.log.Warn("stream read error", applogger.Error(err))
			return
		}
	}
}

// Shutdown stops the consume loop, then the pipeline, then the
// connection. Safe to call even when Start never succeeded.
func (c *QuoteCollector) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	started := c.started
	cancel := c.cancel
	c.started = false
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !started {
		return c.stream.Close()
	}

	select {
	case <-c.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	c.pipe.Stop()
	return c.stream.Close()
}
