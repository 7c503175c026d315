package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stockinsight/internal/domain/models"
)

type fakeProc struct {
	mu   sync.Mutex
	got  []*models.Quote
	fail bool
}

func (f *fakeProc) Process(_ context.Context, q *models.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("downstream down")
	}
	f.got = append(f.got, q)
	return nil
}

func (f *fakeProc) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

func (f *fakeProc) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{errors: make(map[string]int)}
}

func (m *fakeMetrics) RecordQuote(string) {}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}
func (m *fakeMetrics) RecordLastPrice(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)   {}

func (m *fakeMetrics) errCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func validQuote(symbol string) *models.Quote {
	return &models.Quote{Symbol: symbol, Price: 100, Volume: 10, Timestamp: time.Now().Unix()}
}

func TestPipelineRejectsInvalidQuotes(t *testing.T) {
	proc := &fakeProc{}
	p := NewQuotePipeline(proc, newFakeMetrics())
	ctx := context.Background()

	cases := []*models.Quote{
		nil,
		{Symbol: "", Price: 100, Timestamp: 1},
		{Symbol: "AAPL", Price: 100, Timestamp: 0},
		{Symbol: "AAPL", Price: 0, Timestamp: 1},
		{Symbol: "AAPL", Price: 100, Volume: -1, Timestamp: 1},
	}
	for i, q := range cases {
		if err := p.Process(ctx, q); err == nil {
			t.Errorf("case %d: invalid quote accepted", i)
		}
	}
	if proc.count() != 0 {
		t.Errorf("downstream saw %d invalid quotes", proc.count())
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &fakeProc{}
	metrics := newFakeMetrics()
	p := NewQuotePipeline(proc, metrics, WithMaxRPS(1))
	ctx := context.Background()

	if err := p.Process(ctx, validQuote("AAPL")); err != nil {
		t.Fatalf("first quote: %v", err)
	}
	// Immediately after, the same symbol is over budget; another symbol is not.
	if err := p.Process(ctx, validQuote("AAPL")); err != nil {
		t.Fatalf("throttled quote should drop silently, got %v", err)
	}
	if err := p.Process(ctx, validQuote("MSFT")); err != nil {
		t.Fatalf("other symbol: %v", err)
	}

	if proc.count() != 2 {
		t.Errorf("downstream got %d quotes, want 2", proc.count())
	}
	if metrics.errCount("pipeline_throttle") != 1 {
		t.Errorf("throttle count = %d, want 1", metrics.errCount("pipeline_throttle"))
	}
}

func TestPipelineBuffersAndFlushes(t *testing.T) {
	proc := &fakeProc{}
	proc.setFail(true)
	p := NewQuotePipeline(proc, newFakeMetrics(), WithBufferSize(4))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Process(ctx, validQuote("AAPL")); err == nil {
		t.Fatal("expected downstream error")
	}

	proc.setFail(false)
	p.Start(ctx)
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for proc.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("buffered quote never flushed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
