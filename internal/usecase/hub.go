package usecase

import (
	"context"
	"sync"

	"stockinsight/internal/domain/models"
	mid "stockinsight/internal/middleware"
	"stockinsight/pkg/util"
)

const clientSendBuffer = 64

// HubClient is one subscriber's view of the hub. Quotes arrive on C();
// the hub closes the channel on Unregister.
type HubClient struct {
	send    chan models.Quote
	symbols map[string]struct{}
}

func (c *HubClient) C() <-chan models.Quote { return c.send }

func (c *HubClient) wants(symbol string) bool {
	if len(c.symbols) == 0 {
		return true
	}
	_, ok := c.symbols[symbol]
	return ok
}

// QuoteHub fans validated quotes out to websocket subscribers. A slow
// subscriber loses quotes rather than stalling the feed for everyone
// else.
type QuoteHub struct {
	mu      sync.RWMutex
	clients map[*HubClient]struct{}
}

var _ mid.Proc = (*QuoteHub)(nil)

func NewQuoteHub() *QuoteHub {
	return &QuoteHub{clients: make(map[*HubClient]struct{})}
}

// Register adds a subscriber filtered to the given symbols. An empty
// list subscribes to every symbol on the feed.
func (h *QuoteHub) Register(symbols []string) *HubClient {
	c := &HubClient{send: make(chan models.Quote, clientSendBuffer)}
	if len(symbols) > 0 {
		c.symbols = make(map[string]struct{}, len(symbols))
		for _, s := range symbols {
			c.symbols[util.NormalizeSymbol(s)] = struct{}{}
		}
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

// Unregister removes the subscriber and closes its channel. Safe to call
// twice for the same client.
func (h *QuoteHub) Unregister(c *HubClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		close(c.send)
	}
}

// Broadcast delivers the quote to every matching subscriber without
// blocking. A full client buffer drops the quote for that client only.
func (h *QuoteHub) Broadcast(q models.Quote) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.wants(q.Symbol) {
			continue
		}
		select {
		case c.send <- q:
		default:
		}
	}
}

func (h *QuoteHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Process lets the hub terminate the realtime pipeline.
func (h *QuoteHub) Process(ctx context.Context, q *models.Quote) error {
	h.Broadcast(*q)
	return nil
}
