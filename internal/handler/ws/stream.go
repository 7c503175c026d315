package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"stockinsight/internal/usecase"
	applogger "stockinsight/pkg/logger"
	"stockinsight/pkg/util"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	// readLimit bounds inbound frames; clients only send control traffic.
	readLimit = 512
)

// StreamHandler relays live quotes from the hub to browser websockets.
type StreamHandler struct {
	hub *usecase.QuoteHub
	log *applogger.Logger
	up  websocket.Upgrader
}

func NewStreamHandler(hub *usecase.QuoteHub, log *applogger.Logger) *StreamHandler {
	return &StreamHandler{
		hub: hub,
		log: log,
		up: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard frontend is served from a different origin in
			// local setups.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/quotes", h.Quotes)
}

// Quotes upgrades the connection and streams quotes filtered to the
// symbols query parameter; with no filter the client sees the whole feed.
func (h *StreamHandler) Quotes(c echo.Context) error {
	conn, err := h.up.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", applogger.Error(err))
		return err
	}

	symbols := parseSymbols(c.QueryParams()["symbols"])
	client := h.hub.Register(symbols)
	h.log.Debug("websocket client connected",
		applogger.Strings("symbols", symbols),
		applogger.Int("clients", h.hub.ClientCount()))

	go h.writeLoop(conn, client)
	h.readLoop(conn)

	h.hub.Unregister(client)
	h.log.Debug("websocket client disconnected",
		applogger.Int("clients", h.hub.ClientCount()))
	return nil
}

// readLoop consumes inbound frames until the peer goes away, so close
// and pong control frames keep being processed. Payloads are ignored.
func (h *StreamHandler) readLoop(conn *websocket.Conn) {
	defer conn.Close()
	conn.SetReadLimit(readLimit)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop pushes hub quotes and periodic pings. Closing the connection
// on exit unblocks the read side too.
func (h *StreamHandler) writeLoop(conn *websocket.Conn, client *usecase.HubClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case q, ok := <-client.C():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(q); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// parseSymbols accepts both repeated parameters and comma lists.
func parseSymbols(raw []string) []string {
	parts := make([]string, 0, len(raw))
	for _, r := range raw {
		parts = append(parts, strings.Split(r, ",")...)
	}
	return util.NormalizeSymbols(parts)
}
