package handler

import (
	"github.com/labstack/echo/v4"

	"stockinsight/internal/handler/api"
	"stockinsight/internal/handler/ws"
	xhttp "stockinsight/pkg/http"
)

// Router fans route registration out to the REST and websocket handlers.
type Router struct {
	api *api.DashboardHandler
	ws  *ws.StreamHandler
}

var _ xhttp.Handler = (*Router)(nil)

// NewRouter builds the top-level registrar. The stream handler may be
// nil when the live feed is disabled; its routes are then not mounted.
func NewRouter(apiHandler *api.DashboardHandler, streamHandler *ws.StreamHandler) *Router {
	return &Router{api: apiHandler, ws: streamHandler}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	r.api.RegisterRoutes(e)
	if r.ws != nil {
		r.ws.RegisterRoutes(e)
	}
}
