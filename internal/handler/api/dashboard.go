package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"stockinsight/internal/domain/models"
	domrepo "stockinsight/internal/domain/repository"
	"stockinsight/internal/services/quant"
	"stockinsight/internal/usecase"
	xhttp "stockinsight/pkg/http"
	xmw "stockinsight/pkg/http/middleware"
	xlogger "stockinsight/pkg/logger"
)

// DashboardHandler exposes the analytics engine over REST. Every endpoint
// binds and validates its request struct, delegates to the usecase and
// maps domain errors onto HTTP statuses.
type DashboardHandler struct {
	logger *xlogger.Logger
	dash   *usecase.Dashboard
	rl     xmw.Allower
}

// NewDashboardHandler builds the handler. The rate limiter may be nil
// when inbound limiting is disabled.
func NewDashboardHandler(logger *xlogger.Logger, dash *usecase.Dashboard, rl xmw.Allower) *DashboardHandler {
	return &DashboardHandler{logger: logger, dash: dash, rl: rl}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	if h.rl != nil {
		g.Use(xmw.RateLimit(h.rl))
	}
	g.GET("/chart", h.Chart)
	g.GET("/risk", h.Risk)
	g.GET("/simulate", h.Simulate)
	g.GET("/compare", h.Compare)
	g.GET("/forecast", h.Forecast)
	g.GET("/profile", h.Profile)
	g.GET("/sentiment", h.Sentiment)
	g.GET("/quote", h.Quote)
}

func (h *DashboardHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func (h *DashboardHandler) Chart(c echo.Context) error {
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.dash.Chart(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("chart usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Risk(c echo.Context) error {
	req := &models.RiskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.dash.Risk(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("risk usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Simulate(c echo.Context) error {
	req := &models.SimulateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.dash.Simulate(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("simulate usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	// Each unseeded run is a fresh draw.
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Compare(c echo.Context) error {
	req := &models.CompareRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.Symbols = splitSymbols(req.Symbols)

	res, err := h.dash.Compare(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("compare usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.dash.Forecast(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("forecast usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=600")
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Profile(c echo.Context) error {
	req := &models.ProfileRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.dash.Profile(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("profile usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Sentiment(c echo.Context) error {
	req := &models.SentimentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.dash.Sentiment(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("sentiment usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=120")
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Quote(c echo.Context) error {
	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.dash.Quote(c.Request().Context(), req.Symbol)
	if err != nil {
		h.logger.Error("quote usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, res)
}

// mapDomainError translates engine and provider failures into AppErrors
// with the right status. Anything unrecognized surfaces as a 500.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, quant.ErrInvalidParameter):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, quant.ErrInsufficientData),
		errors.Is(err, quant.ErrDegenerateInput):
		return xhttp.UnprocessableError(err.Error()).WithError(err)
	case errors.Is(err, domrepo.ErrSymbolNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrFeatureDisabled):
		return xhttp.ServiceUnavailableError(err.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.ServiceUnavailableError("operation timed out").WithError(err)
	default:
		return err
	}
}

// splitSymbols accepts both ?symbols=A&symbols=B and ?symbols=A,B.
func splitSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.Split(s, ",")...)
	}
	return out
}
