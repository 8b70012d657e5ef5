package rest

import (
	"context"
	"net/http"
	"time"

	"poemEval/business/stats"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	StatsHandler struct {
		statsService StatsService
		timeout      time.Duration
	}

	StatsService interface {
		Coverage(ctx context.Context) (stats.CoverageStats, error)
	}
)

func NewStatsHandler(svc StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: svc,
		timeout:      10 * time.Second,
	}
}

func (h *StatsHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	coverage, err := h.statsService.Coverage(ctx)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(coverage))
}
