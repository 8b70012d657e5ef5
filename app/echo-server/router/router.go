package router

import (
	"poemEval/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupSessionRoutes(api *echo.Group, handler *rest.SessionHandler) {
	sessions := api.Group("/session")

	sessions.POST("/start", handler.Start)
	sessions.POST("/reveal", handler.Reveal)
	sessions.POST("/submit", handler.Submit)
	sessions.POST("/increase-limit", handler.IncreaseLimit)
	sessions.GET("/remaining/:user_id", handler.Remaining)
}

func SetupStatsRoutes(api *echo.Group, handler *rest.StatsHandler) {
	api.GET("/stats", handler.Get)
}
