package middleware

import (
	"net/http"

	"poemEval/pkg/logger"

	jsonres "poemEval/pkg/response"

	"github.com/labstack/echo/v4"
)

// ErrorHandler is the fallback echo HTTP error handler for errors that
// escape the handlers (404s, method mismatches, panics from Recover).
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		}
	}

	if code >= http.StatusInternalServerError {
		logger.Error("unhandled request error", "path", c.Request().URL.Path, "error", err)
	}

	if err := c.JSON(code, jsonres.Error(http.StatusText(code), message, nil)); err != nil {
		logger.Error("failed to write error response", err)
	}
}
