// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	history bool
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, historyEnabled bool) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		history: historyEnabled,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"history": h.history,
	})
}
