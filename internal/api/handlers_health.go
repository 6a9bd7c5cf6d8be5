// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/resumend/client/internal/session"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version   string
	remoteURL string
	tabs      *session.Manager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, remoteURL string, tabs *session.Manager) HealthHandler {
	return &HealthHandlerImpl{
		version:   version,
		remoteURL: remoteURL,
		tabs:      tabs,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"remote":  h.remoteURL,
	}
	if h.tabs != nil {
		resp["tabs"] = h.tabs.Count()
	}
	return c.JSON(http.StatusOK, resp)
}
