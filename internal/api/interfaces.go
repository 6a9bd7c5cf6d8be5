// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import "github.com/labstack/echo/v4"

// ViewHandler renders the tab's page and serves the viewer file
type ViewHandler interface {
	HandleIndex(c echo.Context) error
	HandleGetFile(c echo.Context) error
}

// ReviewHandler maps requests onto the tab's controller operations
type ReviewHandler interface {
	HandleSelectFile(c echo.Context) error
	HandleUpdateQueryText(c echo.Context) error
	HandleSubmitQuery(c echo.Context) error
	HandleReset(c echo.Context) error
	HandleGetState(c echo.Context) error
	HandleGetStateMsgpack(c echo.Context) error
}

// StateStreamHandler pushes state changes over a WebSocket
type StateStreamHandler interface {
	HandleStateStream(c echo.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
