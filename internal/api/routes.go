// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/resumend/client/internal/session"
	"github.com/resumend/client/internal/web"
	"go.uber.org/zap"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Tabs        *session.Manager
	Renderer    *web.Renderer
	Logger      *zap.Logger
	RemoteURL   string
	Version     string
	Development bool
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	View   ViewHandler
	Review ReviewHandler
	Stream StateStreamHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := NewHandler(deps.Tabs, deps.Renderer, logger.Named("api"))
	return &Handlers{
		Health: NewHealthHandler(deps.Version, deps.RemoteURL, deps.Tabs),
		View:   h,
		Review: h,
		Stream: NewWebSocketHandler(deps.Tabs, logger),
	}
}

// RegisterRoutes registers the page and all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/", handlers.View.HandleIndex)

	apiGroup := e.Group("/api")
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Controller operations
	apiGroup.POST("/file", handlers.Review.HandleSelectFile)
	apiGroup.GET("/file", handlers.View.HandleGetFile)
	apiGroup.PUT("/query-text", handlers.Review.HandleUpdateQueryText)
	apiGroup.POST("/query", handlers.Review.HandleSubmitQuery)
	apiGroup.POST("/reset", handlers.Review.HandleReset)

	// State snapshots
	apiGroup.GET("/state", handlers.Review.HandleGetState)
	apiGroup.GET("/state/msgpack", handlers.Review.HandleGetStateMsgpack)
	apiGroup.GET("/ws", handlers.Stream.HandleStateStream)
}

// SetupMiddleware configures the error handler
func SetupMiddleware(e *echo.Echo, deps *Dependencies) {
	e.HTTPErrorHandler = NewErrorHandler(deps.Logger, deps.Development)
}
