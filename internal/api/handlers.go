package api

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/resumend/client/internal/models"
	"github.com/resumend/client/internal/render"
	"github.com/resumend/client/internal/session"
	"github.com/resumend/client/internal/web"
	"go.uber.org/zap"
)

// Handler serves the tab views and maps requests onto controller operations.
type Handler struct {
	tabs     *session.Manager
	renderer *web.Renderer
	logger   *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(tabs *session.Manager, renderer *web.Renderer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		tabs:     tabs,
		renderer: renderer,
		logger:   logger,
	}
}

// HandleIndex renders the page for the tab's current phase.
func (h *Handler) HandleIndex(c echo.Context) error {
	ctrl := tabFor(c, h.tabs)
	st := ctrl.State()

	var feedbackHTML template.HTML
	if st.Branch == models.BranchFeedback {
		out, err := render.Markdown(st.Feedback)
		if err != nil {
			h.logger.Warn("feedback markdown failed, showing plain text", zap.Error(err))
			out = template.HTML("<pre>" + template.HTMLEscapeString(st.Feedback) + "</pre>")
		}
		feedbackHTML = out
	}

	var pages int
	if st.Phase == models.PhaseReviewing {
		if file := ctrl.File(); file != nil {
			n, err := render.PageCount(file.Data)
			if err != nil {
				h.logger.Debug("page count unavailable", zap.String("name", file.Name), zap.Error(err))
			}
			pages = n
		}
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, web.NewViewData(st, feedbackHTML, pages)); err != nil {
		return NewInternalError("failed to render page", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// HandleGetFile serves the selected PDF to the inline viewer. The handle
// is released on Reset.
func (h *Handler) HandleGetFile(c echo.Context) error {
	file := tabFor(c, h.tabs).File()
	if file == nil {
		return NewNotFoundError("file")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", file.Name))
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Blob(http.StatusOK, file.MediaType, file.Data)
}
