// handlers_review.go - Resume review operation handlers
package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/resumend/client/internal/models"
	"github.com/resumend/client/internal/session"
	"github.com/vmihailenco/msgpack/v5"
)

// queryRequest carries the query text. A nil Query means the field was absent.
type queryRequest struct {
	Query *string `json:"query"`
}

// HandleSelectFile accepts the picked or dropped file (multipart field
// "file", optional "source") and starts its upload.
func (h *Handler) HandleSelectFile(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	source := models.FileSource(c.FormValue("source"))
	if source != models.SourceDrop {
		source = models.SourcePicker
	}
	mediaType := fh.Header.Get(echo.HeaderContentType)

	src, err := fh.Open()
	if err != nil {
		return NewBadRequestError("failed to open uploaded file", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return NewBadRequestError("failed to read uploaded file", err)
	}

	ctrl := tabFor(c, h.tabs)
	if err := ctrl.SelectFile(source, fh.Filename, mediaType, data); err != nil {
		if errors.Is(err, session.ErrNotPDF) {
			return NewNotPDFError(err, mediaType)
		}
		return NewInternalError("failed to start upload", err)
	}
	return c.JSON(http.StatusAccepted, ctrl.State())
}

// HandleUpdateQueryText stores the input value. Empty text is allowed.
func (h *Handler) HandleUpdateQueryText(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.Query == nil {
		return NewBadRequestError("missing field: query", nil)
	}
	tabFor(c, h.tabs).UpdateQueryText(*req.Query)
	return c.NoContent(http.StatusNoContent)
}

// HandleSubmitQuery opens the chat and asks the service. A query in the
// body replaces the stored text first.
func (h *Handler) HandleSubmitQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	ctrl := tabFor(c, h.tabs)
	if req.Query != nil {
		ctrl.UpdateQueryText(*req.Query)
	}
	ctrl.SubmitQuery()
	return c.JSON(http.StatusAccepted, ctrl.State())
}

// HandleReset returns the tab to the landing view.
func (h *Handler) HandleReset(c echo.Context) error {
	ctrl := tabFor(c, h.tabs)
	ctrl.Reset()
	return c.JSON(http.StatusOK, ctrl.State())
}

// HandleGetState returns the tab's state snapshot.
func (h *Handler) HandleGetState(c echo.Context) error {
	return c.JSON(http.StatusOK, tabFor(c, h.tabs).State())
}

// HandleGetStateMsgpack returns the state snapshot in MessagePack format.
func (h *Handler) HandleGetStateMsgpack(c echo.Context) error {
	data, err := msgpack.Marshal(tabFor(c, h.tabs).State())
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}
