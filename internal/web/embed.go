// Package web provides the embedded view templates and static assets.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/resumend/client/internal/models"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static/*
var staticFiles embed.FS

// ViewData is everything a page render needs.
type ViewData struct {
	State        models.State
	FeedbackHTML template.HTML
	Pages        int
	// Poll makes the page watch /api/state until a pending request settles.
	Poll bool
}

// NewViewData derives the page data for a state snapshot.
func NewViewData(st models.State, feedbackHTML template.HTML, pages int) ViewData {
	return ViewData{
		State:        st,
		FeedbackHTML: feedbackHTML,
		Pages:        pages,
		Poll:         Pending(st),
	}
}

// Pending reports whether the view is waiting on the remote service.
func Pending(st models.State) bool {
	if st.ShowSpinner {
		return true
	}
	return st.Phase == models.PhaseReviewing && st.Branch == models.BranchLoading
}

// Renderer executes the page templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the full page for data.
func (r *Renderer) Render(w io.Writer, data ViewData) error {
	return r.tmpl.ExecuteTemplate(w, "layout", data)
}

// GetFileSystem returns the embedded static assets with static/ as root.
func GetFileSystem() (fs.FS, error) {
	return fs.Sub(staticFiles, "static")
}

// RegisterStaticRoutes serves the embedded assets under /static/.
func RegisterStaticRoutes(e *echo.Echo) error {
	staticFS, err := GetFileSystem()
	if err != nil {
		return err
	}
	fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
	e.GET("/static/*", echo.WrapHandler(fileServer))
	return nil
}
