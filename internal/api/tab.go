package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/resumend/client/internal/session"
)

// TabCookie carries the browser tab's controller id.
const TabCookie = "resumend_tab"

// tabFor returns the controller of the requesting tab. Unknown or expired
// ids get a fresh tab and a new cookie.
func tabFor(c echo.Context, tabs *session.Manager) *session.Controller {
	var id string
	if ck, err := c.Cookie(TabCookie); err == nil {
		id = ck.Value
	}
	ctrl, created := tabs.GetOrCreate(id)
	if created {
		c.SetCookie(&http.Cookie{
			Name:     TabCookie,
			Value:    ctrl.ID(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return ctrl
}
