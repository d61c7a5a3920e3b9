package notification

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for notifications.
type Handlers struct {
	service *Service
}

// NewHandlers creates new notification handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the notification routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
}

// List returns recent notifications, oldest first.
// GET /api/v1/notifications
func (h *Handlers) List(c echo.Context) error {
	items := h.service.Recent()
	if items == nil {
		items = []Notification{}
	}
	return c.JSON(http.StatusOK, items)
}
