package showqueue

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marquee/marquee/internal/addshow"
)

// Handlers provides HTTP handlers for the show queue
type Handlers struct {
	queue *Queue
}

// NewHandlers creates new queue handlers
func NewHandlers(queue *Queue) *Handlers {
	return &Handlers{queue: queue}
}

// RegisterRoutes registers queue routes
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:handle", h.Get)
}

// List returns all queue items
// GET /api/v1/queue
func (h *Handlers) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.queue.List())
}

// Get returns a single queue item
// GET /api/v1/queue/:handle
func (h *Handlers) Get(c echo.Context) error {
	item, ok := h.queue.Get(addshow.Handle(c.Param("handle")))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "queue item not found")
	}
	return c.JSON(http.StatusOK, item)
}
