package registry

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marquee/marquee/internal/series"
)

// Handlers provides HTTP handlers for show operations
type Handlers struct {
	registry *Registry
}

// NewHandlers creates new show handlers
func NewHandlers(registry *Registry) *Handlers {
	return &Handlers{registry: registry}
}

// RegisterRoutes registers show routes
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:slug", h.Get)
	g.DELETE("/:slug", h.Delete)
}

// List returns all shows
// GET /api/v1/shows
func (h *Handlers) List(c echo.Context) error {
	shows, err := h.registry.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, shows)
}

// Get returns a show by slug
// GET /api/v1/shows/:slug
func (h *Handlers) Get(c echo.Context) error {
	id, err := series.FromSlug(c.Param("slug"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	show, err := h.registry.GetByIdentifier(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrShowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "show not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, show)
}

// Delete removes a show from the library. Files on disk are left alone.
// DELETE /api/v1/shows/:slug
func (h *Handlers) Delete(c echo.Context) error {
	id, err := series.FromSlug(c.Param("slug"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.registry.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrShowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "show not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
