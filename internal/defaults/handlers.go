package defaults

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for defaults operations
type Handlers struct {
	service *Service
}

// NewHandlers creates new defaults handlers
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers defaults routes
func (h *Handlers) RegisterRoutes(defaults, rootDirs *echo.Group) {
	defaults.GET("", h.Get)
	defaults.PUT("", h.Update)

	rootDirs.GET("", h.ListRootDirs)
	rootDirs.POST("", h.AddRootDir)
	rootDirs.DELETE("", h.RemoveRootDir)
	rootDirs.PUT("/default", h.SetDefaultRootDir)
}

// Get returns the current defaults
// GET /api/v1/defaults
func (h *Handlers) Get(c echo.Context) error {
	d, err := h.service.Snapshot(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

// Update applies a partial change to the defaults
// PUT /api/v1/defaults
func (h *Handlers) Update(c echo.Context) error {
	var input Update
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	d, err := h.service.Update(c.Request().Context(), input)
	if err != nil {
		if errors.Is(err, ErrInvalidDefaults) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

// RootDirsResponse describes the configured root directories.
type RootDirsResponse struct {
	Default string   `json:"default"`
	Dirs    []string `json:"dirs"`
}

type rootDirRequest struct {
	Path      string `json:"path" query:"path" form:"path"`
	IsDefault bool   `json:"default" query:"default" form:"default"`
}

// ListRootDirs returns the root directories and the default
// GET /api/v1/rootdirs
func (h *Handlers) ListRootDirs(c echo.Context) error {
	return h.respondRootDirs(c, http.StatusOK)
}

// AddRootDir adds a root directory
// POST /api/v1/rootdirs
func (h *Handlers) AddRootDir(c echo.Context) error {
	var req rootDirRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.AddRootDir(c.Request().Context(), req.Path, req.IsDefault); err != nil {
		return rootDirError(err)
	}
	return h.respondRootDirs(c, http.StatusCreated)
}

// RemoveRootDir removes a root directory
// DELETE /api/v1/rootdirs?path=...
func (h *Handlers) RemoveRootDir(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path is required")
	}

	if err := h.service.RemoveRootDir(c.Request().Context(), path); err != nil {
		return rootDirError(err)
	}
	return h.respondRootDirs(c, http.StatusOK)
}

// SetDefaultRootDir marks a root directory as the default
// PUT /api/v1/rootdirs/default
func (h *Handlers) SetDefaultRootDir(c echo.Context) error {
	var req rootDirRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.SetDefaultRootDir(c.Request().Context(), req.Path); err != nil {
		return rootDirError(err)
	}
	return h.respondRootDirs(c, http.StatusOK)
}

func (h *Handlers) respondRootDirs(c echo.Context, status int) error {
	idx, dirs, err := h.service.RootDirs(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(status, RootDirsResponse{
		Default: DefaultRootDir(RootDirList(idx, dirs)),
		Dirs:    dirs,
	})
}

func rootDirError(err error) error {
	switch {
	case errors.Is(err, ErrRootDirNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrRootDirExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidDefaults):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
