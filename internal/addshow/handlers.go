package addshow

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marquee/marquee/internal/defaults"
)

// DefaultsProvider supplies the current defaults snapshot.
type DefaultsProvider interface {
	Snapshot(ctx context.Context) (defaults.Defaults, error)
}

// Notifier emits UI notifications.
type Notifier interface {
	Message(title, body string)
	Error(title, body string)
}

// Form field names accepted by the controller.
const (
	fieldShowSlug             = "showslug"
	fieldShowName             = "show_name"
	fieldConfigureShowOptions = "configure_show_options"
	fieldQualityPreset        = "quality_preset"
	fieldAllowedQualities     = "any_qualities"
	fieldPreferredQualities   = "best_qualities"
	fieldSeasonFolders        = "season_folders"
	fieldSubtitles            = "subtitles"
	fieldAnime                = "anime"
	fieldScene                = "scene"
	fieldBlacklist            = "blacklist"
	fieldWhitelist            = "whitelist"
	fieldRootDir              = "root_dir"
	fieldDefaultStatus        = "default_status"
	fieldDefaultStatusAfter   = "default_status_after"
	fieldIndexerLang          = "indexer_lang"
)

// Handlers provides the add-show controller.
type Handlers struct {
	resolver *Resolver
	defaults DefaultsProvider
	notifier Notifier
}

// NewHandlers creates the add-show controller.
func NewHandlers(resolver *Resolver, defaults DefaultsProvider, notifier Notifier) *Handlers {
	return &Handlers{resolver: resolver, defaults: defaults, notifier: notifier}
}

// RegisterRoutes registers the controller routes
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.POST("/addShowByID", h.AddShowByID)
}

// DecodeInput reads the add-show fields from the query string or form body.
func DecodeInput(c echo.Context) Input {
	return Input{
		ShowSlug:             c.FormValue(fieldShowSlug),
		ShowName:             c.FormValue(fieldShowName),
		ConfigureShowOptions: c.FormValue(fieldConfigureShowOptions),
		QualityPreset:        c.FormValue(fieldQualityPreset),
		AllowedQualities:     c.FormValue(fieldAllowedQualities),
		PreferredQualities:   c.FormValue(fieldPreferredQualities),
		SeasonFolders:        c.FormValue(fieldSeasonFolders),
		Subtitles:            c.FormValue(fieldSubtitles),
		Anime:                c.FormValue(fieldAnime),
		Scene:                c.FormValue(fieldScene),
		Blacklist:            c.FormValue(fieldBlacklist),
		Whitelist:            c.FormValue(fieldWhitelist),
		RootDir:              c.FormValue(fieldRootDir),
		DefaultStatus:        c.FormValue(fieldDefaultStatus),
		DefaultStatusAfter:   c.FormValue(fieldDefaultStatusAfter),
		IndexerLang:          c.FormValue(fieldIndexerLang),
	}
}

// AddShowByID resolves and queues a show addition
// POST /addShows/addShowByID
func (h *Handlers) AddShowByID(c echo.Context) error {
	ctx := c.Request().Context()
	in := DecodeInput(c)

	snapshot, err := h.defaults.Snapshot(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError,
			NewResponse(false, "Unable to load library defaults", ""))
	}

	req, err := h.resolver.Resolve(ctx, in, snapshot)
	if err != nil {
		var rej *Rejection
		if !errors.As(err, &rej) {
			rej = &Rejection{Reason: ReasonFailed, Slug: in.ShowSlug, ShowName: in.ShowName, Err: err}
		}
		if rej.Reason == ReasonIdentifierResolutionFailed {
			h.notifier.Error(
				fmt.Sprintf("Unable to add %s", rej.ShowName),
				fmt.Sprintf("Could not add %s. We were unable to locate the tvdb id at this time.", rej.ShowName),
			)
		}
		return c.JSON(StatusForReason(rej.Reason), NewResponse(false, RejectionMessage(rej), ""))
	}

	h.resolver.Submit(ctx, req)

	message := fmt.Sprintf("Adding the specified show %s", req.DisplayName)
	h.notifier.Message("Show added", message)
	return c.JSON(http.StatusOK, NewResponse(true, message, "home"))
}

// StatusForReason maps a rejection reason to an HTTP status.
func StatusForReason(reason Reason) int {
	switch reason {
	case ReasonInvalidSlug:
		return http.StatusBadRequest
	case ReasonIdentifierResolutionFailed:
		return http.StatusNotFound
	case ReasonDuplicateShow:
		return http.StatusConflict
	case ReasonNoRootDirectory:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// RejectionMessage returns the user-facing message for a rejection.
func RejectionMessage(rej *Rejection) string {
	switch rej.Reason {
	case ReasonInvalidSlug:
		return fmt.Sprintf("Invalid show identifier %q", rej.Slug)
	case ReasonIdentifierResolutionFailed:
		return fmt.Sprintf("Unable to find tvdb ID to add %s", rej.ShowName)
	case ReasonDuplicateShow:
		return "Show already exists"
	case ReasonNoRootDirectory:
		return "No root directories set up, please go back and add one."
	default:
		return "There was an error adding the show"
	}
}
