// Package addshow turns loosely-typed "add this show" input into a
// validated request and hands it to the show-addition queue.
package addshow

import (
	"fmt"

	"github.com/marquee/marquee/internal/quality"
	"github.com/marquee/marquee/internal/series"
)

// Input is the raw form input. Every field is optional at this stage.
type Input struct {
	ShowSlug             string
	ShowName             string
	ConfigureShowOptions string
	QualityPreset        string
	AllowedQualities     string
	PreferredQualities   string
	SeasonFolders        string
	Subtitles            string
	Anime                string
	Scene                string
	Blacklist            string
	Whitelist            string
	RootDir              string
	DefaultStatus        string
	DefaultStatusAfter   string
	IndexerLang          string
}

// Request is a fully resolved show addition. Identifier is always canonical.
type Request struct {
	Identifier         series.Identifier `json:"identifier"`
	DisplayName        string            `json:"displayName"`
	RootDirectory      string            `json:"rootDirectory"`
	DefaultStatus      series.Status     `json:"defaultStatus"`
	DefaultStatusAfter series.Status     `json:"defaultStatusAfter"`
	Quality            quality.Selection `json:"quality"`
	SeasonFolders      bool              `json:"seasonFolders"`
	Subtitles          bool              `json:"subtitles"`
	Anime              bool              `json:"anime"`
	Scene              bool              `json:"scene"`
	Blacklist          []string          `json:"blacklist"`
	Whitelist          []string          `json:"whitelist"`
	Language           string            `json:"language"`
}

// Handle acknowledges an enqueued request.
type Handle string

// Reason classifies why a request was rejected.
type Reason string

const (
	ReasonInvalidSlug                Reason = "InvalidSlug"
	ReasonIdentifierResolutionFailed Reason = "IdentifierResolutionFailed"
	ReasonDuplicateShow              Reason = "DuplicateShow"
	ReasonNoRootDirectory            Reason = "NoRootDirectory"
	ReasonFailed                     Reason = "Failed"
)

// Rejection is the error returned by Resolve. Err holds the underlying cause
// for ReasonFailed and, where there is one, for the other reasons.
type Rejection struct {
	Reason   Reason
	Slug     string
	ShowName string
	Err      error
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("add show %q rejected (%s): %v", r.Slug, r.Reason, r.Err)
	}
	return fmt.Sprintf("add show %q rejected (%s)", r.Slug, r.Reason)
}

func (r *Rejection) Unwrap() error {
	return r.Err
}
