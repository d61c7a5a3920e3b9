package addshow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/marquee/marquee/internal/defaults"
	"github.com/marquee/marquee/internal/formvalue"
	"github.com/marquee/marquee/internal/metadata"
	"github.com/marquee/marquee/internal/quality"
	"github.com/marquee/marquee/internal/series"
)

// Translator maps a native id on a non-canonical indexer to the canonical
// indexer's id. It returns an error matching metadata.ErrNotFound when no
// mapping exists.
type Translator interface {
	TranslateToCanonical(ctx context.Context, indexer series.Indexer, id int) (int, error)
}

// Registry reports whether a show is already in the library.
type Registry interface {
	Exists(ctx context.Context, id series.Identifier) (bool, error)
}

// Namer looks up display names.
type Namer interface {
	DisplayName(ctx context.Context, id series.Identifier) (string, error)
}

// GroupNamer resolves release group names and aliases to short names.
type GroupNamer interface {
	CanonicalizeGroupNames(ctx context.Context, names []string) ([]string, error)
}

// Enqueuer accepts resolved requests for asynchronous processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, req *Request) Handle
}

// Recorder observes resolution outcomes.
type Recorder interface {
	ObserveResolution(outcome string, elapsed time.Duration)
}

// OutcomeAccepted is the recorded outcome of a successful resolution.
const OutcomeAccepted = "Accepted"

// Resolver resolves and submits show additions. It holds no mutable state
// and is safe for concurrent use.
type Resolver struct {
	translator Translator
	registry   Registry
	namer      Namer
	groups     GroupNamer
	queue      Enqueuer
	recorder   Recorder
	logger     zerolog.Logger
}

// NewResolver creates a resolver over its collaborators.
func NewResolver(translator Translator, registry Registry, namer Namer, groups GroupNamer, queue Enqueuer, logger zerolog.Logger) *Resolver {
	return &Resolver{
		translator: translator,
		registry:   registry,
		namer:      namer,
		groups:     groups,
		queue:      queue,
		logger:     logger.With().Str("component", "addshow").Logger(),
	}
}

// SetRecorder sets the outcome recorder.
func (r *Resolver) SetRecorder(rec Recorder) {
	r.recorder = rec
}

// Resolve validates in against the library and d, returning the resolved
// request or a *Rejection.
func (r *Resolver) Resolve(ctx context.Context, in Input, d defaults.Defaults) (*Request, error) {
	start := time.Now()
	req, rej := r.resolve(ctx, in, d)

	outcome := OutcomeAccepted
	if rej != nil {
		outcome = string(rej.Reason)
		rej.Slug = in.ShowSlug
		rej.ShowName = in.ShowName

		ev := r.logger.Info()
		if rej.Reason == ReasonFailed {
			ev = r.logger.Error()
		}
		ev.Err(rej.Err).
			Str("slug", in.ShowSlug).
			Str("reason", string(rej.Reason)).
			Msg("Show addition rejected")
	}
	if r.recorder != nil {
		r.recorder.ObserveResolution(outcome, time.Since(start))
	}

	if rej != nil {
		return nil, rej
	}
	return req, nil
}

func reject(reason Reason, err error) *Rejection {
	return &Rejection{Reason: reason, Err: err}
}

func (r *Resolver) resolve(ctx context.Context, in Input, d defaults.Defaults) (*Request, *Rejection) {
	id, err := series.FromSlug(in.ShowSlug)
	if err != nil {
		return nil, reject(ReasonInvalidSlug, err)
	}

	if !id.IsCanonical() {
		tvdbID, err := r.translator.TranslateToCanonical(ctx, id.Indexer, id.ID)
		switch {
		case errors.Is(err, metadata.ErrNotFound):
			return nil, reject(ReasonIdentifierResolutionFailed, err)
		case err != nil:
			return nil, reject(ReasonFailed, fmt.Errorf("translate %s: %w", id.Slug(), err))
		case tvdbID <= 0:
			return nil, reject(ReasonIdentifierResolutionFailed, fmt.Errorf("%w: %s", metadata.ErrNotFound, id.Slug()))
		}
		id = series.Canonical(tvdbID)
	}

	exists, err := r.registry.Exists(ctx, id)
	if err != nil {
		return nil, reject(ReasonFailed, fmt.Errorf("check registry for %s: %w", id.Slug(), err))
	}
	if exists {
		return nil, reject(ReasonDuplicateShow, nil)
	}

	req := &Request{
		Identifier: id,
		Blacklist:  []string{},
		Whitelist:  []string{},
	}

	if formvalue.Checkbox(in.ConfigureShowOptions) {
		if rej := r.applyOverrides(ctx, req, in, d); rej != nil {
			return nil, rej
		}
	} else {
		applyDefaults(req, d)
	}

	if req.RootDirectory == "" {
		return nil, reject(ReasonNoRootDirectory, nil)
	}

	name, err := r.namer.DisplayName(ctx, id)
	if err != nil {
		return nil, reject(ReasonFailed, fmt.Errorf("look up name of %s: %w", id.Slug(), err))
	}
	req.DisplayName = name

	return req, nil
}

// applyOverrides fills req from the explicit form fields. Statuses and
// language fall back to d when absent or unparseable.
func (r *Resolver) applyOverrides(ctx context.Context, req *Request, in Input, d defaults.Defaults) *Rejection {
	req.SeasonFolders = formvalue.Checkbox(in.SeasonFolders)
	req.Subtitles = formvalue.Checkbox(in.Subtitles)
	req.Anime = formvalue.Checkbox(in.Anime)
	req.Scene = formvalue.Checkbox(in.Scene)

	var err error
	if req.Blacklist, err = r.canonicalGroups(ctx, in.Blacklist); err != nil {
		return reject(ReasonFailed, fmt.Errorf("canonicalize blacklist: %w", err))
	}
	if req.Whitelist, err = r.canonicalGroups(ctx, in.Whitelist); err != nil {
		return reject(ReasonFailed, fmt.Errorf("canonicalize whitelist: %w", err))
	}

	req.Quality = quality.Selection{
		Allowed:   quality.ParseList(in.AllowedQualities),
		Preferred: quality.ParseList(in.PreferredQualities),
	}
	// A numeric preset is a single combined value; it cannot carry a
	// separate preferred set.
	if formvalue.NonZeroInt(in.QualityPreset) {
		req.Quality.Preferred = []string{}
	}

	req.RootDirectory = strings.TrimSpace(in.RootDir)
	req.DefaultStatus = statusOr(in.DefaultStatus, d.Status)
	req.DefaultStatusAfter = statusOr(in.DefaultStatusAfter, d.StatusAfter)

	req.Language = strings.TrimSpace(in.IndexerLang)
	if req.Language == "" {
		req.Language = d.Language
	}
	return nil
}

func applyDefaults(req *Request, d defaults.Defaults) {
	req.Quality = quality.Split(d.Quality)
	req.SeasonFolders = d.SeasonFolders
	req.Subtitles = d.Subtitles
	req.Anime = d.Anime
	req.Scene = d.Scene
	req.DefaultStatus = d.Status
	req.DefaultStatusAfter = d.StatusAfter
	req.Language = d.Language
	req.RootDirectory = defaults.DefaultRootDir(d.RootDirs)
}

func (r *Resolver) canonicalGroups(ctx context.Context, raw string) ([]string, error) {
	names := formvalue.List(raw)
	if len(names) == 0 {
		return names, nil
	}
	return r.groups.CanonicalizeGroupNames(ctx, names)
}

func statusOr(v string, fallback series.Status) series.Status {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	st, err := series.ParseStatus(v)
	if err != nil {
		return fallback
	}
	return st
}

// Submit hands req to the show-addition queue. Enqueue failures are the
// queue's concern and are reported through its item status.
func (r *Resolver) Submit(ctx context.Context, req *Request) Handle {
	h := r.queue.Enqueue(ctx, req)
	r.logger.Info().
		Str("slug", req.Identifier.Slug()).
		Str("title", req.DisplayName).
		Str("handle", string(h)).
		Msg("Show addition queued")
	return h
}
