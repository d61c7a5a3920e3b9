// Package metadata looks up series information from the TVDB and TVmaze.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/marquee/marquee/internal/config"
	"github.com/marquee/marquee/internal/metadata/tvdb"
	"github.com/marquee/marquee/internal/metadata/tvmaze"
	"github.com/marquee/marquee/internal/series"
)

var (
	ErrNotFound           = errors.New("metadata not found")
	ErrUnsupportedIndexer = errors.New("unsupported indexer")
)

// Series is a normalized series record.
type Series = tvdb.Series

// TVDBClient defines the TVDB operations used by the service.
type TVDBClient interface {
	IsConfigured() bool
	GetSeries(ctx context.Context, id int) (*tvdb.Series, error)
	SearchRemoteID(ctx context.Context, remoteID string) (int, error)
}

// TVMazeClient defines the TVmaze operations used by the service.
type TVMazeClient interface {
	GetShow(ctx context.Context, id int) (*tvmaze.Show, error)
}

// Service resolves identifiers and series details, caching results.
type Service struct {
	tvdb   TVDBClient
	tvmaze TVMazeClient
	cache  *Cache
	logger zerolog.Logger
}

// NewService creates a new metadata service with real API clients.
func NewService(cfg config.MetadataConfig, logger zerolog.Logger) *Service {
	cache := NewCache(CacheConfig{TTL: cfg.CacheTTL})
	return NewServiceWithClients(
		tvdb.NewClient(cfg.TVDB, logger),
		tvmaze.NewClient(cfg.TVMaze, logger),
		cache,
		logger,
	)
}

// NewServiceWithClients creates a metadata service with custom clients.
func NewServiceWithClients(tvdbClient TVDBClient, tvmazeClient TVMazeClient, cache *Cache, logger zerolog.Logger) *Service {
	if cache == nil {
		cache = NewCache(DefaultCacheConfig())
	}
	return &Service{
		tvdb:   tvdbClient,
		tvmaze: tvmazeClient,
		cache:  cache,
		logger: logger.With().Str("component", "metadata").Logger(),
	}
}

// Cache returns the service cache.
func (s *Service) Cache() *Cache {
	return s.cache
}

// Close releases the cache sweeper.
func (s *Service) Close() {
	s.cache.Close()
}

// TranslateToCanonical maps a native id on indexer to its TVDB id. It
// returns ErrNotFound when the indexer has no mapping for the id.
func (s *Service) TranslateToCanonical(ctx context.Context, indexer series.Indexer, id int) (int, error) {
	if indexer == series.CanonicalIndexer {
		return id, nil
	}

	key := fmt.Sprintf("translate:%s:%d", indexer, id)
	if v, ok := s.cache.Get(key); ok {
		if tvdbID, ok := v.(int); ok {
			return tvdbID, nil
		}
	}

	var (
		tvdbID int
		err    error
	)
	switch indexer {
	case series.IndexerTVMaze:
		tvdbID, err = s.fromTVMaze(ctx, id)
	case series.IndexerIMDB:
		tvdbID, err = s.fromRemoteID(ctx, fmt.Sprintf("tt%07d", id))
	case series.IndexerTMDB:
		tvdbID, err = s.fromRemoteID(ctx, strconv.Itoa(id))
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedIndexer, indexer)
	}
	if err != nil {
		s.logger.Debug().Err(err).Str("indexer", string(indexer)).Int("id", id).Msg("Identifier translation failed")
		return 0, err
	}

	s.cache.Set(key, tvdbID)
	s.logger.Debug().
		Str("indexer", string(indexer)).
		Int("id", id).
		Int("tvdbId", tvdbID).
		Msg("Translated identifier")
	return tvdbID, nil
}

func (s *Service) fromTVMaze(ctx context.Context, id int) (int, error) {
	show, err := s.tvmaze.GetShow(ctx, id)
	if err != nil {
		if errors.Is(err, tvmaze.ErrShowNotFound) {
			return 0, fmt.Errorf("%w: tvmaze show %d", ErrNotFound, id)
		}
		return 0, err
	}
	if show.Externals.TheTVDB <= 0 {
		return 0, fmt.Errorf("%w: tvmaze show %d has no tvdb id", ErrNotFound, id)
	}
	return show.Externals.TheTVDB, nil
}

func (s *Service) fromRemoteID(ctx context.Context, remoteID string) (int, error) {
	tvdbID, err := s.tvdb.SearchRemoteID(ctx, remoteID)
	if err != nil {
		if errors.Is(err, tvdb.ErrSeriesNotFound) {
			return 0, fmt.Errorf("%w: remote id %s", ErrNotFound, remoteID)
		}
		return 0, err
	}
	return tvdbID, nil
}

// GetSeries returns series details by TVDB id.
func (s *Service) GetSeries(ctx context.Context, tvdbID int) (*Series, error) {
	key := fmt.Sprintf("series:%d", tvdbID)
	if v, ok := s.cache.Get(key); ok {
		if result, ok := v.(*Series); ok {
			return result, nil
		}
	}

	result, err := s.tvdb.GetSeries(ctx, tvdbID)
	if err != nil {
		if errors.Is(err, tvdb.ErrSeriesNotFound) {
			return nil, fmt.Errorf("%w: tvdb series %d", ErrNotFound, tvdbID)
		}
		return nil, err
	}

	s.cache.Set(key, result)
	return result, nil
}

// DisplayName returns the title of the series. Non-canonical identifiers
// are translated first.
func (s *Service) DisplayName(ctx context.Context, id series.Identifier) (string, error) {
	tvdbID := id.ID
	if !id.IsCanonical() {
		var err error
		if tvdbID, err = s.TranslateToCanonical(ctx, id.Indexer, id.ID); err != nil {
			return "", err
		}
	}

	result, err := s.GetSeries(ctx, tvdbID)
	if err != nil {
		return "", err
	}
	return result.Title, nil
}
