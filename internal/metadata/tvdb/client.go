// Package tvdb is a client for the TVDB v4 API.
package tvdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/marquee/marquee/internal/config"
)

var (
	ErrAPIKeyMissing  = errors.New("TVDB API key is not configured")
	ErrSeriesNotFound = errors.New("series not found")
	ErrAPIError       = errors.New("TVDB API error")
	ErrAuthFailed     = errors.New("TVDB authentication failed")
	ErrRateLimited    = errors.New("TVDB API rate limited")
)

// TVDB tokens are valid for a month; refresh daily.
const tokenLifetime = 24 * time.Hour

// Client is a TVDB API client.
type Client struct {
	httpClient *http.Client
	config     config.TVDBConfig
	logger     zerolog.Logger

	// Token management
	mu          sync.RWMutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a new TVDB client.
func NewClient(cfg config.TVDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "tvdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tvdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// authenticate gets or refreshes the authentication token.
func (c *Client) authenticate(ctx context.Context) error {
	c.mu.RLock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return nil
	}

	body, err := json.Marshal(LoginRequest{APIKey: c.config.APIKey})
	if err != nil {
		return fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Msg("TVDB authentication failed")
		return ErrAuthFailed
	}

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}

	c.token = loginResp.Data.Token
	c.tokenExpiry = time.Now().Add(tokenLifetime)

	c.logger.Debug().Msg("TVDB authentication successful")
	return nil
}

// GetSeries gets series info by TVDB ID.
func (c *Client) GetSeries(ctx context.Context, id int) (*Series, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}
	if err := c.authenticate(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/series/%d/extended", c.config.BaseURL, id)
	params := url.Values{}
	params.Set("short", "true")

	var response SeriesResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	result := seriesDetailToResult(response.Data)

	c.logger.Debug().
		Int("id", id).
		Str("title", result.Title).
		Msg("Got series details")

	return &result, nil
}

// SearchRemoteID finds the TVDB series matching an external id such as an
// IMDb "tt" id or a TMDB id. It returns ErrSeriesNotFound when nothing
// matches or the matches are not series.
func (c *Client) SearchRemoteID(ctx context.Context, remoteID string) (int, error) {
	if !c.IsConfigured() {
		return 0, ErrAPIKeyMissing
	}
	if err := c.authenticate(ctx); err != nil {
		return 0, err
	}

	endpoint := fmt.Sprintf("%s/search/remoteid/%s", c.config.BaseURL, url.PathEscape(remoteID))

	var response RemoteIDResponse
	if err := c.doRequest(ctx, endpoint, nil, &response); err != nil {
		return 0, err
	}

	for _, item := range response.Data {
		if item.Series != nil && item.Series.ID > 0 {
			c.logger.Debug().
				Str("remoteId", remoteID).
				Int("tvdbId", item.Series.ID).
				Msg("Resolved remote id")
			return item.Series.ID, nil
		}
	}
	return 0, ErrSeriesNotFound
}

// doRequest performs an HTTP GET request with authentication.
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrSeriesNotFound
		case http.StatusUnauthorized:
			// Token might be expired, clear it
			c.mu.Lock()
			c.token = ""
			c.mu.Unlock()
			return fmt.Errorf("%w: unauthorized", ErrAPIError)
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func seriesDetailToResult(detail SeriesDetail) Series {
	year := 0
	if detail.Year != "" {
		year, _ = strconv.Atoi(detail.Year)
	}

	status := "continuing"
	switch detail.Status.Name {
	case "Ended":
		status = "ended"
	case "Upcoming":
		status = "upcoming"
	}

	network := ""
	switch {
	case detail.OriginalNetwork != nil:
		network = detail.OriginalNetwork.Name
	case detail.LatestNetwork != nil:
		network = detail.LatestNetwork.Name
	}

	imdbID := ""
	tmdbID := 0
	for _, rid := range detail.RemoteIDs {
		switch rid.SourceName {
		case "IMDB":
			imdbID = rid.ID
		case "TheMovieDB.com":
			tmdbID, _ = strconv.Atoi(rid.ID)
		}
	}

	return Series{
		TvdbID:   detail.ID,
		Title:    detail.Name,
		Year:     year,
		Network:  network,
		Overview: detail.Overview,
		Status:   status,
		Language: detail.OriginalLanguage,
		ImdbID:   imdbID,
		TmdbID:   tmdbID,
	}
}
