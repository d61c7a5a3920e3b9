// Package tvmaze is a client for the public TVmaze API.
package tvmaze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/marquee/marquee/internal/config"
)

var (
	ErrShowNotFound = errors.New("show not found")
	ErrAPIError     = errors.New("TVmaze API error")
	ErrRateLimited  = errors.New("TVmaze API rate limited")
)

// Show is the subset of a TVmaze show used for id translation.
type Show struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Language  string    `json:"language"`
	Premiered string    `json:"premiered"`
	Externals Externals `json:"externals"`
}

// Externals holds ids of the show on other indexers. Missing ids are zero.
type Externals struct {
	TVRage  int    `json:"tvrage"`
	TheTVDB int    `json:"thetvdb"`
	IMDb    string `json:"imdb"`
}

// Client is a TVmaze API client. TVmaze needs no credentials.
type Client struct {
	httpClient *http.Client
	config     config.TVMazeConfig
	logger     zerolog.Logger
}

// NewClient creates a new TVmaze client.
func NewClient(cfg config.TVMazeConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "tvmaze").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tvmaze"
}

// GetShow gets a show by TVmaze ID.
func (c *Client) GetShow(ctx context.Context, id int) (*Show, error) {
	endpoint := fmt.Sprintf("%s/shows/%d", c.config.BaseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrShowNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var show Show
	if err := json.NewDecoder(resp.Body).Decode(&show); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug().
		Int("id", id).
		Int("thetvdb", show.Externals.TheTVDB).
		Msg("Got show")

	return &show, nil
}
