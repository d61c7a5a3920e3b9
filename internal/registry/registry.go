// Package registry stores the shows in the library.
package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/marquee/marquee/internal/quality"
	"github.com/marquee/marquee/internal/series"
)

var (
	ErrShowNotFound  = errors.New("show not found")
	ErrDuplicateShow = errors.New("show already exists")
)

// Show is a show in the library.
type Show struct {
	ID            int64             `json:"id"`
	Identifier    series.Identifier `json:"identifier"`
	Title         string            `json:"title"`
	Year          int               `json:"year,omitempty"`
	Network       string            `json:"network,omitempty"`
	Path          string            `json:"path"`
	RootDir       string            `json:"rootDir"`
	Language      string            `json:"language"`
	Status        series.Status     `json:"status"`
	StatusAfter   series.Status     `json:"statusAfter"`
	Quality       quality.Selection `json:"quality"`
	SeasonFolders bool              `json:"seasonFolders"`
	Subtitles     bool              `json:"subtitles"`
	Anime         bool              `json:"anime"`
	Scene         bool              `json:"scene"`
	Blacklist     []string          `json:"blacklist"`
	Whitelist     []string          `json:"whitelist"`
	AddedAt       time.Time         `json:"addedAt"`
}

// Registry provides show persistence.
type Registry struct {
	db     *sql.DB
	logger zerolog.Logger
}

// New creates a registry over db.
func New(db *sql.DB, logger zerolog.Logger) *Registry {
	return &Registry{
		db:     db,
		logger: logger.With().Str("component", "registry").Logger(),
	}
}

// mapSQLiteError converts SQLite errors to package errors.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrShowNotFound
	}
	// modernc.org/sqlite wraps errors; check the message for constraint violations
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicateShow
	}
	return err
}

// Exists reports whether a show with the identifier is in the library.
func (r *Registry) Exists(ctx context.Context, id series.Identifier) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shows WHERE indexer = ? AND indexer_id = ?`,
		string(id.Indexer), id.ID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check show exists: %w", err)
	}
	return n > 0, nil
}

// Create inserts a show and sets its ID and AddedAt.
func (r *Registry) Create(ctx context.Context, s *Show) error {
	allowed, err := encodeList(s.Quality.Allowed)
	if err != nil {
		return err
	}
	preferred, err := encodeList(s.Quality.Preferred)
	if err != nil {
		return err
	}
	blacklist, err := encodeList(s.Blacklist)
	if err != nil {
		return err
	}
	whitelist, err := encodeList(s.Whitelist)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO shows (indexer, indexer_id, title, year, network, path, root_dir, language,
			default_status, default_status_after, quality_allowed, quality_preferred,
			season_folders, subtitles, anime, scene, blacklist, whitelist, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(s.Identifier.Indexer), s.Identifier.ID, s.Title, nullInt(s.Year), nullString(s.Network),
		s.Path, s.RootDir, s.Language, string(s.Status), string(s.StatusAfter), allowed, preferred,
		s.SeasonFolders, s.Subtitles, s.Anime, s.Scene, blacklist, whitelist, now,
	)
	if err != nil {
		return fmt.Errorf("insert show %s: %w", s.Identifier.Slug(), mapSQLiteError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	s.ID = id
	s.AddedAt = now

	r.logger.Info().Str("slug", s.Identifier.Slug()).Str("title", s.Title).Msg("Show added to library")
	return nil
}

const selectColumns = `id, indexer, indexer_id, title, year, network, path, root_dir, language,
	default_status, default_status_after, quality_allowed, quality_preferred,
	season_folders, subtitles, anime, scene, blacklist, whitelist, added_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanShow(row scanner) (*Show, error) {
	var (
		s                      Show
		indexer, status, after string
		year                   sql.NullInt64
		network                sql.NullString
		allowed, preferred     string
		blacklist, whitelist   string
	)
	err := row.Scan(&s.ID, &indexer, &s.Identifier.ID, &s.Title, &year, &network, &s.Path, &s.RootDir,
		&s.Language, &status, &after, &allowed, &preferred,
		&s.SeasonFolders, &s.Subtitles, &s.Anime, &s.Scene, &blacklist, &whitelist, &s.AddedAt)
	if err != nil {
		return nil, err
	}

	s.Identifier.Indexer = series.Indexer(indexer)
	s.Status = series.Status(status)
	s.StatusAfter = series.Status(after)
	s.Year = int(year.Int64)
	s.Network = network.String

	if s.Quality.Allowed, err = decodeList(allowed); err != nil {
		return nil, err
	}
	if s.Quality.Preferred, err = decodeList(preferred); err != nil {
		return nil, err
	}
	if s.Blacklist, err = decodeList(blacklist); err != nil {
		return nil, err
	}
	if s.Whitelist, err = decodeList(whitelist); err != nil {
		return nil, err
	}
	return &s, nil
}

// Get returns a show by row ID.
func (r *Registry) Get(ctx context.Context, id int64) (*Show, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM shows WHERE id = ?`, id)
	s, err := scanShow(row)
	if err != nil {
		return nil, fmt.Errorf("get show %d: %w", id, mapSQLiteError(err))
	}
	return s, nil
}

// GetByIdentifier returns a show by its indexer identifier.
func (r *Registry) GetByIdentifier(ctx context.Context, id series.Identifier) (*Show, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM shows WHERE indexer = ? AND indexer_id = ?`,
		string(id.Indexer), id.ID)
	s, err := scanShow(row)
	if err != nil {
		return nil, fmt.Errorf("get show %s: %w", id.Slug(), mapSQLiteError(err))
	}
	return s, nil
}

// List returns all shows ordered by title.
func (r *Registry) List(ctx context.Context) ([]*Show, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM shows ORDER BY title COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("list shows: %w", err)
	}
	defer rows.Close()

	shows := []*Show{}
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan show: %w", err)
		}
		shows = append(shows, s)
	}
	return shows, rows.Err()
}

// Delete removes a show by its identifier.
func (r *Registry) Delete(ctx context.Context, id series.Identifier) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM shows WHERE indexer = ? AND indexer_id = ?`,
		string(id.Indexer), id.ID)
	if err != nil {
		return fmt.Errorf("delete show %s: %w", id.Slug(), err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete show %s: %w", id.Slug(), err)
	}
	if n == 0 {
		return fmt.Errorf("delete show %s: %w", id.Slug(), ErrShowNotFound)
	}

	r.logger.Info().Str("slug", id.Slug()).Msg("Show removed from library")
	return nil
}

// Count returns the number of shows in the library.
func (r *Registry) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shows`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count shows: %w", err)
	}
	return n, nil
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}

func decodeList(v string) ([]string, error) {
	out := []string{}
	if v == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return out, nil
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
