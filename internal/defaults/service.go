// Package defaults owns the library-wide defaults applied when a show is
// added without explicit options.
package defaults

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/marquee/marquee/internal/config"
	"github.com/marquee/marquee/internal/quality"
	"github.com/marquee/marquee/internal/series"
)

var (
	ErrInvalidDefaults = errors.New("invalid defaults")
	ErrRootDirExists   = errors.New("root directory already exists")
	ErrRootDirNotFound = errors.New("root directory not found")
)

// Settings keys.
const (
	KeyQuality         = "default_quality"
	KeySeasonFolders   = "default_season_folders"
	KeySubtitles       = "default_subtitles"
	KeyAnime           = "default_anime"
	KeyScene           = "default_scene"
	KeyStatus          = "default_status"
	KeyStatusAfter     = "default_status_after"
	KeyIndexerLanguage = "default_indexer_language"
	KeyRootDirs        = "root_dirs"
)

var allKeys = []string{
	KeyQuality, KeySeasonFolders, KeySubtitles, KeyAnime, KeyScene,
	KeyStatus, KeyStatusAfter, KeyIndexerLanguage, KeyRootDirs,
}

const rootDirSeparator = "|"

// Defaults is a read-only snapshot of the library defaults.
//
// RootDirs keeps the stored layout: element 0 is the decimal offset of the
// default directory among the elements that follow it.
type Defaults struct {
	Quality       int           `json:"quality"`
	SeasonFolders bool          `json:"seasonFolders"`
	Subtitles     bool          `json:"subtitles"`
	Anime         bool          `json:"anime"`
	Scene         bool          `json:"scene"`
	RootDirs      []string      `json:"rootDirs"`
	Status        series.Status `json:"status"`
	StatusAfter   series.Status `json:"statusAfter"`
	Language      string        `json:"language"`
}

// DefaultRootDir returns list[offset+1] where offset is list[0]. It returns
// "" when the list is empty, the offset is not a number, or it points past
// the end of the list.
func DefaultRootDir(list []string) string {
	if len(list) == 0 {
		return ""
	}
	offset, err := strconv.Atoi(strings.TrimSpace(list[0]))
	if err != nil || offset < 0 || offset+1 >= len(list) {
		return ""
	}
	return list[offset+1]
}

// RootDirList builds the stored list layout from a default index and the
// directories. An empty dirs slice yields an empty list.
func RootDirList(defaultIndex int, dirs []string) []string {
	if len(dirs) == 0 {
		return []string{}
	}
	if defaultIndex < 0 || defaultIndex >= len(dirs) {
		defaultIndex = 0
	}
	return append([]string{strconv.Itoa(defaultIndex)}, dirs...)
}

// SeedFromConfig converts the library configuration into the fallback
// defaults used for keys that have never been saved.
func SeedFromConfig(cfg config.LibraryConfig) (Defaults, error) {
	q, err := quality.PresetByName(cfg.QualityPreset)
	if err != nil {
		return Defaults{}, err
	}
	status, err := series.ParseStatus(cfg.Status)
	if err != nil {
		return Defaults{}, fmt.Errorf("library status: %w", err)
	}
	after, err := series.ParseStatus(cfg.StatusAfter)
	if err != nil {
		return Defaults{}, fmt.Errorf("library status_after: %w", err)
	}

	dirs := make([]string, 0, len(cfg.RootDirs))
	for _, d := range cfg.RootDirs {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, filepath.Clean(d))
		}
	}

	return Defaults{
		Quality:       q,
		SeasonFolders: cfg.SeasonFolders,
		Subtitles:     cfg.Subtitles,
		Anime:         cfg.Anime,
		Scene:         cfg.Scene,
		RootDirs:      RootDirList(0, dirs),
		Status:        status,
		StatusAfter:   after,
		Language:      cfg.IndexerLanguage,
	}, nil
}

// Service reads and writes defaults in the settings table.
type Service struct {
	db     *sql.DB
	seed   Defaults
	logger zerolog.Logger

	// serializes read-modify-write of the root dir list
	mu sync.Mutex
}

// NewService creates a defaults service. Seed supplies values for keys that
// are not stored yet.
func NewService(db *sql.DB, seed Defaults, logger zerolog.Logger) *Service {
	if seed.RootDirs == nil {
		seed.RootDirs = []string{}
	}
	return &Service{
		db:     db,
		seed:   seed,
		logger: logger.With().Str("component", "defaults").Logger(),
	}
}

// Snapshot returns the current defaults.
func (s *Service) Snapshot(ctx context.Context) (Defaults, error) {
	stored, err := s.readSettings(ctx)
	if err != nil {
		return Defaults{}, err
	}

	d := s.seed
	d.RootDirs = append([]string{}, s.seed.RootDirs...)

	if v, ok := stored[KeyQuality]; ok {
		if q, err := strconv.Atoi(v); err == nil {
			d.Quality = q
		}
	}
	readBool := func(key string, dst *bool) {
		if v, ok := stored[key]; ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}
	readBool(KeySeasonFolders, &d.SeasonFolders)
	readBool(KeySubtitles, &d.Subtitles)
	readBool(KeyAnime, &d.Anime)
	readBool(KeyScene, &d.Scene)

	if v, ok := stored[KeyStatus]; ok {
		if st, err := series.ParseStatus(v); err == nil {
			d.Status = st
		}
	}
	if v, ok := stored[KeyStatusAfter]; ok {
		if st, err := series.ParseStatus(v); err == nil {
			d.StatusAfter = st
		}
	}
	if v, ok := stored[KeyIndexerLanguage]; ok && v != "" {
		d.Language = v
	}
	if v, ok := stored[KeyRootDirs]; ok {
		d.RootDirs = decodeRootDirs(v)
	}

	return d, nil
}

// Update is a partial change to the defaults. Nil fields are left as they are.
// QualityPreset takes precedence over explicit quality lists.
type Update struct {
	QualityPreset      *string   `json:"qualityPreset,omitempty"`
	AllowedQualities   *[]string `json:"allowedQualities,omitempty"`
	PreferredQualities *[]string `json:"preferredQualities,omitempty"`
	SeasonFolders      *bool     `json:"seasonFolders,omitempty"`
	Subtitles          *bool     `json:"subtitles,omitempty"`
	Anime              *bool     `json:"anime,omitempty"`
	Scene              *bool     `json:"scene,omitempty"`
	Status             *string   `json:"status,omitempty"`
	StatusAfter        *string   `json:"statusAfter,omitempty"`
	Language           *string   `json:"language,omitempty"`
}

// Update validates and stores a partial change, returning the new snapshot.
func (s *Service) Update(ctx context.Context, u Update) (Defaults, error) {
	values := make(map[string]string)

	switch {
	case u.QualityPreset != nil:
		q, err := quality.PresetByName(*u.QualityPreset)
		if err != nil {
			return Defaults{}, fmt.Errorf("%w: %w", ErrInvalidDefaults, err)
		}
		values[KeyQuality] = strconv.Itoa(q)
	case u.AllowedQualities != nil || u.PreferredQualities != nil:
		current, err := s.Snapshot(ctx)
		if err != nil {
			return Defaults{}, err
		}
		sel := quality.Split(current.Quality)
		if u.AllowedQualities != nil {
			sel.Allowed = *u.AllowedQualities
		}
		if u.PreferredQualities != nil {
			sel.Preferred = *u.PreferredQualities
		}
		if len(sel.Allowed) == 0 {
			return Defaults{}, fmt.Errorf("%w: at least one allowed quality is required", ErrInvalidDefaults)
		}
		for _, name := range append(append([]string{}, sel.Allowed...), sel.Preferred...) {
			if _, ok := quality.TierByName(name); !ok {
				return Defaults{}, fmt.Errorf("%w: unknown quality %q", ErrInvalidDefaults, name)
			}
		}
		values[KeyQuality] = strconv.Itoa(quality.Combine(sel.Allowed, sel.Preferred))
	}

	setBool := func(key string, v *bool) {
		if v != nil {
			values[key] = strconv.FormatBool(*v)
		}
	}
	setBool(KeySeasonFolders, u.SeasonFolders)
	setBool(KeySubtitles, u.Subtitles)
	setBool(KeyAnime, u.Anime)
	setBool(KeyScene, u.Scene)

	for key, v := range map[string]*string{KeyStatus: u.Status, KeyStatusAfter: u.StatusAfter} {
		if v == nil {
			continue
		}
		st, err := series.ParseStatus(*v)
		if err != nil {
			return Defaults{}, fmt.Errorf("%w: %w", ErrInvalidDefaults, err)
		}
		values[key] = string(st)
	}

	if u.Language != nil {
		lang := strings.ToLower(strings.TrimSpace(*u.Language))
		if lang == "" {
			return Defaults{}, fmt.Errorf("%w: language must not be empty", ErrInvalidDefaults)
		}
		values[KeyIndexerLanguage] = lang
	}

	if err := s.writeSettings(ctx, values); err != nil {
		return Defaults{}, err
	}
	s.logger.Info().Int("keys", len(values)).Msg("Updated defaults")

	return s.Snapshot(ctx)
}

// RootDirs returns the index of the default root directory and the
// directories in order. Index is -1 when there are none.
func (s *Service) RootDirs(ctx context.Context) (int, []string, error) {
	d, err := s.Snapshot(ctx)
	if err != nil {
		return -1, nil, err
	}
	idx, dirs := splitRootDirs(d.RootDirs)
	return idx, dirs, nil
}

// AddRootDir appends a root directory, optionally making it the default.
// The first directory added always becomes the default.
func (s *Service) AddRootDir(ctx context.Context, dir string, makeDefault bool) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return fmt.Errorf("%w: root directory must not be empty", ErrInvalidDefaults)
	}
	dir = filepath.Clean(dir)

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, dirs, err := s.RootDirs(ctx)
	if err != nil {
		return err
	}
	if indexOf(dirs, dir) >= 0 {
		return fmt.Errorf("%w: %s", ErrRootDirExists, dir)
	}

	dirs = append(dirs, dir)
	if makeDefault || idx < 0 {
		idx = len(dirs) - 1
	}
	return s.saveRootDirs(ctx, idx, dirs)
}

// RemoveRootDir removes a root directory. If it was the default, the first
// remaining directory becomes the default.
func (s *Service) RemoveRootDir(ctx context.Context, dir string) error {
	dir = filepath.Clean(strings.TrimSpace(dir))

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, dirs, err := s.RootDirs(ctx)
	if err != nil {
		return err
	}
	pos := indexOf(dirs, dir)
	if pos < 0 {
		return fmt.Errorf("%w: %s", ErrRootDirNotFound, dir)
	}

	dirs = append(dirs[:pos], dirs[pos+1:]...)
	switch {
	case pos == idx:
		idx = 0
	case pos < idx:
		idx--
	}
	return s.saveRootDirs(ctx, idx, dirs)
}

// SetDefaultRootDir marks an existing root directory as the default.
func (s *Service) SetDefaultRootDir(ctx context.Context, dir string) error {
	dir = filepath.Clean(strings.TrimSpace(dir))

	s.mu.Lock()
	defer s.mu.Unlock()

	_, dirs, err := s.RootDirs(ctx)
	if err != nil {
		return err
	}
	pos := indexOf(dirs, dir)
	if pos < 0 {
		return fmt.Errorf("%w: %s", ErrRootDirNotFound, dir)
	}
	return s.saveRootDirs(ctx, pos, dirs)
}

func (s *Service) saveRootDirs(ctx context.Context, idx int, dirs []string) error {
	value := encodeRootDirs(RootDirList(idx, dirs))
	if err := s.writeSettings(ctx, map[string]string{KeyRootDirs: value}); err != nil {
		return err
	}
	s.logger.Info().Int("count", len(dirs)).Str("default", DefaultRootDir(RootDirList(idx, dirs))).Msg("Updated root directories")
	return nil
}

func (s *Service) readSettings(ctx context.Context) (map[string]string, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(allKeys)), ",")
	args := make([]any, len(allKeys))
	for i, k := range allKeys {
		args[i] = k
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM settings WHERE key IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string, len(allKeys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *Service) writeSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for k, v := range values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
			k, v); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func encodeRootDirs(list []string) string {
	return strings.Join(list, rootDirSeparator)
}

func decodeRootDirs(v string) []string {
	if v == "" {
		return []string{}
	}
	return strings.Split(v, rootDirSeparator)
}

// splitRootDirs separates the stored layout into a default index and the
// directories. A malformed offset falls back to 0.
func splitRootDirs(list []string) (int, []string) {
	if len(list) < 2 {
		return -1, []string{}
	}
	dirs := append([]string{}, list[1:]...)
	idx, err := strconv.Atoi(list[0])
	if err != nil || idx < 0 || idx >= len(dirs) {
		idx = 0
	}
	return idx, dirs
}

func indexOf(list []string, v string) int {
	for i, item := range list {
		if item == v {
			return i
		}
	}
	return -1
}
