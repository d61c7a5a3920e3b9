// Package releasegroup maps release group names and aliases to their short
// names.
package releasegroup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/marquee/marquee/internal/formvalue"
)

var ErrInvalidGroup = errors.New("invalid release group")

// Group is a release group and the names it is known by.
type Group struct {
	ShortName string   `yaml:"short" json:"short"`
	Aliases   []string `yaml:"aliases" json:"aliases"`
}

// seedFile is the layout of the alias seed file.
type seedFile struct {
	Groups []Group `yaml:"groups"`
}

// Store keeps release group aliases in the database.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore creates an alias store.
func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "releasegroup").Logger(),
	}
}

// key case-folds name. Casers carry state, so each call gets its own.
func (s *Store) key(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Upsert records a group. The short name is also registered as an alias of
// itself.
func (s *Store) Upsert(ctx context.Context, g Group) error {
	short := strings.TrimSpace(g.ShortName)
	if short == "" {
		return fmt.Errorf("%w: short name is required", ErrInvalidGroup)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, alias := range append([]string{short}, g.Aliases...) {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO release_group_aliases (alias_key, alias, short_name) VALUES (?, ?, ?)
			ON CONFLICT(alias_key) DO UPDATE SET alias = excluded.alias, short_name = excluded.short_name`,
			s.key(alias), alias, short); err != nil {
			return fmt.Errorf("failed to save alias %q: %w", alias, err)
		}
	}
	return tx.Commit()
}

// LoadFile seeds aliases from a YAML file. A missing file is not an error.
func (s *Store) LoadFile(ctx context.Context, path string) (int, error) {
	if path == "" {
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug().Str("path", path).Msg("Release group alias file not found, skipping")
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read alias file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("failed to parse alias file %s: %w", path, err)
	}

	for _, g := range seed.Groups {
		if err := s.Upsert(ctx, g); err != nil {
			return 0, err
		}
	}

	s.logger.Info().Str("path", path).Int("groups", len(seed.Groups)).Msg("Loaded release group aliases")
	return len(seed.Groups), nil
}

// List returns all groups with their aliases, ordered by short name.
func (s *Store) List(ctx context.Context) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT short_name, alias FROM release_group_aliases ORDER BY short_name, alias`)
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}
	defer rows.Close()

	groups := []Group{}
	for rows.Next() {
		var short, alias string
		if err := rows.Scan(&short, &alias); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		if n := len(groups); n == 0 || groups[n-1].ShortName != short {
			groups = append(groups, Group{ShortName: short, Aliases: []string{}})
		}
		if alias != short {
			last := &groups[len(groups)-1]
			last.Aliases = append(last.Aliases, alias)
		}
	}
	return groups, rows.Err()
}

// CanonicalizeGroupNames replaces each known group name or alias with its
// short name. Entries may themselves be comma separated. Unknown names pass
// through unchanged; the result keeps first-seen order without duplicates.
func (s *Store) CanonicalizeGroupNames(ctx context.Context, names []string) ([]string, error) {
	out := []string{}
	seen := make(map[string]bool)

	for _, entry := range names {
		for _, name := range formvalue.List(entry) {
			short, err := s.lookup(ctx, name)
			if err != nil {
				return nil, err
			}
			if short == "" {
				short = name
			}
			if !seen[short] {
				seen[short] = true
				out = append(out, short)
			}
		}
	}
	return out, nil
}

func (s *Store) lookup(ctx context.Context, name string) (string, error) {
	var short string
	err := s.db.QueryRowContext(ctx,
		`SELECT short_name FROM release_group_aliases WHERE alias_key = ?`, s.key(name),
	).Scan(&short)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up release group %q: %w", name, err)
	}
	return short, nil
}
