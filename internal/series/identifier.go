package series

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidSlug    = errors.New("invalid show slug")
	ErrUnknownIndexer = errors.New("unknown indexer")
)

// Indexer is the short slug of a metadata source.
type Indexer string

const (
	IndexerTVDB   Indexer = "tvdb"
	IndexerTVMaze Indexer = "tvmaze"
	IndexerTMDB   Indexer = "tmdb"
	IndexerIMDB   Indexer = "imdb"
)

// CanonicalIndexer is the indexer whose ids key show registration.
const CanonicalIndexer = IndexerTVDB

var knownIndexers = map[Indexer]bool{
	IndexerTVDB:   true,
	IndexerTVMaze: true,
	IndexerTMDB:   true,
	IndexerIMDB:   true,
}

// Indexers returns the known indexer slugs.
func Indexers() []Indexer {
	return []Indexer{IndexerTVDB, IndexerTVMaze, IndexerTMDB, IndexerIMDB}
}

// ParseIndexer validates an indexer slug.
func ParseIndexer(s string) (Indexer, error) {
	idx := Indexer(strings.ToLower(strings.TrimSpace(s)))
	if !knownIndexers[idx] {
		return "", fmt.Errorf("%w: %q", ErrUnknownIndexer, s)
	}
	return idx, nil
}

// Identifier is an indexer/id pair. The zero value is not a valid identifier.
type Identifier struct {
	Indexer Indexer `json:"indexer"`
	ID      int     `json:"id"`
}

var slugPattern = regexp.MustCompile(`^([a-z]+)(\d+)$`)

// FromSlug parses slugs such as "tvdb81189" or "imdb944947".
func FromSlug(slug string) (Identifier, error) {
	m := slugPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(slug)))
	if m == nil {
		return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}

	idx, err := ParseIndexer(m[1])
	if err != nil {
		return Identifier{}, fmt.Errorf("%w: %w", ErrInvalidSlug, err)
	}

	id, err := strconv.Atoi(m[2])
	if err != nil || id <= 0 {
		return Identifier{}, fmt.Errorf("%w: bad id in %q", ErrInvalidSlug, slug)
	}

	return Identifier{Indexer: idx, ID: id}, nil
}

// Canonical builds an identifier on the canonical indexer.
func Canonical(id int) Identifier {
	return Identifier{Indexer: CanonicalIndexer, ID: id}
}

// IsCanonical reports whether the identifier is keyed on the canonical indexer.
func (i Identifier) IsCanonical() bool {
	return i.Indexer == CanonicalIndexer
}

// Slug renders the identifier back to its slug form.
func (i Identifier) Slug() string {
	return string(i.Indexer) + strconv.Itoa(i.ID)
}

func (i Identifier) String() string {
	return i.Slug()
}
