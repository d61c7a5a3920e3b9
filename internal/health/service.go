// Package health tracks the state of the database and library root
// directories.
package health

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Broadcaster is the interface for broadcasting messages.
type Broadcaster interface {
	Broadcast(msgType string, payload any)
}

// Service manages the health state of all tracked items.
// All state is in-memory and resets on restart.
type Service struct {
	items  map[Category]map[string]*Item
	mu     sync.RWMutex
	hub    Broadcaster
	logger zerolog.Logger
}

// NewService creates a new health service. Hub may be nil.
func NewService(hub Broadcaster, logger zerolog.Logger) *Service {
	s := &Service{
		items:  make(map[Category]map[string]*Item),
		hub:    hub,
		logger: logger.With().Str("component", "health").Logger(),
	}
	for _, cat := range AllCategories() {
		s.items[cat] = make(map[string]*Item)
	}
	return s
}

// Set records the status of an item, registering it if needed.
// Updates are broadcast only when the status or message changes.
func (s *Service) Set(category Category, id, name string, status Status, message string) {
	s.mu.Lock()
	items, ok := s.items[category]
	if !ok {
		items = make(map[string]*Item)
		s.items[category] = items
	}

	item, exists := items[id]
	if exists && item.Status == status && item.Message == message {
		s.mu.Unlock()
		return
	}
	if !exists {
		item = &Item{ID: id, Category: category, Name: name}
		items[id] = item
	}

	item.Name = name
	item.Status = status
	item.Message = message
	item.Timestamp = nil
	if status != StatusOK {
		now := time.Now().UTC()
		item.Timestamp = &now
	}
	snapshot := *item
	s.mu.Unlock()

	if status == StatusOK {
		s.logger.Debug().Str("category", string(category)).Str("id", id).Msg("Health restored")
	} else {
		s.logger.Warn().Str("category", string(category)).Str("id", id).Str("message", message).Msg("Health issue")
	}

	if s.hub != nil {
		s.hub.Broadcast("health:update", snapshot)
	}
}

// Retain drops items in a category whose IDs are not listed.
func (s *Service) Retain(category Category, ids []string) {
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.items[category] {
		if _, ok := keep[id]; !ok {
			delete(s.items[category], id)
		}
	}
}

// Get returns the items in a category, ordered by ID.
func (s *Service) Get(category Category) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Item, 0, len(s.items[category]))
	for _, item := range s.items[category] {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetAll returns every item grouped by category.
func (s *Service) GetAll() *Response {
	return &Response{
		Database: s.Get(CategoryDatabase),
		RootDirs: s.Get(CategoryRootDirs),
	}
}

// GetSummary returns per-category counts.
func (s *Service) GetSummary() *Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &Summary{Categories: make([]CategorySummary, 0, len(AllCategories()))}
	for _, cat := range AllCategories() {
		cs := CategorySummary{Category: cat}
		for _, item := range s.items[cat] {
			switch item.Status {
			case StatusOK:
				cs.OK++
			case StatusWarning:
				cs.Warning++
			case StatusError:
				cs.Error++
			}
		}
		if cs.HasIssues() {
			summary.HasIssues = true
		}
		summary.Categories = append(summary.Categories, cs)
	}
	return summary
}
