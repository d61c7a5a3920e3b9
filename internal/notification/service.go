// Package notification delivers short UI notifications to connected clients.
package notification

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/marquee/marquee/internal/ring"
)

const defaultRecent = 50

// Level distinguishes informational notifications from errors.
type Level string

const (
	LevelMessage Level = "message"
	LevelError   Level = "error"
)

// Notification is a single UI notification.
type Notification struct {
	ID        int64     `json:"id"`
	Level     Level     `json:"level"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Broadcaster is the interface for broadcasting messages.
type Broadcaster interface {
	Broadcast(msgType string, payload any)
}

// Service keeps recent notifications and pushes new ones over the hub.
type Service struct {
	hub    Broadcaster
	recent *ring.Ring[Notification]
	nextID atomic.Int64
	logger zerolog.Logger
}

// NewService creates a notification service. Hub may be nil.
func NewService(hub Broadcaster, capacity int, logger zerolog.Logger) *Service {
	if capacity <= 0 {
		capacity = defaultRecent
	}
	return &Service{
		hub:    hub,
		recent: ring.New[Notification](capacity),
		logger: logger.With().Str("component", "notification").Logger(),
	}
}

// Message emits an informational notification.
func (s *Service) Message(title, body string) {
	s.emit(LevelMessage, title, body)
}

// Error emits an error notification.
func (s *Service) Error(title, body string) {
	s.emit(LevelError, title, body)
}

// Recent returns buffered notifications, oldest first.
func (s *Service) Recent() []Notification {
	return s.recent.Items()
}

func (s *Service) emit(level Level, title, body string) {
	n := Notification{
		ID:        s.nextID.Add(1),
		Level:     level,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	s.recent.Push(n)

	s.logger.Debug().
		Str("level", string(level)).
		Str("title", title).
		Msg("Notification emitted")

	if s.hub != nil {
		s.hub.Broadcast("notification", n)
	}
}
