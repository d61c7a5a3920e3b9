package notification

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHub struct {
	mu       sync.Mutex
	types    []string
	payloads []any
}

func (h *fakeHub) Broadcast(msgType string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.types = append(h.types, msgType)
	h.payloads = append(h.payloads, payload)
}

func TestService_MessageAndError(t *testing.T) {
	hub := &fakeHub{}
	svc := NewService(hub, 10, zerolog.Nop())

	svc.Message("Show added", "Adding the specified show Lost")
	svc.Error("Unable to add show", "Unable to add Lost")

	recent := svc.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, LevelMessage, recent[0].Level)
	assert.Equal(t, LevelError, recent[1].Level)
	assert.Equal(t, "Unable to add Lost", recent[1].Body)
	assert.Less(t, recent[0].ID, recent[1].ID)

	assert.Equal(t, []string{"notification", "notification"}, hub.types)
	sent, ok := hub.payloads[1].(Notification)
	require.True(t, ok)
	assert.Equal(t, "Unable to add show", sent.Title)
}

func TestService_RingCapacity(t *testing.T) {
	svc := NewService(nil, 2, zerolog.Nop())
	svc.Message("a", "")
	svc.Message("b", "")
	svc.Message("c", "")

	recent := svc.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].Title)
	assert.Equal(t, "c", recent[1].Title)
}
