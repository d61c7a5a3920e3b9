package logger

import (
	"bytes"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHub struct {
	mu   sync.Mutex
	msgs []string
}

func (h *recordingHub) Broadcast(msgType string, _ any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msgType)
}

func TestLogger_BuffersRecentEntries(t *testing.T) {
	var out bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &out, BufferSize: 2})

	sub := log.WithComponent("addshow")
	sub.Info().Str("slug", "tvdb81189").Msg("first")
	sub.Warn().Msg("second")
	sub.Error().Msg("third")

	entries := log.GetRecentLogs()
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Message)
	assert.Equal(t, "warn", entries[0].Level)
	assert.Equal(t, "addshow", entries[1].Component)
	assert.Contains(t, out.String(), `"slug":"tvdb81189"`)
}

func TestLogger_StreamsToHub(t *testing.T) {
	log := New(Config{Format: "json", Output: &bytes.Buffer{}})
	hub := &recordingHub{}
	log.SetBroadcastHub(hub)

	log.Info().Msg("hello")

	hub.mu.Lock()
	defer hub.mu.Unlock()
	assert.Equal(t, []string{"logs:entry"}, hub.msgs)
}

func TestLogger_FileOutput(t *testing.T) {
	dir := t.TempDir()
	log := New(Config{Format: "json", Output: &bytes.Buffer{}, Path: dir})
	defer log.Close()

	assert.NotEmpty(t, log.GetLogFilePath())
	log.Info().Msg("to file")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
}

func TestParseLogEntry_Malformed(t *testing.T) {
	b := NewLogBroadcaster(nil, 10)
	n, err := b.Write([]byte("not json"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Empty(t, b.GetRecentLogs())
}
