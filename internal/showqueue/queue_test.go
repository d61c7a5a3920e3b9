package showqueue

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marquee/marquee/internal/addshow"
	"github.com/marquee/marquee/internal/metadata"
	"github.com/marquee/marquee/internal/quality"
	"github.com/marquee/marquee/internal/registry"
	"github.com/marquee/marquee/internal/series"
	"github.com/marquee/marquee/internal/testutil"
)

type fakeSeries struct {
	titles map[int]string
}

func (f *fakeSeries) GetSeries(_ context.Context, id int) (*metadata.Series, error) {
	title, ok := f.titles[id]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	return &metadata.Series{TvdbID: id, Title: title, Year: 2008, Network: "AMC"}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *recordingNotifier) Message(title, _ string) { n.add(title) }
func (n *recordingNotifier) Error(title, _ string)   { n.add(title) }

func (n *recordingNotifier) add(title string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
}

type recordingHub struct {
	mu    sync.Mutex
	types []string
}

func (h *recordingHub) Broadcast(msgType string, _ any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.types = append(h.types, msgType)
}

func (h *recordingHub) count(msgType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, t := range h.types {
		if t == msgType {
			n++
		}
	}
	return n
}

type queueFixture struct {
	queue    *Queue
	registry *registry.Registry
	notifier *recordingNotifier
	hub      *recordingHub
	root     string
}

func newQueueFixture(t *testing.T, cfg Config) *queueFixture {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	t.Cleanup(tdb.Close)

	f := &queueFixture{
		registry: registry.New(tdb.Conn, tdb.Logger),
		notifier: &recordingNotifier{},
		hub:      &recordingHub{},
		root:     t.TempDir(),
	}
	fetcher := &fakeSeries{titles: map[int]string{81189: "Breaking Bad", 121361: "Game of Thrones"}}
	f.queue = New(cfg, f.registry, fetcher, f.notifier, f.hub, zerolog.Nop())
	return f
}

func (f *queueFixture) request(id int) *addshow.Request {
	return &addshow.Request{
		Identifier:         series.Canonical(id),
		DisplayName:        "Display",
		RootDirectory:      f.root,
		DefaultStatus:      series.StatusSkipped,
		DefaultStatusAfter: series.StatusWanted,
		Quality:            quality.Selection{Allowed: []string{"hdtv"}, Preferred: []string{}},
		SeasonFolders:      true,
		Blacklist:          []string{},
		Whitelist:          []string{"HS"},
		Language:           "en",
	}
}

func waitDone(t *testing.T, q *Queue, h addshow.Handle) Item {
	t.Helper()
	var item Item
	require.Eventually(t, func() bool {
		var ok bool
		item, ok = q.Get(h)
		return ok && item.Status.Done()
	}, 5*time.Second, 10*time.Millisecond)
	return item
}

func TestQueue_ProcessesRequest(t *testing.T) {
	f := newQueueFixture(t, Config{Workers: 2, CreateDirs: true})
	ctx := context.Background()
	f.queue.Start(ctx)
	defer f.queue.Stop()

	h := f.queue.Enqueue(ctx, f.request(81189))
	assert.NotEmpty(t, h)

	item := waitDone(t, f.queue, h)
	assert.Equal(t, StatusCompleted, item.Status)
	assert.Empty(t, item.Error)
	assert.Equal(t, filepath.Join(f.root, "Breaking Bad"), item.Path)

	info, err := os.Stat(item.Path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	show, err := f.registry.GetByIdentifier(ctx, series.Canonical(81189))
	require.NoError(t, err)
	assert.Equal(t, "Breaking Bad", show.Title)
	assert.Equal(t, "AMC", show.Network)
	assert.Equal(t, []string{"HS"}, show.Whitelist)

	assert.Equal(t, 1, f.hub.count("show:added"))
	assert.Contains(t, f.notifier.titles, "Show added")
}

func TestQueue_DuplicateFails(t *testing.T) {
	f := newQueueFixture(t, Config{Workers: 1})
	ctx := context.Background()
	f.queue.Start(ctx)
	defer f.queue.Stop()

	first := waitDone(t, f.queue, f.queue.Enqueue(ctx, f.request(81189)))
	require.Equal(t, StatusCompleted, first.Status)

	second := waitDone(t, f.queue, f.queue.Enqueue(ctx, f.request(81189)))
	assert.Equal(t, StatusFailed, second.Status)
	assert.Equal(t, ErrAlreadyExists.Error(), second.Error)
	assert.Contains(t, f.notifier.titles, "Unable to add Display")
}

func TestQueue_MetadataFailure(t *testing.T) {
	f := newQueueFixture(t, Config{Workers: 1})
	ctx := context.Background()
	f.queue.Start(ctx)
	defer f.queue.Stop()

	item := waitDone(t, f.queue, f.queue.Enqueue(ctx, f.request(5)))
	assert.Equal(t, StatusFailed, item.Status)
	assert.Contains(t, item.Error, "metadata not found")

	exists, err := f.registry.Exists(ctx, series.Canonical(5))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestQueue_NotStarted(t *testing.T) {
	f := newQueueFixture(t, Config{})

	h := f.queue.Enqueue(context.Background(), f.request(81189))
	item, ok := f.queue.Get(h)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, item.Status)
	assert.Equal(t, ErrQueueStopped.Error(), item.Error)
}

func TestQueue_Full(t *testing.T) {
	f := newQueueFixture(t, Config{BufferSize: 1})
	// Mark running without workers so nothing drains the buffer.
	f.queue.running = true

	first := f.queue.Enqueue(context.Background(), f.request(81189))
	second := f.queue.Enqueue(context.Background(), f.request(121361))

	item, _ := f.queue.Get(first)
	assert.Equal(t, StatusQueued, item.Status)
	item, _ = f.queue.Get(second)
	assert.Equal(t, StatusFailed, item.Status)
	assert.Equal(t, ErrQueueFull.Error(), item.Error)
}

func TestQueue_ListAndPrune(t *testing.T) {
	f := newQueueFixture(t, Config{})
	ctx := context.Background()

	a := f.queue.Enqueue(ctx, f.request(81189))
	b := f.queue.Enqueue(ctx, f.request(121361))

	items := f.queue.List()
	require.Len(t, items, 2)
	assert.Equal(t, a, items[0].Handle)
	assert.Equal(t, b, items[1].Handle)

	assert.Zero(t, f.queue.Prune(time.Hour))

	// age one item past the cutoff
	f.queue.mu.Lock()
	old := time.Now().Add(-2 * time.Hour)
	f.queue.items[a].FinishedAt = &old
	f.queue.mu.Unlock()

	assert.Equal(t, 1, f.queue.Prune(time.Hour))
	_, ok := f.queue.Get(a)
	assert.False(t, ok)
	_, ok = f.queue.Get(b)
	assert.True(t, ok)
}

func TestQueue_StopIsIdempotent(t *testing.T) {
	f := newQueueFixture(t, Config{Workers: 3})
	f.queue.Start(context.Background())
	f.queue.Start(context.Background())
	f.queue.Stop()
	f.queue.Stop()
}
