// Package showqueue runs show additions in the background.
package showqueue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marquee/marquee/internal/addshow"
	"github.com/marquee/marquee/internal/metadata"
	"github.com/marquee/marquee/internal/registry"
	"github.com/marquee/marquee/internal/series"
)

var (
	ErrQueueFull     = errors.New("show queue is full")
	ErrQueueStopped  = errors.New("show queue is not running")
	ErrAlreadyExists = errors.New("show is already in the library")
	ErrNoTitle       = errors.New("show has no usable title")
)

// Status is the state of a queue item.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Done reports whether the item has finished.
func (s Status) Done() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Item is a queued show addition.
type Item struct {
	Handle     addshow.Handle   `json:"handle"`
	Request    *addshow.Request `json:"request"`
	Status     Status           `json:"status"`
	Error      string           `json:"error,omitempty"`
	Path       string           `json:"path,omitempty"`
	QueuedAt   time.Time        `json:"queuedAt"`
	StartedAt  *time.Time       `json:"startedAt,omitempty"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`

	seq uint64
}

// Registry persists shows.
type Registry interface {
	Exists(ctx context.Context, id series.Identifier) (bool, error)
	Create(ctx context.Context, s *registry.Show) error
}

// SeriesFetcher fetches series details by TVDB id.
type SeriesFetcher interface {
	GetSeries(ctx context.Context, tvdbID int) (*metadata.Series, error)
}

// Notifier emits UI notifications.
type Notifier interface {
	Message(title, body string)
	Error(title, body string)
}

// Broadcaster is the interface for broadcasting messages.
type Broadcaster interface {
	Broadcast(msgType string, payload any)
}

// Recorder observes queue activity.
type Recorder interface {
	SetQueueDepth(n int)
	ObserveQueueItem(status string, elapsed time.Duration)
}

// Config holds queue configuration.
type Config struct {
	Workers    int
	BufferSize int
	CreateDirs bool
}

// Queue processes show additions with a fixed pool of workers.
type Queue struct {
	cfg      Config
	registry Registry
	series   SeriesFetcher
	notifier Notifier
	hub      Broadcaster
	recorder Recorder
	logger   zerolog.Logger

	jobs chan addshow.Handle

	mu      sync.RWMutex
	items   map[addshow.Handle]*Item
	seq     uint64
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a queue. Start must be called before items are processed.
func New(cfg Config, reg Registry, fetcher SeriesFetcher, notifier Notifier, hub Broadcaster, logger zerolog.Logger) *Queue {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = 100
	}
	return &Queue{
		cfg:      cfg,
		registry: reg,
		series:   fetcher,
		notifier: notifier,
		hub:      hub,
		logger:   logger.With().Str("component", "showqueue").Logger(),
		jobs:     make(chan addshow.Handle, cfg.BufferSize),
		items:    make(map[addshow.Handle]*Item),
	}
}

// SetRecorder sets the metrics recorder.
func (q *Queue) SetRecorder(rec Recorder) {
	q.recorder = rec
}

// Start launches the workers. They stop when ctx is cancelled or Stop is called.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}

	ctx, q.cancel = context.WithCancel(ctx)
	q.running = true

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
	q.logger.Info().Int("workers", q.cfg.Workers).Msg("Show queue started")
}

// Stop cancels the workers and waits for them to return. Items still
// waiting are left queued.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.logger.Info().Msg("Show queue stopped")
}

// Enqueue records req and schedules it. It never blocks: if the queue is
// full or stopped the item is marked failed straight away.
func (q *Queue) Enqueue(_ context.Context, req *addshow.Request) addshow.Handle {
	item := &Item{
		Handle:   addshow.Handle(uuid.NewString()),
		Request:  req,
		Status:   StatusQueued,
		QueuedAt: time.Now().UTC(),
	}

	q.mu.Lock()
	q.seq++
	item.seq = q.seq
	q.items[item.Handle] = item
	running := q.running
	q.mu.Unlock()

	if !running {
		q.finish(item, StatusFailed, ErrQueueStopped)
		return item.Handle
	}

	select {
	case q.jobs <- item.Handle:
		q.logger.Debug().Str("handle", string(item.Handle)).Str("slug", req.Identifier.Slug()).Msg("Enqueued show")
		q.broadcast(item)
		q.reportDepth()
	default:
		q.finish(item, StatusFailed, ErrQueueFull)
	}
	return item.Handle
}

// Get returns a copy of the item for handle.
func (q *Queue) Get(handle addshow.Handle) (Item, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	item, ok := q.items[handle]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

// List returns copies of all items, oldest first.
func (q *Queue) List() []Item {
	q.mu.RLock()
	out := make([]Item, 0, len(q.items))
	for _, item := range q.items {
		out = append(out, *item)
	}
	q.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Prune removes finished items older than olderThan and returns how many
// were removed.
func (q *Queue) Prune(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)

	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	for h, item := range q.items {
		if item.Status.Done() && item.FinishedAt != nil && item.FinishedAt.Before(cutoff) {
			delete(q.items, h)
			removed++
		}
	}
	if removed > 0 {
		q.logger.Debug().Int("removed", removed).Msg("Pruned finished queue items")
	}
	return removed
}

func (q *Queue) worker(ctx context.Context, n int) {
	defer q.wg.Done()
	logger := q.logger.With().Int("worker", n).Logger()

	for {
		select {
		case <-ctx.Done():
			return
		case h := <-q.jobs:
			q.reportDepth()
			q.mu.Lock()
			item, ok := q.items[h]
			if ok {
				now := time.Now().UTC()
				item.Status = StatusRunning
				item.StartedAt = &now
			}
			q.mu.Unlock()
			if !ok {
				continue
			}

			q.broadcast(item)
			path, err := q.process(ctx, item.Request)

			q.mu.Lock()
			item.Path = path
			q.mu.Unlock()

			if err != nil {
				logger.Warn().Err(err).Str("handle", string(h)).Msg("Show addition failed")
				q.finish(item, StatusFailed, err)
				continue
			}
			q.finish(item, StatusCompleted, nil)
		}
	}
}

func (q *Queue) process(ctx context.Context, req *addshow.Request) (string, error) {
	// Another request for the same show may have completed since resolution.
	exists, err := q.registry.Exists(ctx, req.Identifier)
	if err != nil {
		return "", fmt.Errorf("check registry: %w", err)
	}
	if exists {
		return "", ErrAlreadyExists
	}

	info, err := q.series.GetSeries(ctx, req.Identifier.ID)
	if err != nil {
		return "", fmt.Errorf("fetch series %s: %w", req.Identifier.Slug(), err)
	}

	title := info.Title
	if title == "" {
		title = req.DisplayName
	}
	if SanitizeTitle(title) == "" {
		return "", ErrNoTitle
	}
	path := ShowPath(req.RootDirectory, title)

	if q.cfg.CreateDirs {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return path, fmt.Errorf("create show directory: %w", err)
		}
	}

	show := &registry.Show{
		Identifier:    req.Identifier,
		Title:         title,
		Year:          info.Year,
		Network:       info.Network,
		Path:          path,
		RootDir:       req.RootDirectory,
		Language:      req.Language,
		Status:        req.DefaultStatus,
		StatusAfter:   req.DefaultStatusAfter,
		Quality:       req.Quality,
		SeasonFolders: req.SeasonFolders,
		Subtitles:     req.Subtitles,
		Anime:         req.Anime,
		Scene:         req.Scene,
		Blacklist:     req.Blacklist,
		Whitelist:     req.Whitelist,
	}
	if err := q.registry.Create(ctx, show); err != nil {
		if errors.Is(err, registry.ErrDuplicateShow) {
			return path, ErrAlreadyExists
		}
		return path, fmt.Errorf("save show: %w", err)
	}

	if q.hub != nil {
		q.hub.Broadcast("show:added", show)
	}
	return path, nil
}

func (q *Queue) finish(item *Item, status Status, err error) {
	now := time.Now().UTC()

	q.mu.Lock()
	item.Status = status
	item.FinishedAt = &now
	if err != nil {
		item.Error = err.Error()
	}
	started := item.QueuedAt
	if item.StartedAt != nil {
		started = *item.StartedAt
	}
	snapshot := *item
	q.mu.Unlock()

	if q.recorder != nil {
		q.recorder.ObserveQueueItem(string(status), now.Sub(started))
	}
	q.broadcast(&snapshot)

	if q.notifier == nil {
		return
	}
	name := snapshot.Request.DisplayName
	if err != nil {
		q.notifier.Error(fmt.Sprintf("Unable to add %s", name), err.Error())
		return
	}
	q.notifier.Message("Show added", fmt.Sprintf("%s has been added to the library", name))
}

func (q *Queue) broadcast(item *Item) {
	if q.hub == nil {
		return
	}
	q.mu.RLock()
	snapshot := *item
	q.mu.RUnlock()
	q.hub.Broadcast("queue:item", snapshot)
}

func (q *Queue) reportDepth() {
	if q.recorder != nil {
		q.recorder.SetQueueDepth(len(q.jobs))
	}
}
