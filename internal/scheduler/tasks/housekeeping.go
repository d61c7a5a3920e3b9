// Package tasks registers Marquee's housekeeping jobs with the scheduler.
package tasks

import (
	"context"
	"time"

	"github.com/marquee/marquee/internal/scheduler"
)

const (
	QueuePruneTaskID  = "queue-prune"
	CachePurgeTaskID  = "metadata-cache-purge"
	HealthCheckTaskID = "health-check"
)

// QueuePruner drops finished queue items.
type QueuePruner interface {
	Prune(olderThan time.Duration) int
}

// CachePurger drops expired cache entries.
type CachePurger interface {
	Purge() int
}

// Recorder records how much each run removed.
type Recorder interface {
	ObserveHousekeeping(task string, removed int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveHousekeeping(string, int) {}

// RegisterQueuePruneTask prunes queue items finished longer ago than retention.
func RegisterQueuePruneTask(sched *scheduler.Scheduler, queue QueuePruner, retention time.Duration, rec Recorder) error {
	if rec == nil {
		rec = nopRecorder{}
	}
	return sched.RegisterTask(&scheduler.TaskConfig{
		ID:          QueuePruneTaskID,
		Name:        "Queue Prune",
		Description: "Removes finished show-addition queue items older than the retention period",
		Cron:        "*/15 * * * *",
		Func: func(ctx context.Context) error {
			rec.ObserveHousekeeping(QueuePruneTaskID, queue.Prune(retention))
			return ctx.Err()
		},
	})
}

// RegisterCachePurgeTask purges expired metadata cache entries.
func RegisterCachePurgeTask(sched *scheduler.Scheduler, cache CachePurger, rec Recorder) error {
	if rec == nil {
		rec = nopRecorder{}
	}
	return sched.RegisterTask(&scheduler.TaskConfig{
		ID:          CachePurgeTaskID,
		Name:        "Metadata Cache Purge",
		Description: "Removes expired metadata lookups from the in-memory cache",
		Cron:        "*/5 * * * *",
		RunOnStart:  true,
		Func: func(ctx context.Context) error {
			rec.ObserveHousekeeping(CachePurgeTaskID, cache.Purge())
			return ctx.Err()
		},
	})
}

// HealthChecker runs the periodic health checks.
type HealthChecker interface {
	Run(ctx context.Context) error
}

// RegisterHealthCheckTask checks the database and root directories.
func RegisterHealthCheckTask(sched *scheduler.Scheduler, checker HealthChecker) error {
	return sched.RegisterTask(&scheduler.TaskConfig{
		ID:          HealthCheckTaskID,
		Name:        "Health Check",
		Description: "Checks the database connection and that every root directory is writable",
		Cron:        "*/5 * * * *",
		RunOnStart:  true,
		Func:        checker.Run,
	})
}
