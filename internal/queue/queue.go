package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"thirdcoast.systems/vidscan/internal/aggregate"
	"thirdcoast.systems/vidscan/internal/db"
	"thirdcoast.systems/vidscan/internal/videoid"
)

// Jobs is the aggregate_jobs surface the worker drives.
type Jobs interface {
	EnqueueAggregateJob(ctx context.Context, arg *db.EnqueueAggregateJobParams) (pgtype.UUID, error)
	DequeueAggregateJob(ctx context.Context) (*db.AggregateJob, error)
	MarkAggregateJobSucceeded(ctx context.Context, id pgtype.UUID) error
	MarkAggregateJobFailed(ctx context.Context, arg *db.MarkAggregateJobFailedParams) error
	RecoverStuckAggregateJobs(ctx context.Context) (int64, error)
	GetAggregateJob(ctx context.Context, id pgtype.UUID) (*db.AggregateJob, error)
}

var _ Jobs = (*db.Queries)(nil)

// Runner aggregates one video. *aggregate.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, videoID string) aggregate.Result
}

// Enqueue queues an aggregation for videoID. While a job for the video is
// still queued its id is returned instead of a new one.
func Enqueue(ctx context.Context, jobs Jobs, videoID string) (uuid.UUID, error) {
	if err := videoid.Validate(videoID); err != nil {
		return uuid.Nil, err
	}
	arg := &db.EnqueueAggregateJobParams{
		ID:      db.PgUUID(uuid.New()),
		VideoID: videoID,
	}
	id, err := jobs.EnqueueAggregateJob(ctx, arg)
	if errors.Is(err, pgx.ErrNoRows) {
		// A concurrent enqueue won the insert after our snapshot was taken;
		// a fresh statement sees its row.
		id, err = jobs.EnqueueAggregateJob(ctx, arg)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("enqueue aggregate job: %w", err)
	}
	return db.GoogleUUID(id), nil
}

// Worker drains the queue one job at a time.
type Worker struct {
	Jobs        Jobs
	Runner      Runner
	MaxAttempts int
	Logger      *slog.Logger

	// Idle is how long the worker waits for a wake-up before polling again.
	Idle time.Duration
}

// ProcessNext runs the next due job. It reports false when the queue had
// nothing to hand out.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	job, err := w.Jobs.DequeueAggregateJob(ctx)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dequeue aggregate job: %w", err)
	}

	log := w.logger().With("job_id", db.GoogleUUID(job.ID).String(), "video_id", job.VideoID, "attempt", job.Attempts)
	res := w.Runner.Run(ctx, job.VideoID)

	// The outcome is recorded even when shutdown canceled the run.
	markCtx := context.WithoutCancel(ctx)
	if res.OK {
		if err := w.Jobs.MarkAggregateJobSucceeded(markCtx, job.ID); err != nil {
			return true, fmt.Errorf("mark aggregate job succeeded: %w", err)
		}
		log.Info("aggregate job succeeded", "duration", res.Duration)
		return true, nil
	}

	cause := res.Cause()
	if err := w.Jobs.MarkAggregateJobFailed(markCtx, &db.MarkAggregateJobFailedParams{
		ID:          job.ID,
		LastError:   &cause,
		MaxAttempts: int32(w.maxAttempts()),
	}); err != nil {
		return true, fmt.Errorf("mark aggregate job failed: %w", err)
	}
	if int(job.Attempts) >= w.maxAttempts() {
		log.Error("aggregate job failed permanently", "error", cause)
	} else {
		log.Warn("aggregate job failed, will retry", "error", cause)
	}
	return true, nil
}

// Loop processes jobs until ctx ends. A value on wake ends an idle wait early.
func (w *Worker) Loop(ctx context.Context, wake <-chan struct{}) {
	for {
		if ctx.Err() != nil {
			return
		}

		for {
			worked, err := w.ProcessNext(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger().Error("aggregate worker error", "error", err)
				sleepCtx(ctx, 2*time.Second)
				break
			}
			if !worked {
				break
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-wake:
		case <-time.After(w.idle()):
		}
	}
}

// Recover requeues jobs left in processing by a worker that died.
func (w *Worker) Recover(ctx context.Context) {
	n, err := w.Jobs.RecoverStuckAggregateJobs(ctx)
	if err != nil {
		w.logger().Error("failed to recover stuck aggregate jobs", "error", err)
		return
	}
	if n > 0 {
		w.logger().Warn("recovered stuck aggregate jobs", "count", n)
	}
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default()
	}
	return w.Logger
}

func (w *Worker) maxAttempts() int {
	if w.MaxAttempts <= 0 {
		return 5
	}
	return w.MaxAttempts
}

func (w *Worker) idle() time.Duration {
	if w.Idle <= 0 {
		return 5 * time.Second
	}
	return w.Idle
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
