package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// An already queued job for the video is reused rather than duplicated.
const enqueueAggregateJob = `
WITH inserted AS (
    INSERT INTO aggregate_jobs (id, video_id)
    VALUES ($1, $2)
    ON CONFLICT (video_id) WHERE status = 'queued' DO NOTHING
    RETURNING id
)
SELECT id FROM inserted
UNION ALL
SELECT id FROM aggregate_jobs WHERE video_id = $2 AND status = 'queued'
LIMIT 1
`

type EnqueueAggregateJobParams struct {
	ID      pgtype.UUID `json:"id"`
	VideoID string      `json:"video_id"`
}

func (q *Queries) EnqueueAggregateJob(ctx context.Context, arg *EnqueueAggregateJobParams) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, enqueueAggregateJob, arg.ID, arg.VideoID)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

const dequeueAggregateJob = `
UPDATE aggregate_jobs
SET status = 'processing', attempts = attempts + 1, started_at = now(), updated_at = now()
WHERE id = (
    SELECT id FROM aggregate_jobs
    WHERE status = 'queued' AND run_after <= now()
    ORDER BY run_after, created_at
    FOR UPDATE SKIP LOCKED
    LIMIT 1
)
RETURNING id, video_id, status, attempts, last_error, run_after, started_at, finished_at, created_at, updated_at
`

func (q *Queries) DequeueAggregateJob(ctx context.Context) (*AggregateJob, error) {
	row := q.db.QueryRow(ctx, dequeueAggregateJob)
	var i AggregateJob
	err := row.Scan(
		&i.ID,
		&i.VideoID,
		&i.Status,
		&i.Attempts,
		&i.LastError,
		&i.RunAfter,
		&i.StartedAt,
		&i.FinishedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return &i, err
}

const markAggregateJobSucceeded = `
UPDATE aggregate_jobs
SET status = 'succeeded', last_error = NULL, finished_at = now(), updated_at = now()
WHERE id = $1
`

func (q *Queries) MarkAggregateJobSucceeded(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, markAggregateJobSucceeded, id)
	return err
}

// A failed job goes back to the queue with a linear backoff until it runs out
// of attempts, or for good when a newer job for the same video is already queued.
const markAggregateJobFailed = `
UPDATE aggregate_jobs j
SET status = CASE
        WHEN j.attempts >= $3::int THEN 'failed'::aggregate_job_status
        WHEN EXISTS (
            SELECT 1 FROM aggregate_jobs o
            WHERE o.video_id = j.video_id AND o.status = 'queued' AND o.id <> j.id
        ) THEN 'failed'::aggregate_job_status
        ELSE 'queued'::aggregate_job_status
    END,
    last_error = $2,
    run_after = now() + make_interval(secs => 30 * j.attempts),
    finished_at = now(),
    updated_at = now()
WHERE j.id = $1
`

type MarkAggregateJobFailedParams struct {
	ID          pgtype.UUID `json:"id"`
	LastError   *string     `json:"last_error"`
	MaxAttempts int32       `json:"max_attempts"`
}

func (q *Queries) MarkAggregateJobFailed(ctx context.Context, arg *MarkAggregateJobFailedParams) error {
	_, err := q.db.Exec(ctx, markAggregateJobFailed, arg.ID, arg.LastError, arg.MaxAttempts)
	return err
}

const recoverStuckAggregateJobs = `
UPDATE aggregate_jobs j
SET status = 'queued', updated_at = now()
WHERE j.status = 'processing'
  AND j.started_at < now() - interval '15 minutes'
  AND NOT EXISTS (
      SELECT 1 FROM aggregate_jobs o
      WHERE o.video_id = j.video_id AND o.status = 'queued'
  )
`

func (q *Queries) RecoverStuckAggregateJobs(ctx context.Context) (int64, error) {
	result, err := q.db.Exec(ctx, recoverStuckAggregateJobs)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getAggregateJob = `
SELECT id, video_id, status, attempts, last_error, run_after, started_at, finished_at, created_at, updated_at
FROM aggregate_jobs
WHERE id = $1
`

func (q *Queries) GetAggregateJob(ctx context.Context, id pgtype.UUID) (*AggregateJob, error) {
	row := q.db.QueryRow(ctx, getAggregateJob, id)
	var i AggregateJob
	err := row.Scan(
		&i.ID,
		&i.VideoID,
		&i.Status,
		&i.Attempts,
		&i.LastError,
		&i.RunAfter,
		&i.StartedAt,
		&i.FinishedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return &i, err
}

const listenAggregateJobs = `LISTEN aggregate_jobs`

func (q *Queries) ListenAggregateJobs(ctx context.Context) error {
	_, err := q.db.Exec(ctx, listenAggregateJobs)
	return err
}
