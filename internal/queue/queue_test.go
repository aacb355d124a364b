package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"thirdcoast.systems/vidscan/internal/aggregate"
	"thirdcoast.systems/vidscan/internal/db"
)

// memJobs mimics the aggregate_jobs queries closely enough for the worker.
type memJobs struct {
	mu        sync.Mutex
	jobs      []*db.AggregateJob
	enqueued  []string
	recovered int64
	failErr   error

	// lostRaces makes the next enqueues report no row, as when a concurrent
	// insert commits after the statement's snapshot.
	lostRaces int
}

func (m *memJobs) EnqueueAggregateJob(_ context.Context, arg *db.EnqueueAggregateJobParams) (pgtype.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return pgtype.UUID{}, m.failErr
	}
	if m.lostRaces > 0 {
		m.lostRaces--
		m.jobs = append(m.jobs, &db.AggregateJob{ID: db.PgUUID(uuid.New()), VideoID: arg.VideoID, Status: db.AggregateJobStatusQueued})
		return pgtype.UUID{}, pgx.ErrNoRows
	}
	for _, j := range m.jobs {
		if j.VideoID == arg.VideoID && j.Status == db.AggregateJobStatusQueued {
			return j.ID, nil
		}
	}
	m.enqueued = append(m.enqueued, arg.VideoID)
	m.jobs = append(m.jobs, &db.AggregateJob{ID: arg.ID, VideoID: arg.VideoID, Status: db.AggregateJobStatusQueued})
	return arg.ID, nil
}

func (m *memJobs) DequeueAggregateJob(context.Context) (*db.AggregateJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.Status == db.AggregateJobStatusQueued {
			j.Status = db.AggregateJobStatusProcessing
			j.Attempts++
			cp := *j
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memJobs) find(id pgtype.UUID) *db.AggregateJob {
	for _, j := range m.jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

func (m *memJobs) MarkAggregateJobSucceeded(ctx context.Context, id pgtype.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.find(id)
	j.Status = db.AggregateJobStatusSucceeded
	j.LastError = nil
	return nil
}

func (m *memJobs) MarkAggregateJobFailed(ctx context.Context, arg *db.MarkAggregateJobFailedParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.find(arg.ID)
	j.LastError = arg.LastError
	if j.Attempts >= arg.MaxAttempts {
		j.Status = db.AggregateJobStatusFailed
	} else {
		j.Status = db.AggregateJobStatusQueued
	}
	return nil
}

func (m *memJobs) RecoverStuckAggregateJobs(context.Context) (int64, error) {
	return m.recovered, nil
}

func (m *memJobs) GetAggregateJob(_ context.Context, id pgtype.UUID) (*db.AggregateJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.find(id)
	if j == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *j
	return &cp, nil
}

func (m *memJobs) status(videoID string) db.AggregateJobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.VideoID == videoID {
			return j.Status
		}
	}
	return ""
}

type scriptedRunner struct {
	mu   sync.Mutex
	fail map[string]bool
	runs []string

	// interrupt is called mid-run, like a SIGTERM arriving.
	interrupt func()
}

func (r *scriptedRunner) Run(ctx context.Context, videoID string) aggregate.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, videoID)
	if r.interrupt != nil {
		r.interrupt()
		return aggregate.Result{VideoID: videoID, State: aggregate.StateRolledBack, Err: ctx.Err()}
	}
	if r.fail[videoID] {
		return aggregate.Result{VideoID: videoID, State: aggregate.StateRolledBack, Err: errors.New("storage unreachable")}
	}
	return aggregate.Result{VideoID: videoID, OK: true, State: aggregate.StateCommitted}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnqueue_ReusesQueuedJob(t *testing.T) {
	jobs := &memJobs{}
	ctx := context.Background()

	first, err := Enqueue(ctx, jobs, "v1")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, first)

	second, err := Enqueue(ctx, jobs, "v1")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, []string{"v1"}, jobs.enqueued)
}

func TestEnqueue_RejectsInvalidID(t *testing.T) {
	_, err := Enqueue(context.Background(), &memJobs{}, "../etc")
	require.Error(t, err)
}

func TestEnqueue_WrapsStoreError(t *testing.T) {
	boom := errors.New("conn reset")
	_, err := Enqueue(context.Background(), &memJobs{failErr: boom}, "v1")
	require.ErrorIs(t, err, boom)
}

func TestEnqueue_RetriesLostRace(t *testing.T) {
	jobs := &memJobs{lostRaces: 1}

	id, err := Enqueue(context.Background(), jobs, "v1")
	require.NoError(t, err)
	require.Len(t, jobs.jobs, 1)
	require.Equal(t, db.GoogleUUID(jobs.jobs[0].ID), id)
	require.Empty(t, jobs.enqueued)
}

func TestProcessNext_RecordsOutcomeAfterShutdown(t *testing.T) {
	jobs := &memJobs{}
	jobID, err := Enqueue(context.Background(), jobs, "v1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &Worker{Jobs: jobs, Runner: &scriptedRunner{interrupt: cancel}, Logger: quietLogger()}

	worked, err := w.ProcessNext(ctx)
	require.NoError(t, err)
	require.True(t, worked)

	job, err := jobs.GetAggregateJob(context.Background(), db.PgUUID(jobID))
	require.NoError(t, err)
	require.Equal(t, db.AggregateJobStatusQueued, job.Status)
	require.Equal(t, int32(1), job.Attempts)
	require.NotNil(t, job.LastError)
	require.Equal(t, context.Canceled.Error(), *job.LastError)
}

func TestProcessNext_EmptyQueue(t *testing.T) {
	w := &Worker{Jobs: &memJobs{}, Runner: &scriptedRunner{}, Logger: quietLogger()}
	worked, err := w.ProcessNext(context.Background())
	require.NoError(t, err)
	require.False(t, worked)
}

func TestProcessNext_Success(t *testing.T) {
	jobs := &memJobs{}
	_, err := Enqueue(context.Background(), jobs, "v1")
	require.NoError(t, err)

	w := &Worker{Jobs: jobs, Runner: &scriptedRunner{}, Logger: quietLogger()}
	worked, err := w.ProcessNext(context.Background())
	require.NoError(t, err)
	require.True(t, worked)
	require.Equal(t, db.AggregateJobStatusSucceeded, jobs.status("v1"))
}

func TestProcessNext_RetriesUntilMaxAttempts(t *testing.T) {
	jobs := &memJobs{}
	_, err := Enqueue(context.Background(), jobs, "v1")
	require.NoError(t, err)

	runner := &scriptedRunner{fail: map[string]bool{"v1": true}}
	w := &Worker{Jobs: jobs, Runner: runner, MaxAttempts: 3, Logger: quietLogger()}

	for i := 0; i < 3; i++ {
		worked, err := w.ProcessNext(context.Background())
		require.NoError(t, err)
		require.True(t, worked)
	}
	require.Equal(t, db.AggregateJobStatusFailed, jobs.status("v1"))
	require.Len(t, runner.runs, 3)

	worked, err := w.ProcessNext(context.Background())
	require.NoError(t, err)
	require.False(t, worked)

	j := jobs.jobs[0]
	require.NotNil(t, j.LastError)
	require.Equal(t, "storage unreachable", *j.LastError)
}

func TestLoop_DrainsAndStops(t *testing.T) {
	jobs := &memJobs{}
	for _, id := range []string{"a", "b", "c"} {
		_, err := Enqueue(context.Background(), jobs, id)
		require.NoError(t, err)
	}
	runner := &scriptedRunner{}
	w := &Worker{Jobs: jobs, Runner: runner, Logger: quietLogger(), Idle: 10 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Loop(ctx, make(chan struct{}))
		close(done)
	}()

	require.Eventually(t, func() bool {
		return jobs.status("c") == db.AggregateJobStatusSucceeded
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	require.Equal(t, []string{"a", "b", "c"}, runner.runs)
}
