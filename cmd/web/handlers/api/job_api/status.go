// package job_api exposes the aggregate job queue over HTTP.
package job_api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"thirdcoast.systems/vidscan/cmd/web/handlers/common"
	"thirdcoast.systems/vidscan/internal/db"
)

// JobReader looks up a single aggregate job.
type JobReader interface {
	GetAggregateJob(ctx context.Context, id pgtype.UUID) (*db.AggregateJob, error)
}

type jobResponse struct {
	JobID      string                `json:"job_id"`
	VideoID    string                `json:"video_id"`
	Status     db.AggregateJobStatus `json:"status"`
	Attempts   int32                 `json:"attempts"`
	LastError  string                `json:"last_error,omitempty"`
	RunAfter   *time.Time            `json:"run_after,omitempty"`
	StartedAt  *time.Time            `json:"started_at,omitempty"`
	FinishedAt *time.Time            `json:"finished_at,omitempty"`
}

// HandleStatus reports where the job :job_id stands in the queue.
func HandleStatus(jobs JobReader) echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID, err := common.RequireUUIDParam(c, "job_id")
		if err != nil {
			return err
		}

		job, err := jobs.GetAggregateJob(c.Request().Context(), jobID)
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrNotFound("job not found")
		}
		if err != nil {
			slog.Error("failed to get aggregate job", "job_id", db.GoogleUUID(jobID).String(), "error", err)
			return common.ErrInternal("failed to get job")
		}

		out := jobResponse{
			JobID:      db.GoogleUUID(job.ID).String(),
			VideoID:    job.VideoID,
			Status:     job.Status,
			Attempts:   job.Attempts,
			RunAfter:   db.NilTimePtr(job.RunAfter),
			StartedAt:  db.NilTimePtr(job.StartedAt),
			FinishedAt: db.NilTimePtr(job.FinishedAt),
		}
		if job.LastError != nil {
			out.LastError = *job.LastError
		}
		return c.JSON(http.StatusOK, out)
	}
}
