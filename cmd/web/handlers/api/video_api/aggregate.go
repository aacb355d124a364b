// package video_api provides per-video aggregation API handlers.
package video_api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/vidscan/cmd/web/handlers/common"
	"thirdcoast.systems/vidscan/internal/aggregate"
	"thirdcoast.systems/vidscan/internal/queue"
	"thirdcoast.systems/vidscan/internal/stage"
)

type stageResponse struct {
	Status aggregate.Status `json:"status"`
	Error  string           `json:"error,omitempty"`
}

type aggregateResponse struct {
	OK         bool                     `json:"ok"`
	VideoID    string                   `json:"video_id"`
	State      aggregate.State          `json:"state"`
	Error      string                   `json:"error,omitempty"`
	Stages     map[string]stageResponse `json:"stages"`
	DurationMS int64                    `json:"duration_ms"`
}

func newAggregateResponse(res aggregate.Result) aggregateResponse {
	out := aggregateResponse{
		OK:         res.OK,
		VideoID:    res.VideoID,
		State:      res.State,
		Error:      res.Cause(),
		Stages:     make(map[string]stageResponse, len(stage.Kinds)),
		DurationMS: res.Duration.Milliseconds(),
	}
	for kind, o := range res.Stages {
		sr := stageResponse{Status: o.Status}
		if o.Err != nil {
			sr.Error = o.Err.Error()
		}
		out.Stages[kind.String()] = sr
	}
	return out
}

// HandleAggregate runs one aggregation for :video_id and reports the outcome.
// With ?async=1 the run is queued for the worker instead.
func HandleAggregate(runner queue.Runner, jobs queue.Jobs) echo.HandlerFunc {
	return func(c echo.Context) error {
		videoID, err := common.RequireVideoIDParam(c, "video_id")
		if err != nil {
			return err
		}
		ctx := c.Request().Context()

		if common.QueryBool(c, "async") {
			jobID, err := queue.Enqueue(ctx, jobs, videoID)
			if err != nil {
				slog.Error("failed to enqueue aggregate job", "video_id", videoID, "error", err)
				return common.ErrInternal("failed to enqueue")
			}
			return c.JSON(http.StatusAccepted, map[string]any{
				"job_id":     jobID.String(),
				"video_id":   videoID,
				"status":     "queued",
				"status_url": "/api/jobs/" + jobID.String(),
			})
		}

		res := runner.Run(ctx, videoID)
		status := http.StatusOK
		if !res.OK {
			status = http.StatusInternalServerError
		}
		return c.JSON(status, newAggregateResponse(res))
	}
}
