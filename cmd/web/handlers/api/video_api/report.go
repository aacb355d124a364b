package video_api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/vidscan/cmd/web/handlers/common"
	"thirdcoast.systems/vidscan/internal/report"
)

// HandleReport returns the consolidated report for :video_id as JSON, read
// from one snapshot. The format query parameter selects text, markdown or
// html instead.
func HandleReport(src report.Source) echo.HandlerFunc {
	return func(c echo.Context) error {
		videoID, err := common.RequireVideoIDParam(c, "video_id")
		if err != nil {
			return err
		}

		r, err := report.Load(c.Request().Context(), src, videoID)
		if errors.Is(err, report.ErrNotFound) {
			return common.ErrNotFound("video not found")
		}
		if err != nil {
			slog.Error("failed to build report", "video_id", videoID, "error", err)
			return common.ErrInternal("failed to build report")
		}

		switch c.QueryParam("format") {
		case "", "json":
			return c.JSON(http.StatusOK, r)
		case "text":
			var buf bytes.Buffer
			if err := report.Render(&buf, r); err != nil {
				return common.ErrInternal("failed to render report")
			}
			return c.String(http.StatusOK, buf.String())
		case "markdown":
			return c.Blob(http.StatusOK, "text/markdown; charset=UTF-8", []byte(report.Markdown(r)))
		case "html":
			return c.HTML(http.StatusOK, "<!doctype html>\n<html><head><meta charset=\"utf-8\"></head><body>\n"+
				string(report.HTML(r))+"\n</body></html>\n")
		}
		return common.ErrBadRequest("unknown format")
	}
}
