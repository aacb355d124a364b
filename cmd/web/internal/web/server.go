package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"thirdcoast.systems/vidscan/cmd/web/handlers/api/job_api"
	"thirdcoast.systems/vidscan/cmd/web/handlers/api/video_api"
	"thirdcoast.systems/vidscan/cmd/web/handlers/common"
	"thirdcoast.systems/vidscan/internal/queue"
	"thirdcoast.systems/vidscan/internal/report"
)

// Deps are the collaborators the HTTP API is served from.
type Deps struct {
	Runner  queue.Runner
	Jobs    queue.Jobs
	Reports report.Source
	Ping    func(ctx context.Context) error
}

type Webserver struct {
	*echo.Echo
	deps Deps
}

func NewWebserver(deps Deps) (*Webserver, error) {
	webserver := &Webserver{
		Echo: echo.New(),
		deps: deps,
	}

	if err := webserver.setupMiddleware(); err != nil {
		return nil, err
	}

	if err := webserver.registerRoutes(); err != nil {
		return nil, err
	}

	return webserver, nil
}

func (s *Webserver) setupMiddleware() error {
	s.HideBanner = true
	s.HidePort = true
	s.Use(middleware.BodyLimit("2M"))
	s.Use(middleware.Recover())
	s.Use(middleware.RequestID())
	s.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz"
		},
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			slog.Info("request", fields...)
			return nil
		},
	}))

	return nil
}

func (s *Webserver) registerRoutes() error {
	s.GET("/healthz", s.handleHealth)

	apiGroup := s.Group("/api")
	apiGroup.POST("/videos/:video_id/aggregate", video_api.HandleAggregate(s.deps.Runner, s.deps.Jobs))
	apiGroup.GET("/videos/:video_id/report", video_api.HandleReport(s.deps.Reports))
	apiGroup.GET("/jobs/:job_id", job_api.HandleStatus(s.deps.Jobs))

	return nil
}

func (s *Webserver) handleHealth(c echo.Context) error {
	if s.deps.Ping != nil {
		if err := s.deps.Ping(c.Request().Context()); err != nil {
			slog.Warn("health check failed", "error", err)
			return common.ErrUnavailable("database unavailable")
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
