package main

import (
	"context"
	"sync"

	"thirdcoast.systems/vidscan/internal/application"
	"thirdcoast.systems/vidscan/internal/config"
	"thirdcoast.systems/vidscan/internal/queue"
	"thirdcoast.systems/vidscan/internal/report"
)

// commandContext builds the application lazily so that commands only open
// the clients they use. Tests preset the collaborator fields.
type commandContext struct {
	appOnce sync.Once
	app     *application.App
	appErr  error

	runner  queue.Runner
	jobs    queue.Jobs
	reports report.Source
	migrate func(ctx context.Context) error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureApp(ctx context.Context) (*application.App, error) {
	c.appOnce.Do(func() {
		conf, err := config.LoadConfig(ctx)
		if err != nil {
			c.appErr = err
			return
		}
		c.app, c.appErr = application.New(ctx, conf)
	})
	return c.app, c.appErr
}

func (c *commandContext) Runner(ctx context.Context) (queue.Runner, error) {
	if c.runner != nil {
		return c.runner, nil
	}
	app, err := c.ensureApp(ctx)
	if err != nil {
		return nil, err
	}
	return app.Orchestrator, nil
}

func (c *commandContext) Jobs(ctx context.Context) (queue.Jobs, error) {
	if c.jobs != nil {
		return c.jobs, nil
	}
	app, err := c.ensureApp(ctx)
	if err != nil {
		return nil, err
	}
	return app.DB.Queries(ctx), nil
}

func (c *commandContext) Reports(ctx context.Context) (report.Source, error) {
	if c.reports != nil {
		return c.reports, nil
	}
	app, err := c.ensureApp(ctx)
	if err != nil {
		return nil, err
	}
	return report.DBSource{Conn: app.DB}, nil
}

// Migrate only needs the database, so it skips the storage backend.
func (c *commandContext) Migrate(ctx context.Context) error {
	if c.migrate != nil {
		return c.migrate(ctx)
	}
	conf, err := config.LoadConfig(ctx)
	if err != nil {
		return err
	}
	conn, err := application.OpenDatabase(ctx, *conf)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.Migrate(ctx)
}

func (c *commandContext) Close() {
	if c.app != nil {
		c.app.Close()
	}
}
