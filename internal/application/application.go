package application

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"thirdcoast.systems/vidscan/internal/aggregate"
	"thirdcoast.systems/vidscan/internal/artifact"
	"thirdcoast.systems/vidscan/internal/config"
	"thirdcoast.systems/vidscan/internal/db"
)

// App holds the process-wide clients. Every command builds one at startup
// and closes it on shutdown.
type App struct {
	Config       *config.Config
	DB           *db.DatabaseConnection
	Fetcher      artifact.Fetcher
	Orchestrator *aggregate.Orchestrator

	closers []func() error
}

// OpenDatabase connects to Postgres and waits until it answers.
func OpenDatabase(ctx context.Context, conf config.Config) (*db.DatabaseConnection, error) {
	pool, err := OpenDBPoolWithRetry(ctx, conf)
	if err != nil {
		return nil, err
	}
	conn, err := db.NewDatabaseConnection(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return conn, nil
}

func BucketsFromConfig(sc config.StorageConfig) artifact.Buckets {
	return artifact.Buckets{
		Metadata:    sc.BucketMetadata,
		Transcripts: sc.BucketTranscripts,
		OCR:         sc.BucketOCR,
		Detections:  sc.BucketDetections,
	}
}

// NewFetcher builds the configured storage backend. The returned func releases the
// underlying client.
func NewFetcher(ctx context.Context, sc config.StorageConfig) (artifact.Fetcher, func() error, error) {
	buckets := BucketsFromConfig(sc)
	switch sc.Backend {
	case "gcs":
		var opts []option.ClientOption
		if sc.Endpoint != "" {
			// fake-gcs-server and similar emulators
			opts = append(opts, option.WithEndpoint(sc.Endpoint), option.WithoutAuthentication())
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create storage client: %w", err)
		}
		return artifact.NewGCSFetcher(client, buckets), client.Close, nil
	case "dir":
		return artifact.NewDirFetcher(sc.Dir, buckets), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
}

// NewPubSubClient returns nil when no subscription is configured.
func NewPubSubClient(ctx context.Context, conf config.Config) (*pubsub.Client, error) {
	if conf.PubSubSubscription == "" {
		return nil, nil
	}
	client, err := pubsub.NewClient(ctx, conf.PubSubProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return client, nil
}

// New wires the database, the stage fetcher and the orchestrator.
func New(ctx context.Context, conf *config.Config) (*App, error) {
	app := &App{Config: conf}

	conn, err := OpenDatabase(ctx, *conf)
	if err != nil {
		return nil, err
	}
	app.DB = conn
	app.closers = append(app.closers, func() error { conn.Close(); return nil })

	fetcher, closeFetcher, err := NewFetcher(ctx, conf.Storage)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Fetcher = fetcher
	app.closers = append(app.closers, closeFetcher)

	app.Orchestrator = aggregate.NewOrchestrator(
		fetcher,
		aggregate.NewEngine(aggregate.NewPostgresStore(conn)),
		aggregate.WithLogger(slog.Default()),
		aggregate.WithTimeout(conf.AggregateTimeout),
	)
	return app, nil
}

// Close releases clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
