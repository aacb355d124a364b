package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"thirdcoast.systems/vidscan/internal/application"
	"thirdcoast.systems/vidscan/internal/config"
	"thirdcoast.systems/vidscan/internal/queue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting aggregate worker")

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	app, err := application.New(ctx, conf)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	q := app.DB.Queries(ctx)
	worker := &queue.Worker{
		Jobs:        q,
		Runner:      app.Orchestrator,
		MaxAttempts: conf.AggregateMaxAttempts,
	}

	// Recover orphaned jobs stuck in "processing" from previous crashes/restarts
	worker.Recover(ctx)
	go func() {
		ticker := time.NewTicker(2 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				worker.Recover(ctx)
			}
		}
	}()

	wake := make(chan struct{}, 1)
	go queue.ListenAndSignal(ctx, conf.DatabaseDSN, wake)

	var wg sync.WaitGroup
	if ps, err := application.NewPubSubClient(ctx, *conf); err != nil {
		slog.Error("failed to create pubsub client", "error", err)
		os.Exit(1)
	} else if ps != nil {
		defer ps.Close()
		sub := queue.NewSubscriber(ps, conf.PubSubSubscription, q, application.BucketsFromConfig(conf.Storage))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sub.Receive(ctx); err != nil {
				slog.Error("storage notification subscription stopped", "error", err)
			}
		}()
	}

	slog.Info("Aggregate workers started", "workers", conf.AggregateWorkers)
	for i := 0; i < conf.AggregateWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Loop(ctx, wake)
		}()
	}

	<-ctx.Done()
	slog.Info("Aggregate worker stopping")
	wg.Wait()
}
