package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"thirdcoast.systems/vidscan/internal/db"
)

// ListenAndSignal holds a dedicated connection LISTENing on aggregate_jobs
// and sends a non-blocking wake-up on signalCh for every notification. It
// reconnects until ctx ends.
func ListenAndSignal(ctx context.Context, dsn string, signalCh chan<- struct{}) {
	for {
		if ctx.Err() != nil {
			return
		}

		// Parse using pgxpool so pool_* DSN params are consumed client-side
		// (otherwise they get forwarded to Postgres as startup params and cause FATAL).
		poolConf, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			slog.Error("listen parse config failed", "error", err)
			return
		}

		conn, err := pgx.ConnectConfig(ctx, poolConf.ConnConfig)
		if err != nil {
			slog.Error("listen connect failed", "error", err)
			sleepCtx(ctx, 2*time.Second)
			continue
		}

		if err := db.New(conn).ListenAggregateJobs(ctx); err != nil {
			slog.Error("LISTEN failed", "channel", "aggregate_jobs", "error", err)
			_ = conn.Close(context.WithoutCancel(ctx))
			sleepCtx(ctx, 2*time.Second)
			continue
		}

		for {
			if _, err := conn.WaitForNotification(ctx); err != nil {
				if ctx.Err() == nil {
					slog.Error("wait for notification failed", "channel", "aggregate_jobs", "error", err)
				}
				_ = conn.Close(context.WithoutCancel(ctx))
				break
			}

			select {
			case signalCh <- struct{}{}:
			default:
			}
		}
	}
}
