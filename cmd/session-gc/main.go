// Command session-gc deletes expired wizard sessions.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/print-order/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		grace       time.Duration
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.DurationVar(&grace, "grace", 0, "keep sessions that expired less than this long ago")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if grace < 0 {
		slog.Error("grace must not be negative", slog.Duration("grace", grace))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, time.Now().Add(-grace)); err != nil {
		slog.Error("session gc failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, databaseURL string, before time.Time) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewSessionRepository(pool)

	slog.Info("deleting expired sessions", slog.Time("before", before))
	n, err := repo.DeleteExpired(ctx, before)
	if err != nil {
		return errors.Wrap(err, "delete expired sessions")
	}

	slog.Info("session gc completed", slog.Int64("deleted", n))
	return nil
}
