package main

import (
	"context"
	"fmt"

	"staybook/internal/handler/middleware"
	"staybook/internal/infra/db"
	"staybook/internal/infra/lock"
	"staybook/internal/infra/readstore"
	"staybook/internal/infra/repository"
	"staybook/internal/infra/uow"
	"staybook/internal/pkg/clock"
	"staybook/internal/pkg/config"
	"staybook/internal/usecase/commands"
	"staybook/internal/usecase/idempotency"
	"staybook/internal/usecase/queries"
	"staybook/internal/usecase/scoring"
	"staybook/internal/worker"

	"github.com/spf13/cobra"
)

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one expiry pass over overdue holds",
		Long:  "Releases every HOLD or REVIEW booking past its deadline. Skips when another replica holds the sweep lock.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSweeper(cmd.Context(), func(ctx context.Context, s *worker.Sweeper) error {
				ran, err := s.ExpireOnce(ctx)
				if err != nil {
					return err
				}
				report(cmd, "expire", ran)
				return nil
			})
		},
	}
}

func gcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gc",
		Short: "Run one idempotency key cleanup pass",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSweeper(cmd.Context(), func(ctx context.Context, s *worker.Sweeper) error {
				ran, err := s.CollectOnce(ctx)
				if err != nil {
					return err
				}
				report(cmd, "idempotency gc", ran)
				return nil
			})
		},
	}
}

func report(cmd *cobra.Command, name string, ran bool) {
	if !ran {
		fmt.Fprintf(cmd.OutOrStdout(), "%s skipped: lock held elsewhere\n", name)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s done\n", name)
}

// withSweeper builds the same sweeper the server runs, without the fx graph.
func withSweeper(ctx context.Context, fn func(context.Context, *worker.Sweeper) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := middleware.NewLogger(cfg.Log).GetSlogLogger()

	pool, closePool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer closePool()

	redisClient, err := lock.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("closing redis", "error", err)
		}
	}()

	clk := clock.NewRealClock()
	registry := idempotency.NewRegistry(repository.NewIdempotencyRepository(pool), clk, logger)
	bookings, err := commands.NewBookingCommands(
		uow.NewPostgresUoW(pool, logger),
		registry,
		scoring.NewThresholdScorer(cfg),
		queries.NewBookingQueries(readstore.NewBookingReadStore(pool)),
		clk,
		cfg,
		logger,
	)
	if err != nil {
		return err
	}

	sweeper := worker.NewSweeper(bookings, registry, lock.NewRedisLocker(redisClient), clk, cfg, logger)
	return fn(ctx, sweeper)
}

