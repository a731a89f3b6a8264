package bootstrap

import (
	"context"
	"log/slog"

	"staybook/internal/pkg/config"
	"staybook/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		worker.NewSweeper,
		worker.NewOutboxRelay,
	),
	fx.Invoke(RunWorkers),
)

// RunWorkers ties the background loops to the app lifecycle. The loops get their
// own context since the OnStart context expires once startup is done.
func RunWorkers(lc fx.Lifecycle, cfg config.Config, sweeper *worker.Sweeper, relay *worker.OutboxRelay, logger *slog.Logger) {
	if !cfg.Worker.Enabled {
		logger.Info("background workers disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			sweeper.Start(ctx)
			relay.Start(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			sweeper.Stop()
			relay.Stop()
			return nil
		},
	})
}
