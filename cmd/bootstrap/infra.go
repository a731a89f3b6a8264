package bootstrap

import (
	"context"
	"log/slog"

	"staybook/internal/infra/broker"
	"staybook/internal/infra/lock"
	"staybook/internal/pkg/config"
	"staybook/internal/pkg/obs"
	"staybook/internal/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var InfraModule = fx.Module("infra",
	fx.Provide(
		NewRedis,
		func(client *redis.Client) worker.Locker {
			return lock.NewRedisLocker(client)
		},
		NewPublisher,
	),
	fx.Invoke(RegisterTracing),
)

func NewRedis(lc fx.Lifecycle, cfg config.Config) (*redis.Client, error) {
	client, err := lock.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func NewPublisher(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (broker.Publisher, error) {
	pub, err := broker.New(cfg.Broker, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return pub.Close()
		},
	})
	return pub, nil
}

func RegisterTracing(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) error {
	shutdown, err := obs.InitTracer(context.Background(), cfg.Tracing)
	if err != nil {
		return err
	}
	if cfg.Tracing.Enabled {
		logger.Info("tracing enabled", "endpoint", cfg.Tracing.Endpoint, "service", cfg.Tracing.ServiceName)
	}
	lc.Append(fx.Hook{
		OnStop: shutdown,
	})
	return nil
}
