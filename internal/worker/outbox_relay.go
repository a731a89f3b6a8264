package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"staybook/internal/infra/broker"
	"staybook/internal/pkg/config"
	"staybook/internal/pkg/errs"
	"staybook/internal/usecase/shared"
)

// OutboxRelay drains outbox_events to the broker at least once.
type OutboxRelay struct {
	uow       shared.UnitOfWork
	publisher broker.Publisher
	logger    *slog.Logger

	interval time.Duration
	batch    int

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewOutboxRelay(uow shared.UnitOfWork, publisher broker.Publisher, cfg config.Config, logger *slog.Logger) *OutboxRelay {
	r := &OutboxRelay{
		uow:       uow,
		publisher: publisher,
		logger:    logger,
		interval:  cfg.Worker.RelayInterval,
		batch:     cfg.Worker.RelayBatch,
		stopCh:    make(chan struct{}),
	}
	if r.interval <= 0 {
		r.interval = 2 * time.Second
	}
	if r.batch <= 0 {
		r.batch = 100
	}
	return r
}

func (r *OutboxRelay) Start(ctx context.Context) {
	r.logger.Info("starting outbox relay", "interval", r.interval.String(), "batch", r.batch)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.drain(ctx)
			case <-r.stopCh:
				r.logger.Info("outbox relay stopped")
				return
			case <-ctx.Done():
				r.logger.Info("outbox relay cancelled")
				return
			}
		}
	}()
}

func (r *OutboxRelay) Stop() {
	close(r.stopCh)
	r.wg.Wait()
}

// drain keeps relaying full batches so a backlog clears within one tick.
func (r *OutboxRelay) drain(ctx context.Context) {
	for {
		n, err := r.RelayOnce(ctx)
		if err != nil {
			r.logger.Error("outbox relay failed", "error", err.Error())
			return
		}
		if n < r.batch || ctx.Err() != nil {
			return
		}
	}
}

// RelayOnce publishes one batch and deletes what made it out. A publish error
// keeps the failing row and everything after it for the next attempt.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	var published int

	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		published = 0

		events, err := tx.Outbox().ClaimBatch(ctx, r.batch)
		if err != nil {
			return err
		}

		done := make([]int64, 0, len(events))
		var publishErr error
		for _, ev := range events {
			msg := broker.Message{Topic: ev.Topic, Payload: ev.Payload}
			if ev.Key != nil {
				msg.Key = *ev.Key
			}
			if err := r.publisher.Publish(ctx, msg); err != nil {
				publishErr = errs.Wrapf(err, "publish outbox event %d", ev.ID)
				break
			}
			done = append(done, ev.ID)
		}

		if _, err := tx.Outbox().Delete(ctx, done); err != nil {
			return err
		}
		published = len(done)

		if publishErr != nil {
			// commit the deletes of what went out; the rest waits for the next tick
			r.logger.Warn("outbox publish interrupted", "published", published, "error", publishErr.Error())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}
