package worker

//go:generate mockgen -destination=../testutil/mock/worker/worker.go -package=workermock staybook/internal/worker Locker,HoldExpirer,IdempotencySweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"staybook/internal/pkg/clock"
	"staybook/internal/pkg/config"
	"staybook/internal/usecase/commands"
)

const (
	ExpireHoldsLockKey    = "locks:expire-holds"
	IdempotencyGCLockKey  = "locks:idempotency-gc"
	defaultSweepLockTTL   = 50 * time.Second
	defaultIdempotencyGC  = 10 * time.Minute
	defaultSweepInterval  = time.Minute
	defaultIdempotencyCap = 1000
)

// Locker is a best-effort distributed mutex keyed by name.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type HoldExpirer interface {
	ExpireHolds(ctx context.Context, now time.Time) (commands.ExpireResult, error)
}

type IdempotencySweeper interface {
	Sweep(ctx context.Context, batch int) (int64, error)
}

// Sweeper runs hold expiry and idempotency GC on their own tickers. Only the
// replica holding the corresponding lock does work on a given tick.
type Sweeper struct {
	expirer     HoldExpirer
	idempotency IdempotencySweeper
	locker      Locker
	clock       clock.Clock
	logger      *slog.Logger

	sweepInterval time.Duration
	gcInterval    time.Duration
	lockTTL       time.Duration
	gcBatch       int

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewSweeper(
	expirer HoldExpirer,
	idempotency IdempotencySweeper,
	locker Locker,
	clock clock.Clock,
	cfg config.Config,
	logger *slog.Logger,
) *Sweeper {
	s := &Sweeper{
		expirer:       expirer,
		idempotency:   idempotency,
		locker:        locker,
		clock:         clock,
		logger:        logger,
		sweepInterval: cfg.Worker.SweepInterval,
		gcInterval:    cfg.Worker.IdempotencyGC,
		lockTTL:       cfg.Worker.SweepLockTTL,
		gcBatch:       cfg.Worker.IdempotencyBatch,
		stopCh:        make(chan struct{}),
	}
	if s.sweepInterval <= 0 {
		s.sweepInterval = defaultSweepInterval
	}
	if s.gcInterval <= 0 {
		s.gcInterval = defaultIdempotencyGC
	}
	if s.lockTTL <= 0 {
		s.lockTTL = defaultSweepLockTTL
	}
	if s.gcBatch <= 0 {
		s.gcBatch = defaultIdempotencyCap
	}
	return s
}

func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("starting sweeper",
		"sweep_interval", s.sweepInterval.String(),
		"gc_interval", s.gcInterval.String())

	s.wg.Add(2)
	go s.loop(ctx, s.sweepInterval, "expire holds", func(ctx context.Context) { _, _ = s.ExpireOnce(ctx) })
	go s.loop(ctx, s.gcInterval, "idempotency gc", func(ctx context.Context) { _, _ = s.CollectOnce(ctx) })
}

// Stop waits for in-flight ticks to finish.
func (s *Sweeper) Stop() {
	s.logger.Info("stopping sweeper")
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Sweeper) loop(ctx context.Context, every time.Duration, name string, tick func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tick(ctx)
		case <-s.stopCh:
			s.logger.Info(name + " stopped")
			return
		case <-ctx.Done():
			s.logger.Info(name + " cancelled")
			return
		}
	}
}

// ExpireOnce runs a single locked expiry pass. ran is false when another replica holds the lock.
func (s *Sweeper) ExpireOnce(ctx context.Context) (ran bool, err error) {
	err = s.withLock(ctx, ExpireHoldsLockKey, func(ctx context.Context) error {
		ran = true
		res, err := s.expirer.ExpireHolds(ctx, s.clock.Now())
		if err != nil {
			s.logger.Error("expire holds failed", "error", err.Error())
			return err
		}
		if res.Expired > 0 || res.Failed > 0 {
			s.logger.Info("expired holds",
				"scanned", res.Scanned,
				"expired", res.Expired,
				"failed", res.Failed)
		}
		return nil
	})
	return ran, err
}

func (s *Sweeper) CollectOnce(ctx context.Context) (ran bool, err error) {
	err = s.withLock(ctx, IdempotencyGCLockKey, func(ctx context.Context) error {
		ran = true
		n, err := s.idempotency.Sweep(ctx, s.gcBatch)
		if err != nil {
			s.logger.Error("idempotency gc failed", "error", err.Error())
			return err
		}
		if n > 0 {
			s.logger.Info("collected idempotency keys", "deleted", n)
		}
		return nil
	})
	return ran, err
}

func (s *Sweeper) withLock(ctx context.Context, key string, fn func(context.Context) error) error {
	acquired, err := s.locker.TryLock(ctx, key, s.lockTTL)
	if err != nil {
		s.logger.Warn("lock acquisition failed", "key", key, "error", err.Error())
		return err
	}
	if !acquired {
		return nil
	}

	defer func() {
		// release even when the tick context is gone
		if err := s.locker.Unlock(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("lock release failed", "key", key, "error", err.Error())
		}
	}()

	return fn(ctx)
}
