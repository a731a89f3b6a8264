//go:build unit

package worker_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"staybook/internal/pkg/clock"
	"staybook/internal/pkg/config"
	workermock "staybook/internal/testutil/mock/worker"
	"staybook/internal/usecase/commands"
	"staybook/internal/worker"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type SweeperTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	locker  *workermock.MockLocker
	expirer *workermock.MockHoldExpirer
	gc      *workermock.MockIdempotencySweeper
	clock   *clock.MockClock
	sweeper *worker.Sweeper
}

func (s *SweeperTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.locker = workermock.NewMockLocker(s.ctrl)
	s.expirer = workermock.NewMockHoldExpirer(s.ctrl)
	s.gc = workermock.NewMockIdempotencySweeper(s.ctrl)
	s.clock = clock.NewMockClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

	cfg := config.NewTestConfig()
	cfg.Worker.SweepInterval = 5 * time.Millisecond
	cfg.Worker.IdempotencyGC = time.Hour
	s.sweeper = worker.NewSweeper(s.expirer, s.gc, s.locker, s.clock, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *SweeperTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestSweeperSuite(t *testing.T) {
	suite.Run(t, new(SweeperTestSuite))
}

func (s *SweeperTestSuite) TestExpireOnce() {
	ctx := context.Background()

	s.Run("runs under the lock and releases it", func() {
		gomock.InOrder(
			s.locker.EXPECT().TryLock(gomock.Any(), worker.ExpireHoldsLockKey, 50*time.Second).Return(true, nil),
			s.expirer.EXPECT().ExpireHolds(gomock.Any(), s.clock.Now()).Return(commands.ExpireResult{Scanned: 2, Expired: 2}, nil),
			s.locker.EXPECT().Unlock(gomock.Any(), worker.ExpireHoldsLockKey).Return(nil),
		)

		ran, err := s.sweeper.ExpireOnce(ctx)
		s.NoError(err)
		s.True(ran)
	})

	s.Run("skips when another replica holds the lock", func() {
		s.locker.EXPECT().TryLock(gomock.Any(), worker.ExpireHoldsLockKey, gomock.Any()).Return(false, nil)

		ran, err := s.sweeper.ExpireOnce(ctx)
		s.NoError(err)
		s.False(ran)
	})

	s.Run("lock backend error", func() {
		boom := errors.New("redis down")
		s.locker.EXPECT().TryLock(gomock.Any(), worker.ExpireHoldsLockKey, gomock.Any()).Return(false, boom)

		ran, err := s.sweeper.ExpireOnce(ctx)
		s.ErrorIs(err, boom)
		s.False(ran)
	})

	s.Run("failed pass still releases the lock", func() {
		boom := errors.New("db down")
		s.locker.EXPECT().TryLock(gomock.Any(), worker.ExpireHoldsLockKey, gomock.Any()).Return(true, nil)
		s.expirer.EXPECT().ExpireHolds(gomock.Any(), gomock.Any()).Return(commands.ExpireResult{}, boom)
		s.locker.EXPECT().Unlock(gomock.Any(), worker.ExpireHoldsLockKey).Return(nil)

		ran, err := s.sweeper.ExpireOnce(ctx)
		s.ErrorIs(err, boom)
		s.True(ran)
	})
}

func (s *SweeperTestSuite) TestCollectOnce() {
	ctx := context.Background()

	s.Run("sweeps in configured batches", func() {
		s.locker.EXPECT().TryLock(gomock.Any(), worker.IdempotencyGCLockKey, gomock.Any()).Return(true, nil)
		s.gc.EXPECT().Sweep(gomock.Any(), 1000).Return(int64(42), nil)
		s.locker.EXPECT().Unlock(gomock.Any(), worker.IdempotencyGCLockKey).Return(nil)

		ran, err := s.sweeper.CollectOnce(ctx)
		s.NoError(err)
		s.True(ran)
	})

	s.Run("skips without the lock", func() {
		s.locker.EXPECT().TryLock(gomock.Any(), worker.IdempotencyGCLockKey, gomock.Any()).Return(false, nil)

		ran, err := s.sweeper.CollectOnce(ctx)
		s.NoError(err)
		s.False(ran)
	})
}

func (s *SweeperTestSuite) TestStartStop() {
	ticked := make(chan struct{}, 1)
	s.locker.EXPECT().TryLock(gomock.Any(), worker.ExpireHoldsLockKey, gomock.Any()).Return(true, nil).MinTimes(1)
	s.locker.EXPECT().Unlock(gomock.Any(), worker.ExpireHoldsLockKey).Return(nil).MinTimes(1)
	s.expirer.EXPECT().ExpireHolds(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, time.Time) (commands.ExpireResult, error) {
			select {
			case ticked <- struct{}{}:
			default:
			}
			return commands.ExpireResult{}, nil
		}).MinTimes(1)

	s.sweeper.Start(context.Background())
	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		s.Fail("sweeper never ticked")
	}
	s.sweeper.Stop()
}
