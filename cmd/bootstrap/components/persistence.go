package components

import (
	"staybook/internal/handler"
	"staybook/internal/infra/db"
	"staybook/internal/infra/readstore"
	"staybook/internal/infra/repository"
	"staybook/internal/infra/uow"
	"staybook/internal/usecase/commands"
	"staybook/internal/usecase/idempotency"
	"staybook/internal/usecase/queries"
	"staybook/internal/usecase/shared"
	"staybook/internal/worker"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	baseOption,
	readstoreModule,
	repositoryModule,
)

var baseOption = fx.Provide(
	NewDBTX,
	func(pool *pgxpool.Pool) handler.Pinger { return pool },
)

var readstoreModule = fx.Module("persistence/readstore",
	fx.Provide(
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingReadStore)),
		),
		fx.Annotate(
			readstore.NewAvailabilityReadStore,
			fx.As(new(queries.AvailabilityReadStore)),
		),
	),
)

var repositoryModule = fx.Module("persistence/repository",
	fx.Provide(
		// UnitOfWork
		fx.Annotate(
			uow.NewPostgresUoW,
			fx.As(new(shared.UnitOfWork)),
		),
		// Idempotency keys live on the pool, outside business transactions
		fx.Annotate(
			repository.NewIdempotencyRepository,
			fx.As(new(idempotency.Store)),
		),
		idempotency.NewRegistry,
		func(r *idempotency.Registry) commands.IdempotencyGuard { return r },
		func(r *idempotency.Registry) worker.IdempotencySweeper { return r },
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
