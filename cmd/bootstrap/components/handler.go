package components

import (
	"staybook/internal/handler"
	"staybook/internal/handler/api"
	reqdto "staybook/internal/handler/dto/request"
	"staybook/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewBookingHandler,
		api.NewFraudHandler,
		api.NewCalendarHandler,
		api.NewWebhookHandler,
		middleware.NewAuthMiddleware,
		NewHandlers,
	),
	fx.Invoke(
		reqdto.RegisterValidators,
		handler.NewRouter,
	),
)

func NewHandlers(
	booking *api.BookingHandler,
	fraud *api.FraudHandler,
	calendar *api.CalendarHandler,
	webhook *api.WebhookHandler,
) handler.Handlers {
	return handler.Handlers{
		Booking:  booking,
		Fraud:    fraud,
		Calendar: calendar,
		Webhook:  webhook,
	}
}
