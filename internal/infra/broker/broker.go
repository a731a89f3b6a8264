package broker

//go:generate mockgen -destination=../../testutil/mock/broker/broker.go -package=brokermock staybook/internal/infra/broker Publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"staybook/internal/pkg/config"
	"staybook/internal/pkg/errs"
)

// Message is one outbox row on its way to the bus.
type Message struct {
	Topic   string
	Key     string
	Payload json.RawMessage
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

const (
	KindLog      = "log"
	KindKafka    = "kafka"
	KindRabbitMQ = "rabbitmq"
)

func New(cfg config.BrokerConfig, logger *slog.Logger) (Publisher, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", KindLog:
		return NewLogPublisher(logger), nil
	case KindKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers), nil
	case KindRabbitMQ:
		return NewRabbitPublisher(cfg.RabbitURL, cfg.RabbitExchange)
	default:
		return nil, errs.Newf("unknown broker kind %q", cfg.Kind)
	}
}

// LogPublisher writes events to the log. Useful for local runs without a bus.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, msg Message) error {
	p.logger.InfoContext(ctx, "event published",
		"topic", msg.Topic,
		"key", msg.Key,
		"payload", string(msg.Payload))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
