package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/partyhub/partyhub/pkg/model"
	amqp "github.com/rabbitmq/amqp091-go"
)

const ExchangeName = "partyhub.events"

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type exchangeDeclarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
}

// DeclareExchange declares the durable topic exchange domain events are published to. Events are
// routed by their kind.
func DeclareExchange(channel exchangeDeclarer, name string) error {
	return channel.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil)
}

type eventCreator interface {
	Create(ctx context.Context, event *model.Event) error
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewPublisher(logger *slog.Logger, channel amqpChannel, exchange string, repository eventCreator) *Publisher {
	return &Publisher{
		logger:     logger,
		channel:    channel,
		exchange:   exchange,
		repository: repository,
	}
}

// Publisher records domain events in the activity log and publishes them to RabbitMQ. Without a
// channel events are only recorded.
type Publisher struct {
	logger     *slog.Logger
	channel    amqpChannel
	exchange   string
	repository eventCreator
}

// Publish never fails the caller. Errors are logged.
func (p Publisher) Publish(ctx context.Context, kind string, userID, partyID uint, payload any) {
	ctx = context.WithoutCancel(ctx)

	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to marshal event payload", "kind", kind, "error", err)
		return
	}

	event := &model.Event{
		Kind:    kind,
		UserID:  optional(userID),
		PartyID: optional(partyID),
		Payload: body,
	}

	if err := p.repository.Create(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "Failed to store event", "kind", kind, "error", err)
	}

	if p.channel == nil {
		return
	}

	message, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to marshal event", "kind", kind, "error", err)
		return
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, kind, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Type:         kind,
		Body:         message,
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish event", "kind", kind, "error", err)
		return
	}

	p.logger.DebugContext(ctx, "Published event", "kind", kind, "eventId", event.ID)
}

func optional(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
