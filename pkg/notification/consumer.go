// Package notification emails party creators about activity on their parties.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"

	"github.com/go-mail/mail"
	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/pkg/comment"
	"github.com/partyhub/partyhub/pkg/model"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	QueueName = "partyhub.comment-notifications"
	prefetch  = 10
)

type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	ConsumeWithContext(ctx context.Context, queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type userService interface {
	FindById(ctx context.Context, id uint) (*model.User, error)
}

type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

func NewConsumer(logger *slog.Logger, channel amqpChannel, exchange string, userService userService, dialer dialer, mailFrom, uiUrl string) *Consumer {
	return &Consumer{
		logger:      logger,
		channel:     channel,
		exchange:    exchange,
		queue:       QueueName,
		userService: userService,
		dialer:      dialer,
		mailFrom:    mailFrom,
		uiUrl:       uiUrl,
	}
}

// Consumer sends an email to the creator of a party when somebody else comments on it.
type Consumer struct {
	logger      *slog.Logger
	channel     amqpChannel
	exchange    string
	queue       string
	userService userService
	dialer      dialer
	mailFrom    string
	uiUrl       string
}

// Setup declares the queue and binds it to comment.created events.
func (c *Consumer) Setup() error {
	if _, err := c.channel.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %q: %v", c.queue, err)
	}

	if err := c.channel.QueueBind(c.queue, model.EventCommentCreated, c.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %q to exchange %q: %v", c.queue, c.exchange, err)
	}

	if err := c.channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch count: %v", err)
	}

	return nil
}

// Consume handles deliveries until ctx is cancelled or the channel is closed.
func (c *Consumer) Consume(ctx context.Context) error {
	deliveries, err := c.channel.ConsumeWithContext(ctx, c.queue, "partyhub-notification", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume from queue %q: %v", c.queue, err)
	}

	c.logger.InfoContext(ctx, "Consuming comment notifications", "queue", c.queue)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("delivery channel of queue %q closed", c.queue)
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var event model.Event
	var payload comment.CreatedPayload
	if err := decode(d.Body, &event, &payload); err != nil {
		c.logger.ErrorContext(ctx, "Error decoding comment notification", "error", err, "messageId", d.MessageId)
		if err := d.Nack(false, false); err != nil {
			c.logger.ErrorContext(ctx, "Error negatively acknowledging comment notification", "error", err)
		}
		return
	}

	if err := c.notify(ctx, payload); err != nil {
		requeue := !d.Redelivered
		c.logger.ErrorContext(ctx, "Error sending comment notification", "error", err, "commentId", payload.CommentID, "requeue", requeue)
		if err := d.Nack(false, requeue); err != nil {
			c.logger.ErrorContext(ctx, "Error negatively acknowledging comment notification", "error", err)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		c.logger.ErrorContext(ctx, "Error acknowledging comment notification", "error", err, "commentId", payload.CommentID)
	}
}

func decode(body []byte, event *model.Event, payload *comment.CreatedPayload) error {
	if err := json.Unmarshal(body, event); err != nil {
		return err
	}

	if event.Kind != model.EventCommentCreated {
		return fmt.Errorf("unexpected event kind %q", event.Kind)
	}

	if err := json.Unmarshal(event.Payload, payload); err != nil {
		return err
	}

	if payload.CommentID == 0 || payload.PartyID == 0 {
		return fmt.Errorf("incomplete payload of event %d", event.ID)
	}

	return nil
}

func (c *Consumer) notify(ctx context.Context, payload comment.CreatedPayload) error {
	if payload.PartyCreatorID == 0 || payload.PartyCreatorID == payload.AuthorID {
		return nil
	}

	creator, err := c.userService.FindById(ctx, payload.PartyCreatorID)
	if err != nil {
		if errdef.IsNotFound(err) {
			c.logger.InfoContext(ctx, "Party creator no longer exists", "userId", payload.PartyCreatorID)
			return nil
		}
		return err
	}

	m := mail.NewMessage()
	m.SetHeader("From", c.mailFrom)
	m.SetHeader("To", creator.Email)
	m.SetHeader("Subject", fmt.Sprintf("New comment on %s", payload.PartyTitle))
	link := fmt.Sprintf("%s/parties/%s", c.uiUrl, payload.PartySlug)
	body := fmt.Sprintf("Hello %s, %s commented on your party %s:<br/><blockquote>%s</blockquote>%s",
		html.EscapeString(creator.DisplayName),
		html.EscapeString(payload.AuthorName),
		html.EscapeString(payload.PartyTitle),
		html.EscapeString(payload.Body),
		link,
	)
	m.SetBody("text/html", body)

	if err := c.dialer.DialAndSend(m); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Sent comment notification", "userId", creator.ID, "commentId", payload.CommentID)
	return nil
}
