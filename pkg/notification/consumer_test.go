package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/go-mail/mail"
	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/pkg/comment"
	"github.com/partyhub/partyhub/pkg/model"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type acknowledger struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *acknowledger) Ack(uint64, bool) error {
	a.acked = true
	return nil
}

func (a *acknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *acknowledger) Reject(_ uint64, requeue bool) error {
	return a.Nack(0, false, requeue)
}

type stubUserService map[uint]*model.User

func (s stubUserService) FindById(_ context.Context, id uint) (*model.User, error) {
	user, ok := s[id]
	if !ok {
		return nil, errdef.NewNotFound("user not found by id: %d", id)
	}
	return user, nil
}

type fakeDialer struct {
	mu       sync.Mutex
	err      error
	messages []*mail.Message
}

func (d *fakeDialer) DialAndSend(m ...*mail.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.messages = append(d.messages, m...)
	return nil
}

var users = stubUserService{
	10: {ID: 10, Email: "alice@example.com", DisplayName: "Alice"},
}

func newTestConsumer(dialer dialer) *Consumer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewConsumer(logger, nil, "partyhub.events", users, dialer, "no-reply@partyhub.app", "https://partyhub.app")
}

func delivery(t *testing.T, kind string, payload any, ack *acknowledger) amqp.Delivery {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	body, err := json.Marshal(model.Event{ID: 1, Kind: kind, Payload: raw})
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body}
}

func TestHandle(t *testing.T) {
	payload := comment.CreatedPayload{
		CommentID:      5,
		PartyID:        1,
		PartyTitle:     "Garden <party>",
		PartySlug:      "garden-party",
		PartyCreatorID: 10,
		AuthorID:       20,
		AuthorName:     "Bob",
		Body:           "See you there",
	}

	t.Run("EmailsPartyCreator", func(t *testing.T) {
		dialer := &fakeDialer{}
		ack := &acknowledger{}

		newTestConsumer(dialer).handle(context.Background(), delivery(t, model.EventCommentCreated, payload, ack))

		assert.True(t, ack.acked)
		require.Len(t, dialer.messages, 1)
		m := dialer.messages[0]
		assert.Equal(t, []string{"alice@example.com"}, m.GetHeader("To"))
		assert.Equal(t, []string{"New comment on Garden <party>"}, m.GetHeader("Subject"))
	})

	t.Run("OwnCommentIsIgnored", func(t *testing.T) {
		dialer := &fakeDialer{}
		ack := &acknowledger{}
		own := payload
		own.AuthorID = 10

		newTestConsumer(dialer).handle(context.Background(), delivery(t, model.EventCommentCreated, own, ack))

		assert.True(t, ack.acked)
		assert.Empty(t, dialer.messages)
	})

	t.Run("DeletedCreatorIsIgnored", func(t *testing.T) {
		dialer := &fakeDialer{}
		ack := &acknowledger{}
		orphan := payload
		orphan.PartyCreatorID = 99

		newTestConsumer(dialer).handle(context.Background(), delivery(t, model.EventCommentCreated, orphan, ack))

		assert.True(t, ack.acked)
		assert.Empty(t, dialer.messages)
	})

	t.Run("MalformedIsDropped", func(t *testing.T) {
		ack := &acknowledger{}

		newTestConsumer(&fakeDialer{}).handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{not json")})

		assert.True(t, ack.nacked)
		assert.False(t, ack.requeued)
	})

	t.Run("UnexpectedKindIsDropped", func(t *testing.T) {
		ack := &acknowledger{}

		newTestConsumer(&fakeDialer{}).handle(context.Background(), delivery(t, model.EventPartyCreated, payload, ack))

		assert.True(t, ack.nacked)
		assert.False(t, ack.requeued)
	})

	t.Run("MailFailureIsRetriedOnce", func(t *testing.T) {
		dialer := &fakeDialer{err: errors.New("smtp unavailable")}
		consumer := newTestConsumer(dialer)

		first := &acknowledger{}
		consumer.handle(context.Background(), delivery(t, model.EventCommentCreated, payload, first))
		assert.True(t, first.nacked)
		assert.True(t, first.requeued)

		second := &acknowledger{}
		redelivered := delivery(t, model.EventCommentCreated, payload, second)
		redelivered.Redelivered = true
		consumer.handle(context.Background(), redelivered)
		assert.True(t, second.nacked)
		assert.False(t, second.requeued)
	})
}
