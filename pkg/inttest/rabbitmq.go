package inttest

import (
	"fmt"
	"testing"

	"github.com/orlangure/gnomock"
	"github.com/orlangure/gnomock/preset/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

// SetupRabbitMQ creates a RabbitMQ container returning an AMQP client ready to send messages to it.
func SetupRabbitMQ(t *testing.T) *AMQP {
	t.Helper()

	container, err := gnomock.Start(
		rabbitmq.Preset(
			rabbitmq.WithUser("partyhub", "partyhub"),
		),
	)
	require.NoError(t, err, "failed to start RabbitMQ")
	t.Cleanup(func() { require.NoError(t, gnomock.Stop(container), "failed to stop RabbitMQ") })

	URI := fmt.Sprintf("amqp://%s:%s@%s", "partyhub", "partyhub", container.DefaultAddress())
	conn, err := amqp.Dial(URI)
	require.NoErrorf(t, err, "failed to connect to RabbitMQ at %q", URI)
	t.Cleanup(func() {
		require.NoError(t, conn.Close(), "failed to close connection to RabbitMQ")
	})

	ch, err := conn.Channel()
	require.NoError(t, err, "failed to open channel to RabbitMQ")

	return &AMQP{Channel: ch, URI: URI}
}

// AMQP allows making requests to RabbitMQ. It does so by opening a connection and channel to
// RabbitMQ via the low-level github.com/rabbitmq/amqp091-go library.
type AMQP struct {
	Channel *amqp.Channel
	URI     string
}
