package inttest

import (
	"testing"

	"github.com/go-redis/redis"
	"github.com/orlangure/gnomock"
	gnomockRedis "github.com/orlangure/gnomock/preset/redis"
	"github.com/partyhub/partyhub/pkg/config"
	"github.com/partyhub/partyhub/pkg/storage"
	"github.com/stretchr/testify/require"
)

// SetupRedis starts Redis and connects to it the same way the server does.
func SetupRedis(t *testing.T) *redis.Client {
	t.Helper()

	container, err := gnomock.Start(gnomockRedis.Preset())
	require.NoError(t, err, "failed to start Redis")
	t.Cleanup(func() { require.NoError(t, gnomock.Stop(container), "failed to stop Redis") })

	client, err := storage.NewRedis(config.Redis{
		Host: container.Host,
		Port: container.DefaultPort(),
	})
	require.NoError(t, err, "failed to connect to Redis")
	t.Cleanup(func() { _ = client.Close() })

	return client
}
