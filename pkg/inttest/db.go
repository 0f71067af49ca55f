package inttest

import (
	"io"
	"log/slog"
	"testing"

	_ "github.com/lib/pq" // used by gnomock to wait for PostgreSQL
	"github.com/orlangure/gnomock"
	"github.com/orlangure/gnomock/preset/postgres"
	"github.com/partyhub/partyhub/pkg/config"
	"github.com/partyhub/partyhub/pkg/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	dbUser = "partyhub"
	dbName = "partyhub_test"
)

// SetupDB starts PostgreSQL and returns a gorm connection with every model migrated.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	container, err := gnomock.Start(postgres.Preset(
		postgres.WithUser(dbUser, dbUser),
		postgres.WithDatabase(dbName),
	))
	require.NoError(t, err, "failed to start PostgreSQL")
	t.Cleanup(func() { require.NoError(t, gnomock.Stop(container), "failed to stop PostgreSQL") })

	// gorm only logs slow queries and failures at warn, which are expected in tests
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := storage.NewDatabase(logger, config.Postgresql{
		Host:         container.Host,
		Port:         container.DefaultPort(),
		Username:     dbUser,
		Password:     dbUser,
		DatabaseName: dbName,
	})
	require.NoError(t, err, "failed to migrate PostgreSQL")

	return db
}
