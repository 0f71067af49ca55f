package storage

import (
	"fmt"
	"log/slog"

	slogGorm "github.com/orandin/slog-gorm"
	"github.com/partyhub/partyhub/pkg/config"
	"github.com/partyhub/partyhub/pkg/model"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewDatabase connects to PostgreSQL, instruments gorm with OpenTelemetry and migrates the schema.
func NewDatabase(logger *slog.Logger, c config.Postgresql) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable", c.Host, c.Username, c.Password, c.DatabaseName, c.Port)

	gormLogger := slogGorm.New(
		slogGorm.WithHandler(logger.Handler()),
		slogGorm.WithTraceAll(),
		slogGorm.SetLogLevel(slogGorm.DefaultLogType, slog.LevelDebug),
		slogGorm.SetLogLevel(slogGorm.ErrorLogType, slog.LevelError),
		slogGorm.SetLogLevel(slogGorm.SlowQueryLogType, slog.LevelWarn),
	)

	// foreign keys are not created as deletions cascade in the services, which also remove stored
	// objects
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   gormLogger,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := db.Use(otelgorm.NewPlugin(otelgorm.WithDBName(c.DatabaseName))); err != nil {
		return nil, fmt.Errorf("failed to instrument database: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Group{},
		&model.Party{},
		&model.Comment{},
		&model.Souvenir{},
		&model.Rating{},
		&model.Event{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %v", err)
	}

	return db, nil
}
