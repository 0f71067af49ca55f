// Package classification PartyHub.
//
// Find parties near you, talk about them and share the souvenirs you brought back.
//
// Terms Of Service:
//
// there are no TOS at this moment, use at your own risk we take no responsibility
//
//	Version: 0.1.0
//	License: MIT
//
//	Consumes:
//	  - application/json
//	  - multipart/form-data
//
//	Produces:
//	  - application/json
//	  - text/event-stream
//
//	SecurityDefinitions:
//	  oauth2:
//	    type: oauth2
//	    tokenUrl: /tokens
//	    refreshUrl: /refresh
//	    flow: password
//
// swagger:meta
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-mail/mail"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/partyhub/partyhub/internal/handler"
	"github.com/partyhub/partyhub/internal/log"
	"github.com/partyhub/partyhub/internal/middleware"
	"github.com/partyhub/partyhub/internal/server"
	"github.com/partyhub/partyhub/internal/tracing"
	"github.com/partyhub/partyhub/internal/util"
	"github.com/partyhub/partyhub/pkg/admin"
	"github.com/partyhub/partyhub/pkg/comment"
	"github.com/partyhub/partyhub/pkg/compress"
	"github.com/partyhub/partyhub/pkg/config"
	"github.com/partyhub/partyhub/pkg/event"
	"github.com/partyhub/partyhub/pkg/geocode"
	"github.com/partyhub/partyhub/pkg/group"
	"github.com/partyhub/partyhub/pkg/health"
	"github.com/partyhub/partyhub/pkg/notification"
	"github.com/partyhub/partyhub/pkg/party"
	"github.com/partyhub/partyhub/pkg/rating"
	"github.com/partyhub/partyhub/pkg/souvenir"
	"github.com/partyhub/partyhub/pkg/storage"
	"github.com/partyhub/partyhub/pkg/token"
	"github.com/partyhub/partyhub/pkg/user"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName     = "partyhub"
	shutdownTimeout = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "partyhub: %v\n", err)
		os.Exit(1)
	}
}

type objectStore interface {
	Upload(ctx context.Context, key string, body storage.ReadAtSeeker, size int64, contentType string, progress storage.ProgressFunc) error
	Download(ctx context.Context, key string, dst io.Writer, cb func(contentLength int64)) error
	Delete(ctx context.Context, key string) error
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.New()

	logger := slog.New(log.New(log.NewPrettyJSONHandler(os.Stdout, &log.PrettyJSONHandlerOptions{
		HandlerOptions: slog.HandlerOptions{AddSource: true},
		PrettyPrint:    cfg.LogPretty,
	})))
	slog.SetDefault(logger)

	shutdownTracing, err := tracing.Setup(ctx, serviceName, cfg.OTELEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("Failed to shut down tracing", "error", err)
		}
	}()

	db, err := storage.NewDatabase(logger, cfg.Postgresql)
	if err != nil {
		return err
	}

	redisClient, err := storage.NewRedis(cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	if err := cfg.ObjectStorage.ValidateStorageBackend(); err != nil {
		return err
	}

	objects, err := newObjectStore(ctx, logger, cfg.ObjectStorage)
	if err != nil {
		return err
	}

	connection, err := amqp.Dial(cfg.RabbitMqURL.GetUrl())
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %v", err)
	}
	defer connection.Close()

	publishChannel, err := connection.Channel()
	if err != nil {
		return fmt.Errorf("failed to open publishing channel: %v", err)
	}
	if err := event.DeclareExchange(publishChannel, event.ExchangeName); err != nil {
		return fmt.Errorf("failed to declare exchange: %v", err)
	}

	consumeChannel, err := connection.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consuming channel: %v", err)
	}

	dialer := mail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)

	compressor := compress.Compressor{
		MaxDimension: cfg.Upload.ImageMaxPixels,
		JPEGQuality:  cfg.Upload.JPEGQuality,
		MinBytes:     cfg.Upload.MinCompressKB * 1024,
	}

	privateKey, err := cfg.Authentication.Keys.GetPrivateKey()
	if err != nil {
		return err
	}

	sameSite, err := util.ParseSameSiteMode(cfg.Authentication.SameSiteMode)
	if err != nil {
		return err
	}

	eventBroker := event.NewEventBroker(16)
	eventRepository := event.NewRepository(db)
	publisher := event.NewPublisher(logger, publishChannel, event.ExchangeName, eventRepository)

	tokenRepository := token.NewRepository(redisClient)

	userRepository := user.NewRepository(db)
	userService := user.NewService(logger, cfg.UIURL, cfg.SMTP.From, cfg.Authentication.PasswordTokenTTL, userRepository, dialer, objects, compressor, tokenRepository)

	groupRepository := group.NewRepository(db)
	groupService := group.NewService(groupRepository, userService)

	err = user.CreateAdminUser(ctx, cfg.AdminUser.Email, cfg.AdminUser.Password, userService, groupService)
	if err != nil {
		return err
	}

	tokenService := token.NewService(logger, tokenRepository, privateKey, cfg.Authentication.RefreshTokenSecretKey, token.Lifetimes{
		AccessToken:            cfg.Authentication.AccessTokenExpirationSeconds,
		RefreshToken:           cfg.Authentication.RefreshTokenExpirationSeconds,
		RefreshTokenRememberMe: cfg.Authentication.RefreshTokenRememberMeExpirationSeconds,
	})

	geocoder := geocode.NewClient(logger, geocode.Options{
		URL:               cfg.Geocoder.URL,
		UserAgent:         cfg.Geocoder.UserAgent,
		RequestsPerSecond: cfg.Geocoder.RequestsPerSec,
		CacheTTL:          time.Duration(cfg.Geocoder.CacheTTLSeconds) * time.Second,
		RetryMax:          3,
	}, geocode.NewRedisCache(redisClient))

	partyService := party.NewService(logger, party.NewRepository(db), geocoder, objects, publisher)
	ratingService := rating.NewService(rating.NewRepository(db), partyService)
	commentService := comment.NewService(logger, comment.NewRepository(db), partyService, publisher, eventBroker)
	souvenirService := souvenir.NewService(logger, souvenir.NewRepository(db), partyService, objects, compressor, publisher, eventBroker)
	adminService := admin.NewService(admin.NewRepository(db))

	consumer := notification.NewConsumer(logger, consumeChannel, event.ExchangeName, userService, dialer, cfg.SMTP.From, cfg.UIURL)
	if err := consumer.Setup(); err != nil {
		return err
	}

	cookieConfig := util.CookieConfig{
		SameSite:                                sameSite,
		Hostname:                                cfg.Hostname,
		BasePath:                                cfg.BasePath,
		AccessTokenExpirationSeconds:            cfg.Authentication.AccessTokenExpirationSeconds,
		RefreshTokenExpirationSeconds:           cfg.Authentication.RefreshTokenExpirationSeconds,
		RefreshTokenRememberMeExpirationSeconds: cfg.Authentication.RefreshTokenRememberMeExpirationSeconds,
	}

	authentication := middleware.NewAuthentication(logger, &privateKey.PublicKey, userService)
	authorization := middleware.NewAuthorization(logger, userService)

	if err := handler.RegisterValidation(); err != nil {
		return err
	}

	engine := server.GetEngine(logger, cfg.AllowedOrigins)
	router := engine.Group(cfg.BasePath)
	health.Routes(router)
	server.Docs(router, cfg.BasePath)
	user.Routes(router, authentication, authorization, user.NewHandler(cookieConfig, cfg.Upload.MaxAvatarBytes(), userService, tokenService))
	group.Routes(router, authentication, authorization, group.NewHandler(groupService))
	party.Routes(router, authentication, party.NewHandler(partyService, ratingService))
	rating.Routes(router, authentication, rating.NewHandler(ratingService))
	comment.Routes(router, authentication, comment.NewHandler(commentService))
	souvenir.Routes(router, authentication, souvenir.NewHandler(logger, cfg.Upload.MaxSizeBytes(), souvenirService))
	geocode.Routes(router, authentication, geocode.NewHandler(geocoder))
	event.Routes(router, authentication, authorization, event.NewHandler(logger, eventBroker, eventRepository, 30*time.Second))
	admin.Routes(router, authentication, authorization, admin.NewHandler(adminService))

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown doesn't cancel requests, event streams have to be ended explicitly
	httpServer.RegisterOnShutdown(eventBroker.Close)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Listening", "address", httpServer.Addr, "basePath", cfg.BasePath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		return consumer.Consume(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newObjectStore(ctx context.Context, logger *slog.Logger, c config.ObjectStorage) (objectStore, error) {
	if c.Backend == "minio" {
		client, err := minio.New(c.Minio.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(c.Minio.AccessKey, c.Minio.SecretKey, ""),
			Secure: c.Minio.UseSSL,
			Region: c.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create MinIO client: %v", err)
		}

		minioClient := storage.NewMinioClient(logger, c.Bucket, client)
		if err := minioClient.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return minioClient, nil
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(c.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %v", err)
	}

	client := s3.NewFromConfig(awsCfg)
	uploader := manager.NewUploader(client)
	return storage.NewS3Client(logger, c.Bucket, client, uploader), nil
}
