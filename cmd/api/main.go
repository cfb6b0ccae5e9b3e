package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/karsa-studio/api/internal/di"
	"github.com/karsa-studio/api/internal/handlers"
	"github.com/karsa-studio/api/internal/platform/auth"
	"github.com/karsa-studio/api/internal/platform/config"
	"github.com/karsa-studio/api/internal/platform/drive"
	pfirestore "github.com/karsa-studio/api/internal/platform/firestore"
	"github.com/karsa-studio/api/internal/platform/idempotency"
	"github.com/karsa-studio/api/internal/platform/jobs"
	"github.com/karsa-studio/api/internal/platform/observability"
	platformstorage "github.com/karsa-studio/api/internal/platform/storage"
	"github.com/karsa-studio/api/internal/repositories"
	"github.com/karsa-studio/api/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			logger.Fatal("invalid configuration", zap.Strings("fields", invalid.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	signedURLClient := newSignedURLClient(logger, cfg)

	var notificationTopic *pubsub.Topic
	var publisher services.NotificationJobPublisher
	if cfg.Features.EnableNotifications && cfg.PubSub.ProjectID != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		notificationTopic = pubsubClient.Topic(cfg.PubSub.NotificationTopic)
		defer notificationTopic.Stop()

		publisher, err = jobs.NewPubSubNotificationPublisher(notificationTopic)
		if err != nil {
			logger.Fatal("failed to initialise notification publisher", zap.Error(err))
		}
	}

	var driveClient services.DriveClient
	if cfg.Features.EnableStoreCatalog {
		client, err := drive.NewClient(ctx, cfg.Drive.CredentialsFile)
		if err != nil {
			logger.Warn("drive client init failed; file browsing disabled", zap.Error(err))
		} else {
			driveClient = client
		}
	}

	healthRepo, err := newHealthRepository(firestoreClient, notificationTopic)
	if err != nil {
		logger.Warn("health checks unavailable", zap.Error(err))
	}

	container, err := di.NewContainer(ctx, di.ContainerDeps{
		Config:    cfg,
		Provider:  firestoreProvider,
		Storage:   signedURLClient,
		Publisher: publisher,
		Drive:     driveClient,
		Health:    healthRepo,
		Build:     buildInfoFromEnv(),
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("failed to assemble dependencies", zap.Error(err))
	}

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(firebaseVerifier, auth.WithUserGetter(firebaseVerifier))

	idempotencyStore := idempotency.NewFirestoreStore(firestoreClient)
	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	var cleanupWG sync.WaitGroup
	var cleanupTicker *time.Ticker
	if cfg.Idempotency.CleanupInterval > 0 {
		cleanupTicker = time.NewTicker(cfg.Idempotency.CleanupInterval)
		cleanupWG.Add(1)
		go func() {
			defer cleanupWG.Done()
			cleanupLogger := logger.Named("idempotency")
			for {
				select {
				case <-cleanupTicker.C:
					runCtx, cancel := context.WithTimeout(cleanupCtx, time.Minute)
					removed, err := idempotencyStore.CleanupExpired(runCtx, time.Now().UTC(), cfg.Idempotency.CleanupBatchSize)
					cancel()
					if err != nil {
						cleanupLogger.Error("idempotency cleanup error", zap.Error(err))
						continue
					}
					if removed > 0 {
						cleanupLogger.Info("idempotency cleanup removed records", zap.Int("count", removed))
					}
				case <-cleanupCtx.Done():
					return
				}
			}
		}()
	}

	svc := container.Services
	orderHandlers := handlers.NewOrderHandlers(svc.Orders, handlers.WithSupportWhatsApp(cfg.Contact.WhatsAppNumber))
	storeOrderHandlers := handlers.NewStoreOrderHandlers(svc.StoreOrders, handlers.WithStoreSupportWhatsApp(cfg.Contact.WhatsAppNumber))
	discountHandlers := handlers.NewDiscountHandlers(svc.Discounts)
	notificationHandlers := handlers.NewNotificationHandlers(svc.Notifications)
	fileHandlers := handlers.NewFileHandlers(svc.Files)
	catalogHandlers := handlers.NewCatalogHandlers(svc.Catalog)
	paymentMethodHandlers := handlers.NewPaymentMethodHandlers(svc.PaymentMethods)
	healthHandlers := handlers.NewHealthHandlers(svc.System)

	projectID := traceProjectID(cfg)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
		idempotencyMiddleware,
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithStoreOrderRoutes(storeOrderHandlers.Routes),
		handlers.WithDiscountRoutes(discountHandlers.Routes),
		handlers.WithFileRoutes(fileHandlers.Routes),
		handlers.WithPaymentMethodRoutes(paymentMethodHandlers.Routes),
		handlers.WithAdminMiddlewares(authenticator.RequireFirebaseAuth("admin")),
		handlers.WithAdminRoutes(func(r chi.Router) {
			orderHandlers.AdminRoutes(r)
			storeOrderHandlers.AdminRoutes(r)
			discountHandlers.AdminRoutes(r)
			notificationHandlers.AdminRoutes(r)
			paymentMethodHandlers.AdminRoutes(r)
		}),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("karsa api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	if cleanupTicker != nil {
		cleanupTicker.Stop()
	}
	cleanupCancel()
	cleanupWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newSignedURLClient(logger *zap.Logger, cfg config.Config) *platformstorage.Client {
	credentialsFile := strings.TrimSpace(cfg.Firebase.CredentialsFile)
	if credentialsFile == "" {
		logger.Warn("storage signer credentials missing; proof uploads disabled")
		return nil
	}
	signer, err := platformstorage.NewServiceAccountSignerFromFile(credentialsFile)
	if err != nil {
		logger.Warn("storage signer init failed; proof uploads disabled", zap.Error(err))
		return nil
	}
	client, err := platformstorage.NewClient(signer)
	if err != nil {
		logger.Warn("signed url client init failed; proof uploads disabled", zap.Error(err))
		return nil
	}
	return client
}

func newHealthRepository(client *firestore.Client, topic *pubsub.Topic) (repositories.HealthRepository, error) {
	checks := make([]repositories.DependencyCheck, 0, 2)
	if client != nil {
		c := client
		checks = append(checks, repositories.DependencyCheck{
			Name:    "firestore",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				iter := c.Collections(ctx)
				_, err := iter.Next()
				if errors.Is(err, iterator.Done) {
					return nil
				}
				return err
			},
		})
	}
	if topic != nil {
		t := topic
		checks = append(checks, repositories.DependencyCheck{
			Name:    "pubsub",
			Timeout: time.Second,
			Check: func(ctx context.Context) error {
				exists, err := t.Exists(ctx)
				if err != nil {
					return err
				}
				if !exists {
					return fmt.Errorf("topic %s does not exist", t.ID())
				}
				return nil
			},
		})
	}
	if len(checks) == 0 {
		return nil, errors.New("health: no dependency checks configured")
	}
	return repositories.NewDependencyHealthRepository(checks)
}

func buildInfoFromEnv() services.BuildInfo {
	version := strings.TrimSpace(os.Getenv("API_BUILD_VERSION"))
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(os.Getenv("API_BUILD_COMMIT_SHA"))
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(os.Getenv("API_ENVIRONMENT"))
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
	}
}

func traceProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Firebase.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firestore.ProjectID)
}
