package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/karsa-studio/api/internal/platform/config"
	pfirestore "github.com/karsa-studio/api/internal/platform/firestore"
	pstorage "github.com/karsa-studio/api/internal/platform/storage"
	"github.com/karsa-studio/api/internal/repositories"
	firestoreRepo "github.com/karsa-studio/api/internal/repositories/firestore"
	"github.com/karsa-studio/api/internal/services"
)

// Repositories bundles the Firestore-backed repositories assembled by the container.
type Repositories struct {
	Orders         repositories.OrderRepository
	StoreOrders    repositories.StoreOrderRepository
	Logs           repositories.OrderLogRepository
	Discounts      repositories.DiscountRepository
	Notifications  repositories.NotificationRepository
	PaymentMethods repositories.PaymentMethodRepository
	Catalog        repositories.CatalogRepository
	Assets         repositories.AssetRepository
}

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Orders         services.OrderService
	StoreOrders    services.StoreOrderService
	Discounts      services.DiscountService
	Notifications  services.NotificationService
	Files          services.FileBrowserService
	Catalog        services.CatalogService
	PaymentMethods services.PaymentMethodService
	System         services.SystemService
}

// ContainerDeps lists the externally constructed collaborators the container
// wires together. Provider and Storage are required; the rest degrade the
// matching service to unavailable when absent.
type ContainerDeps struct {
	Config    config.Config
	Provider  *pfirestore.Provider
	Storage   *pstorage.Client
	Publisher services.NotificationJobPublisher
	Drive     services.DriveClient
	Health    repositories.HealthRepository
	Build     services.BuildInfo
	Logger    *zap.Logger
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories Repositories
	Services     Services
}

// NewContainer constructs the runtime dependency graph. Tests can bypass it
// and hand stub repositories straight to the service constructors.
func NewContainer(ctx context.Context, deps ContainerDeps) (*Container, error) {
	if deps.Provider == nil {
		return nil, errors.New("di: firestore provider is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	repos, err := buildRepositories(deps)
	if err != nil {
		return nil, err
	}

	svc, err := buildServices(ctx, deps, repos)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       deps.Config,
		Repositories: repos,
		Services:     svc,
	}, nil
}

func buildRepositories(deps ContainerDeps) (Repositories, error) {
	var repos Repositories

	orderRepo, err := firestoreRepo.NewOrderRepository(deps.Provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build order repository: %w", err)
	}
	repos.Orders = orderRepo

	storeOrderRepo, err := firestoreRepo.NewStoreOrderRepository(deps.Provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build store order repository: %w", err)
	}
	repos.StoreOrders = storeOrderRepo

	logRepo, err := firestoreRepo.NewOrderLogRepository(deps.Provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build order log repository: %w", err)
	}
	repos.Logs = logRepo

	discountRepo, err := firestoreRepo.NewDiscountRepository(deps.Provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build discount repository: %w", err)
	}
	repos.Discounts = discountRepo

	notificationRepo, err := firestoreRepo.NewNotificationRepository(deps.Provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build notification repository: %w", err)
	}
	repos.Notifications = notificationRepo

	paymentMethodRepo, err := firestoreRepo.NewPaymentMethodRepository(deps.Provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build payment method repository: %w", err)
	}
	repos.PaymentMethods = paymentMethodRepo

	catalogRepo, err := firestoreRepo.NewCatalogRepository(deps.Provider)
	if err != nil {
		return Repositories{}, fmt.Errorf("build catalog repository: %w", err)
	}
	repos.Catalog = catalogRepo

	if deps.Storage != nil {
		assetRepo, err := firestoreRepo.NewAssetRepository(
			deps.Provider,
			deps.Storage,
			deps.Config.Storage.ProofsBucket,
			firestoreRepo.WithAssetUploadTTL(deps.Config.Storage.SignedURLTTL),
		)
		if err != nil {
			return Repositories{}, fmt.Errorf("build asset repository: %w", err)
		}
		repos.Assets = assetRepo
	}

	return repos, nil
}

func buildServices(ctx context.Context, deps ContainerDeps, repos Repositories) (Services, error) {
	var svc Services
	cfg := deps.Config

	notificationSvc, err := services.NewNotificationService(services.NotificationServiceDeps{
		Notifications: repos.Notifications,
		Publisher:     deps.Publisher,
		Clock:         time.Now,
		Logger:        eventLogger(deps.Logger.Named("notifications")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build notification service: %w", err)
	}
	svc.Notifications = notificationSvc

	var notifier services.NotificationService
	if cfg.Features.EnableNotifications {
		notifier = notificationSvc
	}

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:          repos.Orders,
		Logs:            repos.Logs,
		Catalog:         repos.Catalog,
		PaymentMethods:  repos.PaymentMethods,
		Discounts:       discountRepoIfEnabled(cfg, repos),
		Assets:          repos.Assets,
		Notifier:        notifier,
		UnitOfWork:      deps.Provider,
		PaymentDeadline: cfg.Orders.PaymentDeadline,
		Clock:           time.Now,
		Logger:          eventLogger(deps.Logger.Named("orders")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	if cfg.Features.EnableStoreCatalog {
		storeOrderSvc, err := services.NewStoreOrderService(services.StoreOrderServiceDeps{
			StoreOrders:     repos.StoreOrders,
			Logs:            repos.Logs,
			Catalog:         repos.Catalog,
			PaymentMethods:  repos.PaymentMethods,
			Discounts:       discountRepoIfEnabled(cfg, repos),
			Notifier:        notifier,
			UnitOfWork:      deps.Provider,
			PaymentDeadline: cfg.Orders.PaymentDeadline,
			Clock:           time.Now,
			Logger:          eventLogger(deps.Logger.Named("store_orders")),
		})
		if err != nil {
			return Services{}, fmt.Errorf("build store order service: %w", err)
		}
		svc.StoreOrders = storeOrderSvc
	}

	if cfg.Features.EnableDiscounts {
		discountSvc, err := services.NewDiscountService(services.DiscountServiceDeps{
			Discounts: repos.Discounts,
			Clock:     time.Now,
			Logger:    eventLogger(deps.Logger.Named("discounts")),
		})
		if err != nil {
			return Services{}, fmt.Errorf("build discount service: %w", err)
		}
		svc.Discounts = discountSvc
	}

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Catalog: repos.Catalog,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	paymentMethodSvc, err := services.NewPaymentMethodService(services.PaymentMethodServiceDeps{
		PaymentMethods: repos.PaymentMethods,
		Clock:          time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build payment method service: %w", err)
	}
	svc.PaymentMethods = paymentMethodSvc

	if deps.Drive != nil && cfg.Features.EnableStoreCatalog {
		fileSvc, err := services.NewFileBrowserService(services.FileBrowserServiceDeps{
			StoreOrders: repos.StoreOrders,
			Catalog:     repos.Catalog,
			Drive:       deps.Drive,
			Logger:      eventLogger(deps.Logger.Named("files")),
		})
		if err != nil {
			return Services{}, fmt.Errorf("build file browser service: %w", err)
		}
		svc.Files = fileSvc
	}

	if deps.Health != nil {
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			Health: deps.Health,
			Build:  deps.Build,
			Clock:  time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}

func discountRepoIfEnabled(cfg config.Config, repos Repositories) repositories.DiscountRepository {
	if !cfg.Features.EnableDiscounts {
		return nil
	}
	return repos.Discounts
}

func eventLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug("service log", zFields...)
	}
}
