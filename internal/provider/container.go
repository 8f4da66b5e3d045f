package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nextchow/internal/cache"
	"github.com/nextchow/internal/config"
	"github.com/nextchow/internal/logger"
	"github.com/nextchow/internal/metrics"
	"github.com/nextchow/internal/models"
	"github.com/nextchow/internal/payment/paystack"
	"github.com/nextchow/internal/queue"
	"github.com/nextchow/internal/repository"
	"github.com/nextchow/internal/service"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	Mongo       *mongo.Client
	Cache       *cache.Store
	Locker      cache.Locker
	QueueClient *queue.Client
	Metrics     *metrics.Metrics

	// Repositories
	CatalogRepo  repository.CatalogRepository
	CustomerRepo repository.CustomerRepository
	VendorRepo   repository.VendorRepository
	CartRepo     repository.CartRepository
	OrderRepo    repository.OrderRepository
	PaymentRepo  repository.PaymentIntentRepository

	// Services
	Gateway             service.PaymentGateway
	CatalogService      *service.CatalogService
	CartService         *service.CartService
	CheckoutService     *service.CheckoutService
	OrderService        *service.OrderService
	PaymentService      *service.PaymentService
	ReconcileService    *service.ReconcileService
	CustomerAuthService *service.CustomerAuthService
	VendorAuthService   *service.VendorAuthService
}

// NewContainer 打开外部依赖并初始化容器
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	db, err := models.OpenDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.LogLevel, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		_ = models.CloseDB(db)
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	store := cache.NewStore(&cfg.Redis)
	if store.Enabled() {
		if err := store.Ping(ctx); err != nil {
			logger.Warnw("provider_redis_ping_failed", "error", err)
		}
	}

	c, err := NewContainerWithDB(ctx, cfg, db, store)
	if err != nil {
		_ = store.Close()
		_ = models.CloseDB(db)
		return nil, err
	}
	return c, nil
}

// NewContainerWithDB 基于已打开的数据库与缓存初始化容器
func NewContainerWithDB(ctx context.Context, cfg *config.Config, db *gorm.DB, store *cache.Store) (*Container, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("config or database is nil")
	}
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		DB:          db,
		Cache:       store,
		Locker:      cache.NewLocker(store),
		QueueClient: queueClient,
	}
	if cfg.Metrics.Enabled {
		c.Metrics = metrics.New()
	}
	if err := c.initRepositories(ctx); err != nil {
		_ = queueClient.Close()
		return nil, err
	}
	c.initServices()
	return c, nil
}

func (c *Container) initRepositories(ctx context.Context) error {
	c.CatalogRepo = repository.NewCatalogRepository(c.DB)
	c.CustomerRepo = repository.NewCustomerRepository(c.DB)
	c.VendorRepo = repository.NewVendorRepository(c.DB)
	c.OrderRepo = repository.NewOrderRepository(c.DB)
	c.PaymentRepo = repository.NewPaymentIntentRepository(c.DB)

	switch strings.ToLower(strings.TrimSpace(c.Config.Cart.Store)) {
	case "mongo", "mongodb":
		timeout := time.Duration(c.Config.Mongo.ConnectTimeoutSeconds) * time.Second
		client, database, err := repository.ConnectMongoDB(ctx, c.Config.Mongo.URI, c.Config.Mongo.Database, timeout)
		if err != nil {
			return fmt.Errorf("connect mongodb: %w", err)
		}
		cartRepo := repository.NewMongoCartRepository(database)
		if err := cartRepo.CreateIndexes(ctx); err != nil {
			logger.Warnw("provider_mongo_cart_index_failed", "error", err)
		}
		c.Mongo = client
		c.CartRepo = cartRepo
		logger.Infow("provider_cart_store_selected", "store", "mongodb", "database", c.Config.Mongo.Database)
	default:
		c.CartRepo = repository.NewCartRepository(c.DB)
	}
	return nil
}

func (c *Container) initServices() {
	cfg := c.Config
	lockOpts := service.LockOptions{TTL: cfg.Checkout.LockTTL(), Wait: cfg.Checkout.LockWait()}

	c.Gateway = service.NewPaystackGateway(service.PaystackGatewayOptions{
		Config: paystack.Config{
			SecretKey:   cfg.Paystack.SecretKey,
			APIBaseURL:  cfg.Paystack.BaseURL,
			CallbackURL: cfg.Paystack.CallbackURL,
			Timeout:     cfg.Paystack.Timeout(),
		},
		MaxFailures: cfg.Paystack.Breaker.MaxFailures,
		OpenTimeout: time.Duration(cfg.Paystack.Breaker.OpenSeconds) * time.Second,
	}, c.Metrics)

	c.CatalogService = service.NewCatalogService(c.CatalogRepo, c.VendorRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.CatalogService, c.Locker, service.CartOptions{
		MaxPacks: cfg.Cart.MaxPacks,
		Lock:     lockOpts,
	})
	c.CheckoutService = service.NewCheckoutService(
		c.CartRepo,
		c.OrderRepo,
		c.PaymentRepo,
		c.CustomerRepo,
		c.VendorRepo,
		c.CatalogService,
		c.Gateway,
		c.Locker,
		c.QueueClient,
		c.Metrics,
		service.CheckoutOptions{
			Currency:       cfg.Checkout.Currency,
			Lock:           lockOpts,
			ReconcileAfter: cfg.Checkout.ReconcileAfter(),
		},
	)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.Locker, lockOpts)
	c.PaymentService = service.NewPaymentService(c.PaymentRepo, c.OrderRepo, c.Gateway)
	c.ReconcileService = service.NewReconcileService(
		c.OrderRepo,
		c.PaymentRepo,
		c.PaymentService,
		c.Locker,
		lockOpts,
		c.Metrics,
		cfg.Checkout.ReconcileAfter(),
	)
	c.CustomerAuthService = service.NewCustomerAuthService(cfg.UserJWT.SecretKey, cfg.UserJWT.Issuer, c.CustomerRepo, c.Cache)
	c.VendorAuthService = service.NewVendorAuthService(cfg.UserJWT.SecretKey, cfg.UserJWT.Issuer, c.VendorRepo)
}

// Close 释放容器持有的连接
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	if err := c.QueueClient.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close queue client: %w", err))
	}
	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect mongodb: %w", err))
		}
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if c.DB != nil {
		if err := models.CloseDB(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
