package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nextchow/internal/cache"
	"github.com/nextchow/internal/constants"
	"github.com/nextchow/internal/models"
	"github.com/nextchow/internal/queue"
	"github.com/nextchow/internal/repository"

	"gorm.io/gorm"
)

type serviceTestEnv struct {
	db           *gorm.DB
	cartRepo     *repository.GormCartRepository
	orderRepo    *repository.GormOrderRepository
	paymentRepo  *repository.GormPaymentIntentRepository
	customerRepo *repository.GormCustomerRepository
	vendorRepo   *repository.GormVendorRepository
	catalog      *CatalogService
	gateway      *fakeGateway
	locker       cache.Locker
	cart         *CartService
	checkout     *CheckoutService
	orders       *OrderService
	payments     *PaymentService
}

type serviceFixture struct {
	vendor    models.VendorProfile
	customer  models.Customer
	menuA     models.Menu
	menuB     models.Menu
	packaging models.Packaging
}

// setupServiceTest 初始化内存 SQLite 与全部服务
func setupServiceTest(t *testing.T, name string) *serviceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := models.OpenDB("sqlite", dsn, "silent", models.DBPoolConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	t.Cleanup(func() {
		_ = models.CloseDB(db)
	})

	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}

	env := &serviceTestEnv{
		db:           db,
		cartRepo:     repository.NewCartRepository(db),
		orderRepo:    repository.NewOrderRepository(db),
		paymentRepo:  repository.NewPaymentIntentRepository(db),
		customerRepo: repository.NewCustomerRepository(db),
		vendorRepo:   repository.NewVendorRepository(db),
		gateway:      &fakeGateway{},
		locker:       cache.NewLocalLocker(),
	}
	env.catalog = NewCatalogService(repository.NewCatalogRepository(db), env.vendorRepo)
	lockOpts := LockOptions{TTL: 5 * time.Second, Wait: 2 * time.Second}
	env.cart = NewCartService(env.cartRepo, env.catalog, env.locker, CartOptions{MaxPacks: constants.DefaultMaxCartPacks, Lock: lockOpts})
	env.checkout = NewCheckoutService(env.cartRepo, env.orderRepo, env.paymentRepo, env.customerRepo, env.vendorRepo,
		env.catalog, env.gateway, env.locker, queueClient, nil, CheckoutOptions{Currency: "NGN", Lock: lockOpts})
	env.orders = NewOrderService(env.orderRepo, env.locker, lockOpts)
	env.payments = NewPaymentService(env.paymentRepo, env.orderRepo, env.gateway)
	return env
}

// seedFixture 商家、顾客、两个菜品（500/300）与一个包装（200）
func seedFixture(t *testing.T, env *serviceTestEnv) serviceFixture {
	t.Helper()
	f := serviceFixture{
		vendor: models.VendorProfile{
			StoreName: "Mama Put",
			Address:   "12 Market Road",
			Location:  models.NewGeoPoint(7.186, 8.894),
		},
		customer: models.Customer{
			FirstName: "Ada",
			LastName:  "Obi",
			Email:     fmt.Sprintf("ada_%d@example.com", time.Now().UnixNano()),
			Phone:     "+2348000000000",
			Address:   "4 Garden Close",
			Location:  models.NewGeoPoint(7.200, 8.900),
			Status:    constants.CustomerStatusActive,
		},
	}
	if err := env.db.Create(&f.vendor).Error; err != nil {
		t.Fatalf("create vendor failed: %v", err)
	}
	if err := env.db.Create(&f.customer).Error; err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	f.menuA = models.Menu{VendorID: f.vendor.ID, Name: "Jollof Rice", Price: models.NewMoney(500), IsAvailable: true}
	f.menuB = models.Menu{VendorID: f.vendor.ID, Name: "Plantain", Price: models.NewMoney(300), IsAvailable: true}
	f.packaging = models.Packaging{VendorID: f.vendor.ID, Name: "Takeaway Box", Price: models.NewMoney(200)}
	for _, record := range []interface{}{&f.menuA, &f.menuB, &f.packaging} {
		if err := env.db.Create(record).Error; err != nil {
			t.Fatalf("create catalog entry failed: %v", err)
		}
	}
	return f
}

// scenarioPack 2×A + 1×B + 包装
func (f serviceFixture) scenarioPack() models.Pack {
	packagingID := f.packaging.ID
	return models.Pack{
		PackagingID: &packagingID,
		Items: []models.PackItem{
			{MenuID: f.menuA.ID, Quantity: 2},
			{MenuID: f.menuB.ID, Quantity: 1},
		},
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count rows failed: %v", err)
	}
	return count
}

type fakeGateway struct {
	mu           sync.Mutex
	initCalls    []PaymentInitRequest
	initErr      error
	reference    string
	verifyResult *PaymentStatusResult
	verifyErr    error
	event        *GatewayEvent
	parseErr     error
}

func (g *fakeGateway) Initialize(_ context.Context, req PaymentInitRequest) (*PaymentInitResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initCalls = append(g.initCalls, req)
	if g.initErr != nil {
		return nil, g.initErr
	}
	reference := g.reference
	if reference == "" {
		reference = fmt.Sprintf("REF-%d-%d", req.OrderID, len(g.initCalls))
	}
	return &PaymentInitResult{
		Reference:        reference,
		AccessCode:       "access-" + reference,
		AuthorizationURL: "https://checkout.paystack.test/" + reference,
	}, nil
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (*PaymentStatusResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	if g.verifyResult == nil {
		return &PaymentStatusResult{Reference: reference, Status: constants.PaymentStatusPending}, nil
	}
	return g.verifyResult, nil
}

func (g *fakeGateway) ParseWebhook(_ map[string]string, _ []byte) (*GatewayEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	return g.event, nil
}

func (g *fakeGateway) calls() []PaymentInitRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]PaymentInitRequest, len(g.initCalls))
	copy(out, g.initCalls)
	return out
}

func (g *fakeGateway) setInitErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initErr = err
}
