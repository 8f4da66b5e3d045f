package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nextchow/internal/cache"
	"github.com/nextchow/internal/constants"
	"github.com/nextchow/internal/geo"
	"github.com/nextchow/internal/logger"
	"github.com/nextchow/internal/metrics"
	"github.com/nextchow/internal/models"
	"github.com/nextchow/internal/queue"
	"github.com/nextchow/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutOptions 结算参数
type CheckoutOptions struct {
	Currency       string
	Lock           LockOptions
	ReconcileAfter time.Duration
}

// CheckoutResult 结算结果
type CheckoutResult struct {
	Order      *models.Order `json:"order"`
	PaymentURL string        `json:"payment_url"`
	Reference  string        `json:"reference"`
	Resumed    bool          `json:"resumed"`
}

// CheckoutService 结算编排
type CheckoutService struct {
	cartRepo     repository.CartRepository
	orderRepo    repository.OrderRepository
	paymentRepo  repository.PaymentIntentRepository
	customerRepo repository.CustomerRepository
	vendorRepo   repository.VendorRepository
	catalog      CatalogResolver
	gateway      PaymentGateway
	locker       cache.Locker
	queueClient  *queue.Client
	metrics      *metrics.Metrics
	opts         CheckoutOptions
	now          func() time.Time
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentIntentRepository,
	customerRepo repository.CustomerRepository,
	vendorRepo repository.VendorRepository,
	catalog CatalogResolver,
	gateway PaymentGateway,
	locker cache.Locker,
	queueClient *queue.Client,
	m *metrics.Metrics,
	opts CheckoutOptions,
) *CheckoutService {
	opts.Currency = strings.ToUpper(strings.TrimSpace(opts.Currency))
	if opts.Currency == "" {
		opts.Currency = "NGN"
	}
	if opts.ReconcileAfter <= 0 {
		opts.ReconcileAfter = 30 * time.Minute
	}
	return &CheckoutService{
		cartRepo:     cartRepo,
		orderRepo:    orderRepo,
		paymentRepo:  paymentRepo,
		customerRepo: customerRepo,
		vendorRepo:   vendorRepo,
		catalog:      catalog,
		gateway:      gateway,
		locker:       locker,
		queueClient:  queueClient,
		metrics:      m,
		opts:         opts,
		now:          time.Now,
	}
}

// Checkout 将购物车转换为待处理订单并发起支付
//
// 订单写入后的任何失败都不会回滚订单，订单保持 Pending 等待重试或对账。
// 网关失败时保留购物车；重复调用会续用同一购物车内容对应的未支付订单。
func (s *CheckoutService) Checkout(ctx context.Context, customerID uint) (*CheckoutResult, error) {
	if customerID == 0 {
		return nil, ErrCustomerNotFound
	}
	var result *CheckoutResult
	err := withCustomerLock(ctx, s.locker, customerID, s.opts.Lock, func() error {
		cart, err := s.cartRepo.GetByCustomer(ctx, customerID)
		if err != nil {
			return persistenceError(err)
		}
		if cart.IsEmpty() {
			return ErrEmptyCart
		}
		result, err = s.placeOrder(ctx, customerID, cart.Packs, true)
		if err != nil {
			return err
		}
		if err := s.cartRepo.DeleteByCustomer(ctx, customerID); err != nil {
			// 支付意图已经写入，清理失败不影响本次结算结果
			logger.Errorw("checkout_cart_clear_failed",
				"customer_id", customerID,
				"order_id", result.Order.ID,
				"error", err,
			)
		}
		return nil
	})
	s.recordOutcome(result, err)
	if err != nil {
		return nil, err
	}
	logger.Infow("checkout_completed",
		"customer_id", customerID,
		"order_id", result.Order.ID,
		"reference", result.Reference,
		"resumed", result.Resumed,
	)
	return result, nil
}

// Reorder 以历史订单的包重新下单，按当前目录严格校验并计价
func (s *CheckoutService) Reorder(ctx context.Context, customerID, orderID uint) (*CheckoutResult, error) {
	if customerID == 0 {
		return nil, ErrCustomerNotFound
	}
	source, err := s.orderRepo.GetByIDAndCustomer(ctx, orderID, customerID)
	if err != nil {
		return nil, persistenceError(err)
	}
	if source == nil {
		return nil, ErrOrderNotFound
	}
	if len(source.Packs) == 0 {
		return nil, ErrEmptyCart
	}
	var result *CheckoutResult
	err = withCustomerLock(ctx, s.locker, customerID, s.opts.Lock, func() error {
		var placeErr error
		result, placeErr = s.placeOrder(ctx, customerID, source.Packs.Clone(), false)
		return placeErr
	})
	s.recordOutcome(result, err)
	if err != nil {
		return nil, err
	}
	logger.Infow("reorder_completed",
		"customer_id", customerID,
		"source_order_id", orderID,
		"order_id", result.Order.ID,
	)
	return result, nil
}

// placeOrder 严格校验、定位、计价、写订单、发起支付、写支付意图
func (s *CheckoutService) placeOrder(ctx context.Context, customerID uint, packs models.PackList, resumable bool) (*CheckoutResult, error) {
	snapshot, err := loadCatalogSnapshot(ctx, s.catalog, packs)
	if err != nil {
		return nil, err
	}
	if err := snapshot.requireAll(ErrCatalogReferenceGone); err != nil {
		return nil, err
	}
	vendorID, err := snapshot.vendorOf(packs)
	if err != nil {
		return nil, err
	}

	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, persistenceError(err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	vendor, err := s.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		return nil, persistenceError(err)
	}
	pickup, delivery, err := resolveLocations(vendor, customer)
	if err != nil {
		return nil, err
	}

	distance := geo.DistanceKM(pickup.Lon(), pickup.Lat(), delivery.Lon(), delivery.Lat())
	total := ComputeTotal(packs, snapshot)

	var order *models.Order
	resumed := false
	if resumable {
		order, err = s.findResumable(ctx, customerID, packs, total)
		if err != nil {
			return nil, err
		}
		resumed = order != nil
	}
	if order == nil {
		order = &models.Order{
			CustomerID:          customerID,
			VendorID:            vendorID,
			CheckoutKey:         uuid.NewString(),
			CustomerName:        customer.FullName(),
			CustomerPhone:       customer.Phone,
			CustomerAddress:     customer.Address,
			Packs:               packs.Clone(),
			TotalPrice:          models.NewMoneyFromDecimal(total),
			Currency:            s.opts.Currency,
			PickupLocation:      *pickup,
			DeliveryLocation:    *delivery,
			EstimatedDistanceKM: distance,
			Status:              constants.OrderStatusPending,
		}
		if err := s.orderRepo.Create(ctx, order); err != nil {
			return nil, persistenceError(err)
		}
		logger.Infow("checkout_order_persisted",
			"customer_id", customerID,
			"order_id", order.ID,
			"vendor_id", vendorID,
			"total_price", order.TotalPrice.String(),
			"estimated_distance", distance,
		)
		s.scheduleReconcile(order.ID)
	}

	initResult, err := s.gateway.Initialize(ctx, PaymentInitRequest{
		Email:      customer.Email,
		Amount:     order.TotalPrice.Decimal,
		Currency:   order.Currency,
		OrderID:    order.ID,
		CustomerID: customerID,
	})
	if err != nil {
		logger.Warnw("checkout_payment_init_failed",
			"customer_id", customerID,
			"order_id", order.ID,
			"error", err,
		)
		return nil, fmt.Errorf("%w: order %d left pending: %v", ErrPaymentInitiationFailed, order.ID, err)
	}

	intent := &models.PaymentIntent{
		OrderID:          order.ID,
		CustomerID:       customerID,
		Amount:           order.TotalPrice,
		Currency:         order.Currency,
		Reference:        initResult.Reference,
		AccessCode:       initResult.AccessCode,
		AuthorizationURL: initResult.AuthorizationURL,
		PaymentMethod:    constants.PaymentMethodPaystack,
		Status:           constants.PaymentStatusPending,
	}
	if err := s.paymentRepo.Create(ctx, intent); err != nil {
		logger.Errorw("checkout_payment_intent_persist_failed",
			"customer_id", customerID,
			"order_id", order.ID,
			"reference", initResult.Reference,
			"error", err,
		)
		return nil, persistenceError(err)
	}
	order.PaymentIntent = intent
	s.scheduleVerify(intent.Reference)

	return &CheckoutResult{
		Order:      order,
		PaymentURL: initResult.AuthorizationURL,
		Reference:  initResult.Reference,
		Resumed:    resumed,
	}, nil
}

// findResumable 续用包内容与金额一致的未支付订单
// 内容已变化的旧订单直接取消，避免同一购物车残留多笔待处理订单。
func (s *CheckoutService) findResumable(ctx context.Context, customerID uint, packs models.PackList, total decimal.Decimal) (*models.Order, error) {
	existing, err := s.orderRepo.FindResumable(ctx, customerID)
	if err != nil {
		return nil, persistenceError(err)
	}
	if existing == nil {
		return nil, nil
	}
	if existing.Packs.Equal(packs) && existing.TotalPrice.Equal(models.NewMoneyFromDecimal(total)) {
		logger.Infow("checkout_order_resumed", "customer_id", customerID, "order_id", existing.ID)
		return existing, nil
	}
	changed, err := s.orderRepo.TransitionStatus(ctx, existing.ID,
		[]string{constants.OrderStatusPending}, constants.OrderStatusCancelled, s.now())
	if err != nil {
		return nil, persistenceError(err)
	}
	if changed {
		logger.Infow("checkout_stale_order_cancelled", "customer_id", customerID, "order_id", existing.ID)
	}
	return nil, nil
}

func (s *CheckoutService) scheduleReconcile(orderID uint) {
	if err := s.queueClient.EnqueueOrderReconcile(queue.OrderReconcilePayload{OrderID: orderID}, s.opts.ReconcileAfter); err != nil {
		logger.Warnw("checkout_enqueue_reconcile_failed", "order_id", orderID, "error", err)
	}
}

func (s *CheckoutService) scheduleVerify(reference string) {
	if err := s.queueClient.EnqueuePaymentVerify(queue.PaymentVerifyPayload{Reference: reference}, s.opts.ReconcileAfter); err != nil {
		logger.Warnw("checkout_enqueue_payment_verify_failed", "reference", reference, "error", err)
	}
}

func (s *CheckoutService) recordOutcome(result *CheckoutResult, err error) {
	switch {
	case err == nil && result != nil && result.Resumed:
		s.metrics.CheckoutResult("resumed")
	case err == nil:
		s.metrics.CheckoutResult("success")
	case errors.Is(err, ErrPaymentInitiationFailed):
		s.metrics.CheckoutResult("payment_failed")
	case errors.Is(err, ErrPersistenceFailure):
		s.metrics.CheckoutResult("persistence_failed")
	case errors.Is(err, ErrCheckoutBusy):
		s.metrics.CheckoutResult("busy")
	default:
		s.metrics.CheckoutResult("rejected")
	}
}

// resolveLocations 取餐点与送达点，任一缺失返回 ErrLocationMissing
func resolveLocations(vendor *models.VendorProfile, customer *models.Customer) (*models.GeoPoint, *models.GeoPoint, error) {
	if vendor == nil || vendor.Location == nil || !vendor.Location.Valid() {
		return nil, nil, fmt.Errorf("%w: vendor pickup location", ErrLocationMissing)
	}
	if customer == nil || customer.Location == nil || !customer.Location.Valid() {
		return nil, nil, fmt.Errorf("%w: customer delivery location", ErrLocationMissing)
	}
	pickup := *vendor.Location
	delivery := *customer.Location
	return &pickup, &delivery, nil
}
