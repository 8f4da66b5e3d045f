package service

import (
	"context"
	"errors"
	"time"

	"github.com/nextchow/internal/cache"
	"github.com/nextchow/internal/constants"
	"github.com/nextchow/internal/logger"
	"github.com/nextchow/internal/metrics"
	"github.com/nextchow/internal/repository"
)

const reconcileBatchSize = 100

// ReconcileService 处理长时间未发起支付的待处理订单
type ReconcileService struct {
	orderRepo      repository.OrderRepository
	paymentRepo    repository.PaymentIntentRepository
	paymentService *PaymentService
	locker         cache.Locker
	lockOpts       LockOptions
	metrics        *metrics.Metrics
	after          time.Duration
	now            func() time.Time
}

// NewReconcileService 创建对账服务
func NewReconcileService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentIntentRepository,
	paymentService *PaymentService,
	locker cache.Locker,
	lockOpts LockOptions,
	m *metrics.Metrics,
	after time.Duration,
) *ReconcileService {
	if after <= 0 {
		after = 30 * time.Minute
	}
	return &ReconcileService{
		orderRepo:      orderRepo,
		paymentRepo:    paymentRepo,
		paymentService: paymentService,
		locker:         locker,
		lockOpts:       lockOpts,
		metrics:        m,
		after:          after,
		now:            time.Now,
	}
}

// ReconcileOrder 处理单个订单：超时且没有支付意图则取消
func (s *ReconcileService) ReconcileOrder(ctx context.Context, orderID uint) (bool, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return false, persistenceError(err)
	}
	if order == nil || order.Status != constants.OrderStatusPending {
		return false, nil
	}
	if order.CreatedAt.After(s.now().Add(-s.after)) {
		return false, nil
	}
	return s.cancelIfUnpaid(ctx, order.ID, order.CustomerID, "task")
}

// SweepStale 周期扫描：取消超时未发起支付的订单，并主动查询滞留的支付意图
func (s *ReconcileService) SweepStale(ctx context.Context) (int, error) {
	before := s.now().Add(-s.after)
	orders, err := s.orderRepo.ListStalePending(ctx, before, reconcileBatchSize)
	if err != nil {
		return 0, persistenceError(err)
	}
	cancelled := 0
	for _, order := range orders {
		if ctx.Err() != nil {
			return cancelled, ctx.Err()
		}
		ok, err := s.cancelIfUnpaid(ctx, order.ID, order.CustomerID, "sweep")
		if err != nil {
			logger.Warnw("reconcile_order_failed", "order_id", order.ID, "error", err)
			continue
		}
		if ok {
			cancelled++
		}
	}

	if s.paymentService != nil {
		intents, err := s.paymentRepo.ListPendingBefore(ctx, before, reconcileBatchSize)
		if err != nil {
			return cancelled, persistenceError(err)
		}
		for _, intent := range intents {
			if ctx.Err() != nil {
				return cancelled, ctx.Err()
			}
			if err := s.paymentService.VerifyPayment(ctx, intent.Reference); err != nil {
				logger.Warnw("reconcile_payment_verify_failed", "reference", intent.Reference, "error", err)
			}
		}
	}
	return cancelled, nil
}

// cancelIfUnpaid 在顾客锁内复核后取消，避免与进行中的结算交错
func (s *ReconcileService) cancelIfUnpaid(ctx context.Context, orderID, customerID uint, source string) (bool, error) {
	cancelled := false
	err := withCustomerLock(ctx, s.locker, customerID, s.lockOpts, func() error {
		count, err := s.paymentRepo.CountByOrderID(ctx, orderID)
		if err != nil {
			return persistenceError(err)
		}
		if count > 0 {
			return nil
		}
		changed, err := s.orderRepo.TransitionStatus(ctx, orderID,
			[]string{constants.OrderStatusPending}, constants.OrderStatusCancelled, s.now())
		if err != nil {
			return persistenceError(err)
		}
		cancelled = changed
		return nil
	})
	if errors.Is(err, ErrCheckoutBusy) {
		// 顾客正在结算，下一轮再处理
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if cancelled {
		s.metrics.OrderReconciled(source)
		logger.Infow("reconcile_order_cancelled", "order_id", orderID, "customer_id", customerID, "source", source)
	}
	return cancelled, nil
}
