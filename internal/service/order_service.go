package service

import (
	"context"
	"strings"
	"time"

	"github.com/nextchow/internal/cache"
	"github.com/nextchow/internal/constants"
	"github.com/nextchow/internal/logger"
	"github.com/nextchow/internal/models"
	"github.com/nextchow/internal/repository"
)

// orderTransitions 允许的状态流转：目标状态 -> 可来源状态
var orderTransitions = map[string][]string{
	constants.OrderStatusPreparing: {constants.OrderStatusPending},
	constants.OrderStatusReady:     {constants.OrderStatusPreparing},
	constants.OrderStatusDelivered: {constants.OrderStatusReady},
	constants.OrderStatusCancelled: {constants.OrderStatusPending, constants.OrderStatusPreparing},
}

// NormalizeOrderStatus 接受大小写不敏感的状态名
func NormalizeOrderStatus(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, status := range []string{
		constants.OrderStatusPending,
		constants.OrderStatusPreparing,
		constants.OrderStatusReady,
		constants.OrderStatusDelivered,
		constants.OrderStatusCancelled,
	} {
		if strings.EqualFold(raw, status) {
			return status, true
		}
	}
	return "", false
}

// OrderService 订单服务
type OrderService struct {
	orderRepo repository.OrderRepository
	locker    cache.Locker
	lockOpts  LockOptions
	now       func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, locker cache.Locker, lockOpts LockOptions) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		locker:    locker,
		lockOpts:  lockOpts,
		now:       time.Now,
	}
}

// ListOrdersInput 订单列表查询
type ListOrdersInput struct {
	CustomerID  uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// ListOrders 顾客订单列表
func (s *OrderService) ListOrders(ctx context.Context, input ListOrdersInput) ([]models.Order, int64, error) {
	if input.CustomerID == 0 {
		return nil, 0, ErrCustomerNotFound
	}
	status := ""
	if strings.TrimSpace(input.Status) != "" {
		normalized, ok := NormalizeOrderStatus(input.Status)
		if !ok {
			return nil, 0, ErrOrderStatusInvalid
		}
		status = normalized
	}
	orders, total, err := s.orderRepo.ListByCustomer(ctx, repository.OrderListFilter{
		Page:        input.Page,
		PageSize:    input.PageSize,
		CustomerID:  input.CustomerID,
		Status:      status,
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
	})
	if err != nil {
		return nil, 0, persistenceError(err)
	}
	return orders, total, nil
}

// GetOrder 顾客订单详情
func (s *OrderService) GetOrder(ctx context.Context, customerID, orderID uint) (*models.Order, error) {
	if customerID == 0 || orderID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByIDAndCustomer(ctx, orderID, customerID)
	if err != nil {
		return nil, persistenceError(err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// CancelOrder 顾客取消订单，仅 Pending 可取消
func (s *OrderService) CancelOrder(ctx context.Context, customerID, orderID uint) (*models.Order, error) {
	var result *models.Order
	err := withCustomerLock(ctx, s.locker, customerID, s.lockOpts, func() error {
		order, err := s.GetOrder(ctx, customerID, orderID)
		if err != nil {
			return err
		}
		if order.Status != constants.OrderStatusPending {
			return ErrOrderStatusInvalid
		}
		now := s.now()
		changed, err := s.orderRepo.TransitionStatus(ctx, order.ID,
			[]string{constants.OrderStatusPending}, constants.OrderStatusCancelled, now)
		if err != nil {
			return persistenceError(err)
		}
		if !changed {
			return ErrOrderStatusInvalid
		}
		order.Status = constants.OrderStatusCancelled
		order.CancelledAt = &now
		order.UpdatedAt = now
		logger.Infow("order_cancelled_by_customer", "customer_id", customerID, "order_id", order.ID)
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus 商家按流转规则推进自己店铺的订单
// 其他商家的订单按不存在处理。
func (s *OrderService) UpdateStatus(ctx context.Context, vendorID, orderID uint, target string) (*models.Order, error) {
	normalized, ok := NormalizeOrderStatus(target)
	if !ok {
		return nil, ErrOrderStatusInvalid
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, persistenceError(err)
	}
	if order == nil || order.VendorID != vendorID {
		return nil, ErrOrderNotFound
	}
	if err := transitionOrder(ctx, s.orderRepo, orderID, normalized, s.now()); err != nil {
		return nil, err
	}
	updated, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, persistenceError(err)
	}
	if updated == nil {
		return nil, ErrOrderNotFound
	}
	logger.Infow("order_status_updated_by_vendor", "vendor_id", vendorID, "order_id", orderID, "status", normalized)
	return updated, nil
}

// transitionOrder 仅在来源状态合法时更新
func transitionOrder(ctx context.Context, orderRepo repository.OrderRepository, orderID uint, target string, now time.Time) error {
	from, ok := orderTransitions[target]
	if !ok {
		return ErrOrderStatusInvalid
	}
	changed, err := orderRepo.TransitionStatus(ctx, orderID, from, target, now)
	if err != nil {
		return persistenceError(err)
	}
	if !changed {
		order, err := orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return persistenceError(err)
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status == target {
			return nil
		}
		return ErrOrderStatusInvalid
	}
	logger.Infow("order_status_changed", "order_id", orderID, "status", target)
	return nil
}
