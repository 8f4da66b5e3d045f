package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nextchow/internal/constants"
	"github.com/nextchow/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByIDAndCustomer(ctx context.Context, id uint, customerID uint) (*models.Order, error)
	FindResumable(ctx context.Context, customerID uint) (*models.Order, error)
	ListByCustomer(ctx context.Context, filter OrderListFilter) ([]models.Order, int64, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]models.Order, error)
	TransitionStatus(ctx context.Context, id uint, from []string, to string, at time.Time) (bool, error)
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create 创建订单
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("PaymentIntent").Create(order).Error
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("PaymentIntent").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndCustomer 获取顾客订单详情
func (r *GormOrderRepository) GetByIDAndCustomer(ctx context.Context, id uint, customerID uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("PaymentIntent").
		Where("id = ? AND customer_id = ?", id, customerID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// FindResumable 查找顾客最近一笔尚未发起支付的待处理订单
func (r *GormOrderRepository) FindResumable(ctx context.Context, customerID uint) (*models.Order, error) {
	var order models.Order
	result := r.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, constants.OrderStatusPending).
		Where("NOT EXISTS (SELECT 1 FROM payment_intents pi WHERE pi.order_id = orders.id)").
		Order("id desc").Limit(1).Find(&order)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &order, nil
}

// ListByCustomer 顾客订单列表
func (r *GormOrderRepository) ListByCustomer(ctx context.Context, filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("customer_id = ?", filter.CustomerID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.Order
	if err := query.Preload("PaymentIntent").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListStalePending 列出早于指定时间且没有支付意图的待处理订单
func (r *GormOrderRepository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", constants.OrderStatusPending, before).
		Where("NOT EXISTS (SELECT 1 FROM payment_intents pi WHERE pi.order_id = orders.id)").
		Order("id asc").Limit(limit).Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// TransitionStatus 仅当当前状态属于 from 时更新为 to，返回是否发生变更
func (r *GormOrderRepository) TransitionStatus(ctx context.Context, id uint, from []string, to string, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": at,
	}
	if to == constants.OrderStatusCancelled {
		updates["cancelled_at"] = at
	}
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
