package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nextchow/internal/constants"
	"github.com/nextchow/internal/models"

	"gorm.io/gorm"
)

// PaymentIntentRepository 支付意图数据访问接口
type PaymentIntentRepository interface {
	Create(ctx context.Context, intent *models.PaymentIntent) error
	GetByReference(ctx context.Context, reference string) (*models.PaymentIntent, error)
	GetByOrderID(ctx context.Context, orderID uint) (*models.PaymentIntent, error)
	CountByOrderID(ctx context.Context, orderID uint) (int64, error)
	MarkStatus(ctx context.Context, reference string, status string, paidAt *time.Time, payload models.JSON) (bool, error)
	ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]models.PaymentIntent, error)
}

// GormPaymentIntentRepository GORM 实现
type GormPaymentIntentRepository struct {
	db *gorm.DB
}

// NewPaymentIntentRepository 创建支付意图仓库
func NewPaymentIntentRepository(db *gorm.DB) *GormPaymentIntentRepository {
	return &GormPaymentIntentRepository{db: db}
}

// Create 创建支付意图
func (r *GormPaymentIntentRepository) Create(ctx context.Context, intent *models.PaymentIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

// GetByReference 根据网关流水号获取支付意图
func (r *GormPaymentIntentRepository) GetByReference(ctx context.Context, reference string) (*models.PaymentIntent, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var intent models.PaymentIntent
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&intent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

// GetByOrderID 根据订单获取支付意图
func (r *GormPaymentIntentRepository) GetByOrderID(ctx context.Context, orderID uint) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&intent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

// CountByOrderID 统计订单支付意图数量
func (r *GormPaymentIntentRepository) CountByOrderID(ctx context.Context, orderID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PaymentIntent{}).Where("order_id = ?", orderID).Count(&count).Error
	return count, err
}

// MarkStatus 仅更新仍为 pending 的支付意图，返回是否发生变更
func (r *GormPaymentIntentRepository) MarkStatus(ctx context.Context, reference string, status string, paidAt *time.Time, payload models.JSON) (bool, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
	}
	if payload != nil {
		updates["gateway_payload"] = payload
	}
	result := r.db.WithContext(ctx).Model(&models.PaymentIntent{}).
		Where("reference = ? AND status = ?", reference, constants.PaymentStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListPendingBefore 列出早于指定时间仍未确认的支付意图
func (r *GormPaymentIntentRepository) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]models.PaymentIntent, error) {
	if limit <= 0 {
		limit = 100
	}
	var intents []models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", constants.PaymentStatusPending, before).
		Order("id asc").Limit(limit).Find(&intents).Error
	if err != nil {
		return nil, err
	}
	return intents, nil
}
