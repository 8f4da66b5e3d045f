package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nextchow/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
// GetByCustomer 在购物车不存在时返回 nil, nil。
// Save 以 Version 做比较交换，冲突时返回 ErrCartVersionConflict。
type CartRepository interface {
	GetByCustomer(ctx context.Context, customerID uint) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	DeleteByCustomer(ctx context.Context, customerID uint) error
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// GetByCustomer 获取顾客购物车
func (r *GormCartRepository) GetByCustomer(ctx context.Context, customerID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if cart.Packs == nil {
		cart.Packs = models.PackList{}
	}
	return &cart, nil
}

// Save 新建或按版本更新购物车
func (r *GormCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	if cart == nil {
		return nil
	}
	now := time.Now()
	if cart.ID == 0 {
		if cart.CreatedAt.IsZero() {
			cart.CreatedAt = now
		}
		cart.UpdatedAt = now
		cart.Version = 1
		if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrCartVersionConflict
			}
			return err
		}
		return nil
	}

	result := r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ? AND version = ?", cart.ID, cart.Version).
		Updates(map[string]interface{}{
			"vendor_id":   cart.VendorID,
			"packs":       cart.Packs,
			"total_price": cart.TotalPrice,
			"updated_at":  now,
			"version":     cart.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCartVersionConflict
	}
	cart.Version++
	cart.UpdatedAt = now
	return nil
}

// DeleteByCustomer 删除顾客购物车
func (r *GormCartRepository) DeleteByCustomer(ctx context.Context, customerID uint) error {
	return r.db.WithContext(ctx).Where("customer_id = ?", customerID).Delete(&models.Cart{}).Error
}
