package repository

import (
	"context"
	"errors"

	"github.com/nextchow/internal/models"

	"gorm.io/gorm"
)

// CustomerRepository 顾客资料访问接口
type CustomerRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Customer, error)
}

// VendorRepository 商家资料访问接口
type VendorRepository interface {
	GetByID(ctx context.Context, id uint) (*models.VendorProfile, error)
}

// GormCustomerRepository GORM 实现
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建顾客仓库
func NewCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// GetByID 根据 ID 获取顾客
func (r *GormCustomerRepository) GetByID(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// GormVendorRepository GORM 实现
type GormVendorRepository struct {
	db *gorm.DB
}

// NewVendorRepository 创建商家仓库
func NewVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

// GetByID 根据商家用户 ID 获取资料
func (r *GormVendorRepository) GetByID(ctx context.Context, id uint) (*models.VendorProfile, error) {
	var vendor models.VendorProfile
	if err := r.db.WithContext(ctx).First(&vendor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vendor, nil
}
