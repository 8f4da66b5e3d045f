package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/nextchow/internal/models"

	"gorm.io/gorm"
)

// CatalogRepository 菜品与包装只读访问接口
type CatalogRepository interface {
	GetMenuByID(ctx context.Context, id uint) (*models.Menu, error)
	GetPackagingByID(ctx context.Context, id uint) (*models.Packaging, error)
	ListMenus(ctx context.Context, filter MenuListFilter) ([]models.Menu, int64, error)
}

// GormCatalogRepository GORM 实现
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建菜品仓库
func NewCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// GetMenuByID 根据 ID 获取菜品，不存在时返回 nil
func (r *GormCatalogRepository) GetMenuByID(ctx context.Context, id uint) (*models.Menu, error) {
	var menu models.Menu
	if err := r.db.WithContext(ctx).First(&menu, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &menu, nil
}

// GetPackagingByID 根据 ID 获取包装，不存在时返回 nil
func (r *GormCatalogRepository) GetPackagingByID(ctx context.Context, id uint) (*models.Packaging, error) {
	var packaging models.Packaging
	if err := r.db.WithContext(ctx).First(&packaging, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &packaging, nil
}

// ListMenus 商家菜品列表
func (r *GormCatalogRepository) ListMenus(ctx context.Context, filter MenuListFilter) ([]models.Menu, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Menu{})
	if filter.VendorID != 0 {
		query = query.Where("user_id = ?", filter.VendorID)
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.OnlyAvailable {
		query = query.Where("is_available = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var menus []models.Menu
	if err := query.Order("id asc").Find(&menus).Error; err != nil {
		return nil, 0, err
	}
	return menus, total, nil
}
