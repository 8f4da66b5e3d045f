package service

import (
	"context"
	"fmt"

	"github.com/nextchow/internal/models"
	"github.com/nextchow/internal/repository"
)

// CatalogResolver 目录引用解析，未找到时返回 nil, nil
type CatalogResolver interface {
	ResolveMenu(ctx context.Context, id uint) (*models.Menu, error)
	ResolvePackaging(ctx context.Context, id uint) (*models.Packaging, error)
}

// CatalogService 目录读取服务
type CatalogService struct {
	catalogRepo repository.CatalogRepository
	vendorRepo  repository.VendorRepository
}

// NewCatalogService 创建目录服务
func NewCatalogService(catalogRepo repository.CatalogRepository, vendorRepo repository.VendorRepository) *CatalogService {
	return &CatalogService{catalogRepo: catalogRepo, vendorRepo: vendorRepo}
}

// ResolveMenu 获取菜品
func (s *CatalogService) ResolveMenu(ctx context.Context, id uint) (*models.Menu, error) {
	if id == 0 {
		return nil, nil
	}
	return s.catalogRepo.GetMenuByID(ctx, id)
}

// ResolvePackaging 获取包装
func (s *CatalogService) ResolvePackaging(ctx context.Context, id uint) (*models.Packaging, error) {
	if id == 0 {
		return nil, nil
	}
	return s.catalogRepo.GetPackagingByID(ctx, id)
}

// ListVendorMenusInput 商家菜单查询输入
type ListVendorMenusInput struct {
	VendorID      uint
	CategoryID    uint
	Search        string
	OnlyAvailable bool
	Page          int
	PageSize      int
}

// ListVendorMenus 顾客浏览商家菜单
func (s *CatalogService) ListVendorMenus(ctx context.Context, input ListVendorMenusInput) ([]models.Menu, int64, error) {
	if input.VendorID == 0 {
		return nil, 0, ErrVendorNotFound
	}
	vendor, err := s.vendorRepo.GetByID(ctx, input.VendorID)
	if err != nil {
		return nil, 0, persistenceError(err)
	}
	if vendor == nil {
		return nil, 0, ErrVendorNotFound
	}
	menus, total, err := s.catalogRepo.ListMenus(ctx, repository.MenuListFilter{
		Page:          input.Page,
		PageSize:      input.PageSize,
		VendorID:      input.VendorID,
		CategoryID:    input.CategoryID,
		Search:        input.Search,
		OnlyAvailable: input.OnlyAvailable,
	})
	if err != nil {
		return nil, 0, persistenceError(err)
	}
	return menus, total, nil
}

// missingReference 一条缺失的目录引用
type missingReference struct {
	Kind string
	ID   uint
}

func (m missingReference) String() string {
	return fmt.Sprintf("%s %d", m.Kind, m.ID)
}

// catalogSnapshot 一次操作内读取到的目录条目
type catalogSnapshot struct {
	menus      map[uint]*models.Menu
	packagings map[uint]*models.Packaging
	missing    []missingReference
}

// Menu 实现 CatalogLookup
func (s *catalogSnapshot) Menu(id uint) (*models.Menu, bool) {
	menu, ok := s.menus[id]
	return menu, ok && menu != nil
}

// Packaging 实现 CatalogLookup
func (s *catalogSnapshot) Packaging(id uint) (*models.Packaging, bool) {
	packaging, ok := s.packagings[id]
	return packaging, ok && packaging != nil
}

// loadCatalogSnapshot 逐个解析包内引用，每个 ID 只查询一次
// 缺失的条目记录在 missing 中，只有存储错误才返回 error。
func loadCatalogSnapshot(ctx context.Context, resolver CatalogResolver, packs models.PackList) (*catalogSnapshot, error) {
	snapshot := &catalogSnapshot{
		menus:      make(map[uint]*models.Menu),
		packagings: make(map[uint]*models.Packaging),
	}
	for _, pack := range packs {
		if pack.PackagingID != nil {
			id := *pack.PackagingID
			if _, seen := snapshot.packagings[id]; !seen {
				packaging, err := resolver.ResolvePackaging(ctx, id)
				if err != nil {
					return nil, persistenceError(err)
				}
				snapshot.packagings[id] = packaging
				if packaging == nil {
					snapshot.missing = append(snapshot.missing, missingReference{Kind: "packaging", ID: id})
				}
			}
		}
		for _, item := range pack.Items {
			if _, seen := snapshot.menus[item.MenuID]; seen {
				continue
			}
			menu, err := resolver.ResolveMenu(ctx, item.MenuID)
			if err != nil {
				return nil, persistenceError(err)
			}
			snapshot.menus[item.MenuID] = menu
			if menu == nil {
				snapshot.missing = append(snapshot.missing, missingReference{Kind: "menu item", ID: item.MenuID})
			}
		}
	}
	return snapshot, nil
}

// requireAll 严格校验：任一引用缺失则以 kind 包装返回
func (s *catalogSnapshot) requireAll(kind error) error {
	if len(s.missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", kind, s.missing[0].String())
}

// vendorOf 返回包列表所属商家；包含多个商家时返回 ErrMultiVendorCartUnsupported
// 以第一个引用的菜品所属商家为准，包装也必须属于同一商家。
func (s *catalogSnapshot) vendorOf(packs models.PackList) (uint, error) {
	var vendorID uint
	check := func(owner uint) error {
		if owner == 0 {
			return nil
		}
		if vendorID == 0 {
			vendorID = owner
			return nil
		}
		if owner != vendorID {
			return ErrMultiVendorCartUnsupported
		}
		return nil
	}
	for _, pack := range packs {
		for _, item := range pack.Items {
			if menu, ok := s.Menu(item.MenuID); ok {
				if err := check(menu.VendorID); err != nil {
					return 0, err
				}
			}
		}
	}
	for _, pack := range packs {
		if pack.PackagingID == nil {
			continue
		}
		if packaging, ok := s.Packaging(*pack.PackagingID); ok {
			if err := check(packaging.VendorID); err != nil {
				return 0, err
			}
		}
	}
	return vendorID, nil
}
