package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nextchow/internal/cache"
	"github.com/nextchow/internal/constants"
	"github.com/nextchow/internal/logger"
	"github.com/nextchow/internal/models"
	"github.com/nextchow/internal/repository"
)

// CartOptions 购物车参数
type CartOptions struct {
	MaxPacks int
	Lock     LockOptions
}

// CartService 购物车服务
type CartService struct {
	cartRepo repository.CartRepository
	catalog  CatalogResolver
	locker   cache.Locker
	maxPacks int
	lockOpts LockOptions
	now      func() time.Time
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, catalog CatalogResolver, locker cache.Locker, opts CartOptions) *CartService {
	maxPacks := opts.MaxPacks
	if maxPacks <= 0 {
		maxPacks = constants.DefaultMaxCartPacks
	}
	return &CartService{
		cartRepo: cartRepo,
		catalog:  catalog,
		locker:   locker,
		maxPacks: maxPacks,
		lockOpts: opts.Lock,
		now:      time.Now,
	}
}

// MaxPacks 购物车容量
func (s *CartService) MaxPacks() int {
	return s.maxPacks
}

// Get 获取顾客购物车，不存在时返回未持久化的空购物车
func (s *CartService) Get(ctx context.Context, customerID uint) (*models.Cart, error) {
	if customerID == 0 {
		return nil, ErrCustomerNotFound
	}
	cart, err := s.cartRepo.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, persistenceError(err)
	}
	if cart == nil {
		return models.EmptyCart(customerID), nil
	}
	return cart, nil
}

// AddPack 向购物车追加一个包
// 任一引用缺失时不修改购物车。
func (s *CartService) AddPack(ctx context.Context, customerID uint, pack models.Pack) (*models.Cart, error) {
	if customerID == 0 {
		return nil, ErrCustomerNotFound
	}
	if err := validatePack(pack); err != nil {
		return nil, err
	}
	pack = pack.Clone()

	var result *models.Cart
	err := withCustomerLock(ctx, s.locker, customerID, s.lockOpts, func() error {
		incoming, err := loadCatalogSnapshot(ctx, s.catalog, models.PackList{pack})
		if err != nil {
			return err
		}
		if err := incoming.requireAll(ErrReferenceNotFound); err != nil {
			return err
		}
		packVendorID, err := incoming.vendorOf(models.PackList{pack})
		if err != nil {
			return err
		}

		cart, err := s.cartRepo.GetByCustomer(ctx, customerID)
		if err != nil {
			return persistenceError(err)
		}
		if cart == nil {
			cart = models.EmptyCart(customerID)
		}
		if len(cart.Packs) >= s.maxPacks {
			return fmt.Errorf("%w: at most %d packs", ErrCapacityExceeded, s.maxPacks)
		}
		if cart.VendorID != 0 && packVendorID != 0 && cart.VendorID != packVendorID {
			return ErrMultiVendorCartUnsupported
		}
		if cart.VendorID == 0 {
			cart.VendorID = packVendorID
		}

		cart.Packs = append(cart.Packs, pack)
		if err := s.reprice(ctx, cart); err != nil {
			return err
		}
		if err := s.cartRepo.Save(ctx, cart); err != nil {
			return cartWriteError(err)
		}
		logger.Debugw("cart_pack_added", "customer_id", customerID, "packs", len(cart.Packs), "total_price", cart.TotalPrice.String())
		result = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemovePack 按下标移除包，后续包的下标前移
func (s *CartService) RemovePack(ctx context.Context, customerID uint, index int) (*models.Cart, error) {
	if customerID == 0 {
		return nil, ErrCustomerNotFound
	}
	var result *models.Cart
	err := withCustomerLock(ctx, s.locker, customerID, s.lockOpts, func() error {
		cart, err := s.cartRepo.GetByCustomer(ctx, customerID)
		if err != nil {
			return persistenceError(err)
		}
		if cart == nil {
			return ErrCartNotFound
		}
		if index < 0 || index >= len(cart.Packs) {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}

		packs := make(models.PackList, 0, len(cart.Packs)-1)
		packs = append(packs, cart.Packs[:index]...)
		packs = append(packs, cart.Packs[index+1:]...)
		cart.Packs = packs
		if len(cart.Packs) == 0 {
			cart.VendorID = 0
		}
		if err := s.reprice(ctx, cart); err != nil {
			return err
		}
		if err := s.cartRepo.Save(ctx, cart); err != nil {
			return cartWriteError(err)
		}
		logger.Debugw("cart_pack_removed", "customer_id", customerID, "index", index, "packs", len(cart.Packs))
		result = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Clear 清空购物车
func (s *CartService) Clear(ctx context.Context, customerID uint) error {
	if customerID == 0 {
		return ErrCustomerNotFound
	}
	return withCustomerLock(ctx, s.locker, customerID, s.lockOpts, func() error {
		if err := s.cartRepo.DeleteByCustomer(ctx, customerID); err != nil {
			return persistenceError(err)
		}
		return nil
	})
}

// reprice 按当前目录重新计算缓存总价
func (s *CartService) reprice(ctx context.Context, cart *models.Cart) error {
	snapshot, err := loadCatalogSnapshot(ctx, s.catalog, cart.Packs)
	if err != nil {
		return err
	}
	cart.TotalPrice = models.NewMoneyFromDecimal(ComputeTotal(cart.Packs, snapshot))
	cart.UpdatedAt = s.now()
	return nil
}

// validatePack 校验包结构：至少一行菜品，数量为正
func validatePack(pack models.Pack) error {
	if len(pack.Items) == 0 {
		return fmt.Errorf("%w: pack must contain at least one item", ErrInvalidPack)
	}
	for i, item := range pack.Items {
		if item.MenuID == 0 {
			return fmt.Errorf("%w: items[%d].menu_id is required", ErrInvalidPack, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d].quantity must be positive", ErrInvalidPack, i)
		}
	}
	if pack.PackagingID != nil && *pack.PackagingID == 0 {
		return fmt.Errorf("%w: packaging_id must be positive", ErrInvalidPack)
	}
	return nil
}
