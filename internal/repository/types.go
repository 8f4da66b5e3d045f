package repository

import (
	"errors"
	"time"
)

// ErrCartVersionConflict 购物车版本冲突（并发写入）
var ErrCartVersionConflict = errors.New("cart version conflict")

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	CustomerID  uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// MenuListFilter 查询商家菜品列表的过滤条件
type MenuListFilter struct {
	Page          int
	PageSize      int
	VendorID      uint
	CategoryID    uint
	Search        string
	OnlyAvailable bool
}
