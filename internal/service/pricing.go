package service

import (
	"github.com/nextchow/internal/models"

	"github.com/shopspring/decimal"
)

// CatalogLookup 计价时使用的目录查询
type CatalogLookup interface {
	Menu(id uint) (*models.Menu, bool)
	Packaging(id uint) (*models.Packaging, bool)
}

// ComputeTotal 计算包列表总价
// 找不到的菜品或包装按 0 计入，数量不为正的行同样忽略。
func ComputeTotal(packs models.PackList, lookup CatalogLookup) decimal.Decimal {
	total := decimal.Zero
	for _, pack := range packs {
		total = total.Add(ComputePackTotal(pack, lookup))
	}
	return total.Round(2)
}

// ComputePackTotal 计算单个包的价格
func ComputePackTotal(pack models.Pack, lookup CatalogLookup) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range pack.Items {
		if item.Quantity <= 0 {
			continue
		}
		menu, ok := lookup.Menu(item.MenuID)
		if !ok {
			continue
		}
		subtotal = subtotal.Add(menu.Price.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if pack.PackagingID != nil {
		if packaging, ok := lookup.Packaging(*pack.PackagingID); ok {
			subtotal = subtotal.Add(packaging.Price.Decimal)
		}
	}
	return subtotal
}
