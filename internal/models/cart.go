package models

import (
	"time"
)

// Cart 顾客购物车（每个顾客一份）
type Cart struct {
	ID         uint      `gorm:"primarykey" json:"-" bson:"-"`                                         // 主键
	CustomerID uint      `gorm:"uniqueIndex;not null" json:"customer_id" bson:"customer_id"`           // 顾客ID
	VendorID   uint      `gorm:"index;not null;default:0" json:"vendor_id,omitempty" bson:"vendor_id"` // 购物车所属商家（单商家约束）
	Packs      PackList  `gorm:"type:text;not null" json:"packs" bson:"packs"`                         // 包列表
	TotalPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_price" bson:"-"`    // 缓存总价
	Version    uint64    `gorm:"not null;default:0" json:"-" bson:"version"`                           // 乐观锁版本
	CreatedAt  time.Time `json:"created_at,omitempty" bson:"created_at"`                               // 创建时间
	UpdatedAt  time.Time `json:"updated_at,omitempty" bson:"updated_at"`                               // 更新时间
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}

// EmptyCart 返回未持久化的空购物车
func EmptyCart(customerID uint) *Cart {
	return &Cart{CustomerID: customerID, Packs: PackList{}}
}

// IsEmpty 是否没有任何包
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Packs) == 0
}
