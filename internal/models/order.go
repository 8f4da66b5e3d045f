package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单（创建后仅状态可变）
type Order struct {
	ID                  uint           `gorm:"primarykey" json:"id"`                                      // 主键
	CustomerID          uint           `gorm:"index;not null" json:"customer_id"`                         // 顾客ID
	VendorID            uint           `gorm:"index;not null" json:"vendor_id"`                           // 商家ID
	CheckoutKey         string         `gorm:"uniqueIndex;type:varchar(64);not null" json:"checkout_key"` // 结算幂等键
	CustomerName        string         `gorm:"type:varchar(200)" json:"customer_name"`                    // 顾客姓名快照
	CustomerPhone       string         `gorm:"type:varchar(32)" json:"customer_phone"`                    // 顾客电话快照
	CustomerAddress     string         `gorm:"type:varchar(500)" json:"customer_address"`                 // 收货地址快照
	Packs               PackList       `gorm:"type:text;not null" json:"packs"`                           // 包快照
	TotalPrice          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`  // 总价
	Currency            string         `gorm:"type:varchar(8);not null" json:"currency"`                  // 币种
	PickupLocation      GeoPoint       `gorm:"type:text" json:"pickup_location"`                          // 取餐坐标
	DeliveryLocation    GeoPoint       `gorm:"type:text" json:"delivery_location"`                        // 送达坐标
	EstimatedDistanceKM float64        `gorm:"not null;default:0" json:"estimated_distance"`              // 预估距离（公里）
	Status              string         `gorm:"index;not null" json:"status"`                              // 订单状态
	CancelledAt         *time.Time     `gorm:"index" json:"cancelled_at,omitempty"`                       // 取消时间
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt           time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	PaymentIntent *PaymentIntent `gorm:"foreignKey:OrderID" json:"payment_intent,omitempty"` // 支付意图
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
