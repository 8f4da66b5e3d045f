package models

import (
	"time"
)

// PaymentIntent 订单与支付网关交易的关联记录
type PaymentIntent struct {
	ID               uint       `gorm:"primarykey" json:"id"`                                    // 主键
	OrderID          uint       `gorm:"uniqueIndex;not null" json:"order_id"`                    // 订单ID（一单一意图）
	CustomerID       uint       `gorm:"index;not null" json:"customer_id"`                       // 顾客ID
	Amount           Money      `gorm:"type:decimal(20,2);not null" json:"amount"`               // 金额（等于订单总价，不可变）
	Currency         string     `gorm:"type:varchar(8);not null" json:"currency"`                // 币种
	Reference        string     `gorm:"uniqueIndex;type:varchar(128);not null" json:"reference"` // 网关流水号
	AccessCode       string     `gorm:"type:varchar(128)" json:"access_code"`                    // 网关访问码
	AuthorizationURL string     `gorm:"type:text" json:"authorization_url"`                      // 跳转支付地址
	PaymentMethod    string     `gorm:"type:varchar(32);not null" json:"payment_method"`         // 支付方式
	Status           string     `gorm:"index;not null;default:'pending'" json:"status"`          // 支付状态
	GatewayPayload   JSON       `gorm:"type:text" json:"-"`                                      // 网关回调原始数据
	PaidAt           *time.Time `gorm:"index" json:"paid_at,omitempty"`                          // 支付时间
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt        time.Time  `gorm:"index" json:"updated_at"`                                 // 更新时间
}

// TableName 指定表名
func (PaymentIntent) TableName() string {
	return "payment_intents"
}
