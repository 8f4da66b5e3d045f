package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Customer 顾客表
type Customer struct {
	ID           uint           `gorm:"primarykey" json:"id"`                            // 主键
	FirstName    string         `gorm:"type:varchar(100)" json:"first_name"`             // 名
	LastName     string         `gorm:"type:varchar(100)" json:"last_name"`              // 姓
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`               // 邮箱（支付网关需要）
	Phone        string         `gorm:"type:varchar(32)" json:"phone"`                   // 手机号
	Address      string         `gorm:"type:varchar(500)" json:"address"`                // 收货地址
	Location     *GeoPoint      `gorm:"type:text" json:"location"`                       // 收货坐标
	Status       string         `gorm:"type:varchar(20);default:'active'" json:"status"` // 账号状态
	TokenVersion uint64         `gorm:"not null;default:0" json:"-"`                     // Token 版本（用于全量失效）
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                         // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}

// FullName 姓名
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
