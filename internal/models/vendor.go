package models

import (
	"time"

	"gorm.io/gorm"
)

// VendorProfile 商家资料（取餐地点）
type VendorProfile struct {
	ID         uint           `gorm:"primarykey" json:"id"`                         // 主键，即商家用户ID
	StoreName  string         `gorm:"type:varchar(200);not null" json:"store_name"` // 店铺名称
	Address    string         `gorm:"type:varchar(500)" json:"address"`             // 店铺地址
	Phone      string         `gorm:"type:varchar(32)" json:"phone"`                // 联系电话
	Location   *GeoPoint      `gorm:"type:text" json:"location"`                    // 店铺坐标
	IsVerified bool           `gorm:"not null;default:false" json:"is_verified"`    // 是否认证
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                      // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间
}

// TableName 指定表名
func (VendorProfile) TableName() string {
	return "vendor_profiles"
}
