package models

import (
	"time"

	"gorm.io/gorm"
)

// Category 商家菜品分类
type Category struct {
	ID        uint           `gorm:"primarykey" json:"id"`                         // 主键
	VendorID  uint           `gorm:"column:user_id;index;not null" json:"user_id"` // 所属商家
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`       // 分类名称
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}
