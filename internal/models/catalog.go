package models

import (
	"time"

	"gorm.io/gorm"
)

// Menu 菜品
type Menu struct {
	ID                  uint           `gorm:"primarykey" json:"id"`                               // 主键
	VendorID            uint           `gorm:"column:user_id;index;not null" json:"user_id"`       // 所属商家
	CategoryID          *uint          `gorm:"index" json:"category_id,omitempty"`                 // 分类ID
	PackagingID         *uint          `gorm:"index" json:"packaging_id,omitempty"`                // 默认包装
	Name                string         `gorm:"type:varchar(200);not null" json:"name"`             // 名称
	Description         string         `gorm:"type:text" json:"description"`                       // 描述
	Price               Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 单价
	PreparationDuration int            `gorm:"not null;default:0" json:"preparation_duration"`     // 制作时长（分钟）
	Picture             string         `gorm:"type:varchar(500)" json:"menu_picture"`              // 图片
	IsAvailable         bool           `gorm:"not null;index" json:"is_available"`                 // 是否可售
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt           time.Time      `gorm:"index" json:"updated_at"`                            // 更新时间
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`                                     // 软删除时间
}

// TableName 指定表名
func (Menu) TableName() string {
	return "menus"
}

// Packaging 包装选项
type Packaging struct {
	ID          uint           `gorm:"primarykey" json:"id"`                               // 主键
	VendorID    uint           `gorm:"column:user_id;index;not null" json:"user_id"`       // 所属商家
	Name        string         `gorm:"type:varchar(200);not null" json:"name"`             // 名称
	Description string         `gorm:"type:text" json:"description"`                       // 描述
	Price       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 价格
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                            // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                     // 软删除时间
}

// TableName 指定表名
func (Packaging) TableName() string {
	return "packagings"
}
