package models

import (
	"time"

	"gorm.io/gorm"
)

// 类别收支方向常量
const (
	CategoryTypeExpense = "expense" // 支出类别
	CategoryTypeIncome  = "income"  // 收入类别
)

// CategoryGroup 类别分组
// UserID 为 NULL 表示系统默认分组，新用户注册时复制为私有分组
type CategoryGroup struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	UserID     *uint          `json:"user_id,omitempty" gorm:"index"`
	Name       string         `json:"name" gorm:"size:50;not null"`
	Sort       int            `json:"sort" gorm:"default:0;index"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
	Categories []Category     `json:"categories,omitempty" gorm:"foreignKey:GroupID"`
}

func (CategoryGroup) TableName() string {
	return "category_groups"
}

// Category 收支类别
// UserID 为 NULL 表示系统默认类别；IsSystem 标记内置的"转账"类别，所有用户共用
type Category struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    *uint          `json:"user_id,omitempty" gorm:"index"`
	GroupID   uint           `json:"group_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"size:50;not null"`
	Color     string         `json:"color" gorm:"size:20;default:#64748b"` // 颜色代码，如 #ef4444
	Type      string         `json:"type" gorm:"size:10;not null;default:expense"`
	IsSystem  bool           `json:"is_system" gorm:"default:false;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Category) TableName() string {
	return "categories"
}

// IsValidCategoryType 校验类别收支方向
func IsValidCategoryType(t string) bool {
	return t == CategoryTypeExpense || t == CategoryTypeIncome
}
