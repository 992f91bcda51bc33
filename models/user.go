package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// UserStatusLocked 锁定：不可登录
	UserStatusLocked = "locked"
	// UserStatusActive 正常：可登录
	UserStatusActive = "active"
)

// User 用户模型
type User struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Username   string         `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Password   string         `json:"-" gorm:"size:255;not null"`
	Email      string         `json:"email" gorm:"size:100"`
	ExternalID *string        `json:"external_id,omitempty" gorm:"size:64;uniqueIndex"` // 身份提供商用户ID，NULL 表示本地账号
	Status     string         `json:"status" gorm:"size:20;default:active;index"`       // 用户状态：locked/active
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}
