package models

import (
	"time"

	"gorm.io/gorm"
)

// 账户类型常量
const (
	AccountTypeCash       = "cash"       // 现金
	AccountTypeCard       = "card"       // 信用卡
	AccountTypeChecking   = "checking"   // 储蓄卡
	AccountTypeSavings    = "savings"    // 存款
	AccountTypeInvestment = "investment" // 投资
	AccountTypeWallet     = "wallet"     // 电子钱包
	AccountTypeOther      = "other"      // 其他
)

// Account 账户模型
// 余额不落库，按 初始余额 + 收入合计 - 支出合计 实时计算
type Account struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	UserID         uint           `json:"user_id" gorm:"index;not null"`
	Name           string         `json:"name" gorm:"size:50;not null"`
	Type           string         `json:"type" gorm:"size:20;not null;default:cash"`
	Currency       string         `json:"currency" gorm:"size:3;not null;default:CNY"` // ISO 货币代码
	InitialBalance float64        `json:"initial_balance" gorm:"type:decimal(12,2);default:0"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
	User           User           `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Account) TableName() string {
	return "accounts"
}

// GetAccountTypes 获取所有账户类型
func GetAccountTypes() []string {
	return []string{
		AccountTypeCash,
		AccountTypeCard,
		AccountTypeChecking,
		AccountTypeSavings,
		AccountTypeInvestment,
		AccountTypeWallet,
		AccountTypeOther,
	}
}

// IsValidAccountType 校验账户类型
func IsValidAccountType(t string) bool {
	for _, v := range GetAccountTypes() {
		if v == t {
			return true
		}
	}
	return false
}
