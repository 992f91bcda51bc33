package models

import (
	"time"

	"gorm.io/gorm"
)

// 交易类型常量
const (
	TransactionTypeExpense = "expense" // 支出
	TransactionTypeIncome  = "income"  // 收入
)

// 周期频率常量
const (
	FrequencyDaily   = "daily"   // 每天
	FrequencyWeekly  = "weekly"  // 每周
	FrequencyMonthly = "monthly" // 每月
	FrequencyYearly  = "yearly"  // 每年
)

// Transaction 交易记录模型
// Amount 始终为非负数，方向由 Type 决定；转账由两条共享 TransferID 的记录表示；
// 周期交易系列共享 RecurringID，各成员仅日期不同
type Transaction struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      uint           `json:"user_id" gorm:"index;not null"`
	Type        string         `json:"type" gorm:"size:10;not null;index"`
	Amount      float64        `json:"amount" gorm:"type:decimal(12,2);not null"`
	AccountID   uint           `json:"account_id" gorm:"index;not null"`
	CategoryID  *uint          `json:"category_id,omitempty" gorm:"index"`
	Description string         `json:"description" gorm:"size:255"`
	Date        time.Time      `json:"date" gorm:"not null;index"`
	TransferID  *string        `json:"transfer_id,omitempty" gorm:"size:36;index"`
	RecurringID *string        `json:"recurring_id,omitempty" gorm:"size:36;index"`
	IsRecurring bool           `json:"is_recurring" gorm:"default:false"`
	Frequency   string         `json:"frequency,omitempty" gorm:"size:10"`
	EndsAt      *time.Time     `json:"ends_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	User        User           `json:"-" gorm:"foreignKey:UserID"`
	Account     Account        `json:"-" gorm:"foreignKey:AccountID"`
	Category    *Category      `json:"-" gorm:"foreignKey:CategoryID"`
}

// TableName 设置表名
func (Transaction) TableName() string {
	return "transactions"
}

// SignedAmount 返回带符号金额：支出为负，收入为正，用于余额与汇总计算
func (t *Transaction) SignedAmount() float64 {
	if t.Type == TransactionTypeExpense {
		return -t.Amount
	}
	return t.Amount
}

// IsTransfer 是否为转账记录
func (t *Transaction) IsTransfer() bool {
	return t.TransferID != nil && *t.TransferID != ""
}

// IsValidTransactionType 校验交易类型
func IsValidTransactionType(t string) bool {
	return t == TransactionTypeExpense || t == TransactionTypeIncome
}

// IsValidFrequency 校验周期频率
func IsValidFrequency(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}
