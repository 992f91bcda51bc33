package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignedAmount(t *testing.T) {
	expense := Transaction{Type: TransactionTypeExpense, Amount: 30}
	assert.Equal(t, -30.0, expense.SignedAmount())

	income := Transaction{Type: TransactionTypeIncome, Amount: 50}
	assert.Equal(t, 50.0, income.SignedAmount())

	// 金额恒为非负，符号只来自类型
	zero := Transaction{Type: TransactionTypeExpense, Amount: 0}
	assert.Equal(t, 0.0, zero.SignedAmount())
}

func TestIsTransfer(t *testing.T) {
	var tx Transaction
	assert.False(t, tx.IsTransfer())

	empty := ""
	tx.TransferID = &empty
	assert.False(t, tx.IsTransfer())

	id := "8f14e45f-ceea-4e8b-9d2f-1c1f6c8e0b11"
	tx.TransferID = &id
	assert.True(t, tx.IsTransfer())
}

func TestIsValidFrequency(t *testing.T) {
	for _, f := range []string{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly} {
		assert.True(t, IsValidFrequency(f))
	}
	assert.False(t, IsValidFrequency(""))
	assert.False(t, IsValidFrequency("hourly"))
}

func TestIsValidAccountType(t *testing.T) {
	assert.True(t, IsValidAccountType(AccountTypeCash))
	assert.True(t, IsValidAccountType(AccountTypeWallet))
	assert.False(t, IsValidAccountType("bitcoin"))
}
