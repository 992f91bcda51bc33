package service

import (
	"testing"
	"time"

	"budget/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestGenerateSchedule(t *testing.T) {
	start := date(2024, 1, 15)

	// 无结束日期时生成满 12 个实例
	daily := GenerateSchedule(start, models.FrequencyDaily, nil)
	require.Len(t, daily, MaxRecurringInstances)
	assert.Equal(t, date(2024, 1, 15), daily[0])
	assert.Equal(t, date(2024, 1, 26), daily[11])

	weekly := GenerateSchedule(start, models.FrequencyWeekly, nil)
	require.Len(t, weekly, MaxRecurringInstances)
	assert.Equal(t, date(2024, 1, 22), weekly[1])

	monthly := GenerateSchedule(start, models.FrequencyMonthly, nil)
	require.Len(t, monthly, MaxRecurringInstances)
	assert.Equal(t, date(2024, 12, 15), monthly[11])

	yearly := GenerateSchedule(start, models.FrequencyYearly, nil)
	require.Len(t, yearly, MaxRecurringInstances)
	assert.Equal(t, date(2035, 1, 15), yearly[11])

	// 实例日期超过结束日期时提前停止
	ends := date(2024, 4, 1)
	capped := GenerateSchedule(start, models.FrequencyMonthly, &ends)
	require.Len(t, capped, 3) // 1-15、2-15、3-15
	assert.Equal(t, date(2024, 3, 15), capped[2])

	// 结束日期早于开始日期
	early := date(2023, 12, 31)
	assert.Empty(t, GenerateSchedule(start, models.FrequencyDaily, &early))

	// 无效频率
	assert.Nil(t, GenerateSchedule(start, "hourly", nil))
}

func TestTransactionService_Create_Validation(t *testing.T) {
	svc := NewTransactionService()

	_, err := svc.Create(1, CreateTransactionInput{Type: "expense", Amount: 10, CategoryID: 2})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.Create(1, CreateTransactionInput{Type: "expense", Amount: 10, AccountID: 1})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.Create(1, CreateTransactionInput{Type: "refund", Amount: 10, AccountID: 1, CategoryID: 2})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestTransactionService_Create_NormalizesAmount(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `accounts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name"}).AddRow(1, 1, "现金"))
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type"}).AddRow(2, "餐饮", "expense"))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `transactions`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	svc := NewTransactionService()
	tx, err := svc.Create(1, CreateTransactionInput{
		Type:       models.TransactionTypeExpense,
		Amount:     -30, // 负数入参按绝对值落库
		AccountID:  1,
		CategoryID: 2,
		Date:       date(2024, 1, 15),
	})
	require.NoError(t, err)
	assert.Equal(t, 30.0, tx.Amount)
	assert.Equal(t, -30.0, tx.SignedAmount())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_CreateTransfer(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 两个账户校验
	mock.ExpectQuery("SELECT .* FROM `accounts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name"}).AddRow(1, 1, "A"))
	mock.ExpectQuery("SELECT .* FROM `accounts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name"}).AddRow(2, 1, "B"))
	// 系统转账类别
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_system"}).AddRow(9, "转账", true))
	// 两条记录在一个事务内写入
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `transactions`").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	svc := NewTransactionService()
	pair, err := svc.CreateTransfer(1, CreateTransferInput{
		FromAccountID: 1,
		ToAccountID:   2,
		Amount:        75,
		Date:          date(2024, 1, 15),
	})
	require.NoError(t, err)
	require.Len(t, pair, 2)

	// 两条记录共享 TransferID，金额相等，方向相反，同挂转账类别
	require.NotNil(t, pair[0].TransferID)
	require.NotNil(t, pair[1].TransferID)
	assert.Equal(t, *pair[0].TransferID, *pair[1].TransferID)
	assert.Equal(t, models.TransactionTypeExpense, pair[0].Type)
	assert.Equal(t, models.TransactionTypeIncome, pair[1].Type)
	assert.Equal(t, 75.0, pair[0].Amount)
	assert.Equal(t, 75.0, pair[1].Amount)
	assert.Equal(t, uint(1), pair[0].AccountID)
	assert.Equal(t, uint(2), pair[1].AccountID)
	assert.Equal(t, uint(9), *pair[0].CategoryID)
	assert.Equal(t, uint(9), *pair[1].CategoryID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_CreateTransfer_Validation(t *testing.T) {
	svc := NewTransactionService()

	_, err := svc.CreateTransfer(1, CreateTransferInput{FromAccountID: 1, ToAccountID: 1, Amount: 10})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.CreateTransfer(1, CreateTransferInput{FromAccountID: 1, ToAccountID: 2, Amount: 0})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.CreateTransfer(1, CreateTransferInput{ToAccountID: 2, Amount: 10})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestTransactionService_CreateRecurring(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `accounts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name"}).AddRow(1, 1, "现金"))
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type"}).AddRow(2, "住房", "expense"))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `transactions`").
		WillReturnResult(sqlmock.NewResult(1, 12))
	mock.ExpectCommit()

	svc := NewTransactionService()
	batch, err := svc.CreateRecurring(1, CreateRecurringInput{
		Type:       models.TransactionTypeExpense,
		Amount:     2000,
		AccountID:  1,
		CategoryID: 2,
		StartDate:  date(2024, 1, 1),
		Frequency:  models.FrequencyMonthly,
	})
	require.NoError(t, err)
	require.Len(t, batch, MaxRecurringInstances)

	// 全系列共享 RecurringID，仅日期不同
	require.NotNil(t, batch[0].RecurringID)
	for i, tx := range batch {
		assert.Equal(t, *batch[0].RecurringID, *tx.RecurringID)
		assert.True(t, tx.IsRecurring)
		assert.Equal(t, 2000.0, tx.Amount)
		assert.Equal(t, date(2024, time.Month(1+i), 1), tx.Date)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_CreateRecurring_InvalidFrequency(t *testing.T) {
	svc := NewTransactionService()
	_, err := svc.CreateRecurring(1, CreateRecurringInput{
		Type:       models.TransactionTypeExpense,
		Amount:     100,
		AccountID:  1,
		CategoryID: 2,
		StartDate:  date(2024, 1, 1),
		Frequency:  "fortnightly",
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestTransactionService_Update_FutureScope(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	recurringID := "a2a9d3c4-0000-0000-0000-000000000001"

	// 目标记录属于周期系列
	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "amount", "account_id", "date", "recurring_id", "is_recurring"}).
			AddRow(5, 1, "expense", 2000, 1, date(2024, 3, 1), recurringID, true))
	// 批量更新日期不早于目标的成员
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `transactions`").
		WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectCommit()
	// 重新读取目标记录
	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "amount", "account_id", "date", "recurring_id", "is_recurring"}).
			AddRow(5, 1, "expense", 2500, 1, date(2024, 3, 1), recurringID, true))

	amount := 2500.0
	svc := NewTransactionService()
	updated, err := svc.Update(1, 5, ScopeFuture, UpdateTransactionInput{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 2500.0, updated.Amount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_Update_FutureScope_NotRecurring(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "amount", "account_id", "date"}).
			AddRow(5, 1, "expense", 100, 1, date(2024, 3, 1)))

	amount := 120.0
	svc := NewTransactionService()
	_, err := svc.Update(1, 5, ScopeFuture, UpdateTransactionInput{Amount: &amount})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_Update_InvalidScope(t *testing.T) {
	svc := NewTransactionService()
	_, err := svc.Update(1, 5, "all", UpdateTransactionInput{})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestTransactionService_UpdateTransfer_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 只查到一条腿，视为转账不完整
	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "amount", "transfer_id"}).
			AddRow(7, 1, "expense", 75, "t-1"))

	amount := 80.0
	svc := NewTransactionService()
	_, err := svc.UpdateTransfer(1, "t-1", UpdateTransferInput{Amount: &amount})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_UpdateTransfer(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	rows := func(amount float64) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "user_id", "type", "amount", "account_id", "transfer_id"}).
			AddRow(7, 1, "income", amount, 2, "t-1").
			AddRow(8, 1, "expense", amount, 1, "t-1")
	}

	mock.ExpectQuery("SELECT .* FROM `transactions`").WillReturnRows(rows(75))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `transactions`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT .* FROM `transactions`").WillReturnRows(rows(80))

	amount := 80.0
	svc := NewTransactionService()
	legs, err := svc.UpdateTransfer(1, "t-1", UpdateTransferInput{Amount: &amount})
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, 80.0, legs[0].Amount)
	assert.Equal(t, 80.0, legs[1].Amount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_Delete_TransferPair(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 目标是转账的一条腿
	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "amount", "transfer_id"}).
			AddRow(7, 1, "expense", 75, "t-1"))
	// 两条腿一并软删除
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `transactions`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	svc := NewTransactionService()
	require.NoError(t, svc.Delete(1, 7, ""))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_Delete_FutureScope(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	recurringID := "a2a9d3c4-0000-0000-0000-000000000001"
	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "amount", "date", "recurring_id", "is_recurring"}).
			AddRow(5, 1, "expense", 2000, date(2024, 3, 1), recurringID, true))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `transactions`").
		WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectCommit()

	svc := NewTransactionService()
	require.NoError(t, svc.Delete(1, 5, ScopeFuture))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_Delete_FutureScope_NotRecurring(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "amount", "date"}).
			AddRow(5, 1, "expense", 100, date(2024, 3, 1)))

	svc := NewTransactionService()
	err := svc.Delete(1, 5, ScopeFuture)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionService_Delete_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{}))

	svc := NewTransactionService()
	err := svc.Delete(1, 999, "")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
