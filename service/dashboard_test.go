package service

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_AccountBalance(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `accounts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "initial_balance"}).
			AddRow(1, 1, "现金", 100.0))
	// 净流水 = 收入合计 - 支出合计
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(CASE WHEN type = \\? THEN amount ELSE -amount END\\), 0\\)").
		WillReturnRows(sqlmock.NewRows([]string{"net"}).AddRow(20.0))

	svc := NewDashboardService()
	balance, err := svc.AccountBalance(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 120.0, balance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardService_AccountBalance_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `accounts`").
		WillReturnRows(sqlmock.NewRows([]string{}))

	svc := NewDashboardService()
	_, err := svc.AccountBalance(1, 999)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardService_AccountsWithBalance(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `accounts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "initial_balance"}).
			AddRow(1, 1, "现金", 100.0).
			AddRow(2, 1, "储蓄卡", 500.0))
	// 分组净流水只覆盖有流水的账户
	mock.ExpectQuery("SELECT account_id, COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "net"}).AddRow(1, 20.0))

	svc := NewDashboardService()
	accounts, err := svc.AccountsWithBalance(1)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, 120.0, accounts[0].Balance)
	// 无流水账户余额即初始余额
	assert.Equal(t, 500.0, accounts[1].Balance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardService_MonthlySummary(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 汇总与类别明细均排除转账记录
	mock.ExpectQuery("SELECT type, COALESCE\\(SUM\\(amount\\), 0\\) AS total FROM `transactions` WHERE user_id = \\? AND transfer_id IS NULL").
		WillReturnRows(sqlmock.NewRows([]string{"type", "total"}).
			AddRow("income", 8000.0).
			AddRow("expense", 3000.0))
	mock.ExpectQuery("SELECT categories.id AS category_id").
		WillReturnRows(sqlmock.NewRows([]string{"category_id", "name", "color", "total", "count"}).
			AddRow(3, "住房", "#f97316", 2000.0, 1).
			AddRow(1, "餐饮", "#f59e0b", 1000.0, 5))

	svc := NewDashboardService()
	summary, err := svc.MonthlySummary(1, date(2024, 3, 10))
	require.NoError(t, err)
	assert.Equal(t, "2024-03", summary.Month)
	assert.Equal(t, 8000.0, summary.TotalIncome)
	assert.Equal(t, 3000.0, summary.TotalExpense)
	assert.Equal(t, 5000.0, summary.Net)
	require.Len(t, summary.CategoryStats, 2)
	assert.InDelta(t, 66.66, summary.CategoryStats[0].Percentage, 0.1)
	assert.InDelta(t, 33.33, summary.CategoryStats[1].Percentage, 0.1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardService_MonthlySummary_Empty(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT type, COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"type", "total"}))
	mock.ExpectQuery("SELECT categories.id AS category_id").
		WillReturnRows(sqlmock.NewRows([]string{"category_id", "name", "color", "total", "count"}))

	svc := NewDashboardService()
	summary, err := svc.MonthlySummary(1, date(2024, 3, 1))
	require.NoError(t, err)
	assert.Zero(t, summary.TotalIncome)
	assert.Zero(t, summary.TotalExpense)
	assert.Zero(t, summary.Net)
	assert.Empty(t, summary.CategoryStats)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardService_History_ZeroFill(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 只有两个月有数据，其余月份应补零
	mock.ExpectQuery("SELECT DATE_FORMAT\\(date, '%Y-%m'\\) AS ym").
		WillReturnRows(sqlmock.NewRows([]string{"ym", "type", "total"}).
			AddRow("2024-01", "income", 5000.0).
			AddRow("2024-03", "expense", 300.0))

	svc := NewDashboardService()
	points, err := svc.History(1, HistoryMonths, date(2024, 3, 15))
	require.NoError(t, err)
	require.Len(t, points, HistoryMonths)

	assert.Equal(t, "2023-10", points[0].Month)
	assert.Equal(t, "2024-03", points[5].Month)
	assert.Zero(t, points[0].Income)
	assert.Zero(t, points[0].Expense)
	assert.Equal(t, 5000.0, points[3].Income)
	assert.Equal(t, 300.0, points[5].Expense)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardService_History_AllEmpty(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT DATE_FORMAT").
		WillReturnRows(sqlmock.NewRows([]string{"ym", "type", "total"}))

	svc := NewDashboardService()
	points, err := svc.History(1, HistoryMonths, time.Now())
	require.NoError(t, err)
	require.Len(t, points, HistoryMonths)
	for _, p := range points {
		assert.Zero(t, p.Income)
		assert.Zero(t, p.Expense)
		assert.NotEmpty(t, p.Month)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthRange(t *testing.T) {
	start, end := monthRange(date(2024, 1, 20))
	assert.Equal(t, date(2024, 1, 1), start)
	assert.Equal(t, date(2024, 2, 1), end)

	// 跨年
	start, end = monthRange(date(2023, 12, 5))
	assert.Equal(t, date(2023, 12, 1), start)
	assert.Equal(t, date(2024, 1, 1), end)
}
