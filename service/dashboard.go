package service

import (
	"time"

	"budget/database"
	"budget/models"
)

// HistoryMonths 趋势图覆盖的月份数（含当月）
const HistoryMonths = 6

// DashboardService 仪表盘聚合服务
// 余额、月度汇总均按需计算，不做缓存；转账记录不计入收支统计
type DashboardService struct{}

// NewDashboardService 创建仪表盘服务
func NewDashboardService() *DashboardService {
	return &DashboardService{}
}

// AccountWithBalance 账户及实时余额
type AccountWithBalance struct {
	models.Account
	Balance float64 `json:"balance"`
}

// CategoryStat 类别统计项
type CategoryStat struct {
	CategoryID uint    `json:"category_id"`
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	Total      float64 `json:"total"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// MonthlySummary 月度收支汇总
type MonthlySummary struct {
	Month         string         `json:"month"` // YYYY-MM
	TotalIncome   float64        `json:"total_income"`
	TotalExpense  float64        `json:"total_expense"`
	Net           float64        `json:"net"`
	CategoryStats []CategoryStat `json:"category_stats"` // 支出按类别降序
}

// HistoryPoint 历史趋势中的单月数据
type HistoryPoint struct {
	Month   string  `json:"month"` // YYYY-MM
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// Overview 仪表盘聚合载荷
type Overview struct {
	Accounts      []AccountWithBalance `json:"accounts"`
	CurrentMonth  *MonthlySummary      `json:"current_month"`
	PreviousMonth *MonthlySummary      `json:"previous_month"`
	History       []HistoryPoint       `json:"history"`
}

// AccountBalance 计算单个账户余额：初始余额 + 收入合计 - 支出合计
func (s *DashboardService) AccountBalance(userID, accountID uint) (float64, error) {
	var account models.Account
	if err := database.DB.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		return 0, NewNotFoundError("账户不存在")
	}

	var net float64
	err := database.DB.Model(&models.Transaction{}).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE -amount END), 0)", models.TransactionTypeIncome).
		Where("user_id = ? AND account_id = ?", userID, accountID).
		Scan(&net).Error
	if err != nil {
		return 0, NewInternalError("计算账户余额失败", err)
	}
	return account.InitialBalance + net, nil
}

// AccountsWithBalance 查询用户全部账户并计算实时余额
func (s *DashboardService) AccountsWithBalance(userID uint) ([]AccountWithBalance, error) {
	var accounts []models.Account
	if err := database.DB.Where("user_id = ?", userID).Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, NewInternalError("查询账户失败", err)
	}

	// 一次分组查询取全部账户的净流水，避免逐账户查询
	type accountNet struct {
		AccountID uint
		Net       float64
	}
	var nets []accountNet
	err := database.DB.Model(&models.Transaction{}).
		Select("account_id, COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE -amount END), 0) AS net", models.TransactionTypeIncome).
		Where("user_id = ?", userID).
		Group("account_id").
		Scan(&nets).Error
	if err != nil {
		return nil, NewInternalError("计算账户余额失败", err)
	}

	netByAccount := make(map[uint]float64, len(nets))
	for _, n := range nets {
		netByAccount[n.AccountID] = n.Net
	}

	result := make([]AccountWithBalance, 0, len(accounts))
	for _, a := range accounts {
		result = append(result, AccountWithBalance{
			Account: a,
			Balance: a.InitialBalance + netByAccount[a.ID],
		})
	}
	return result, nil
}

// MonthlySummary 统计指定月份的收支汇总与支出类别明细，转账记录不计入
func (s *DashboardService) MonthlySummary(userID uint, month time.Time) (*MonthlySummary, error) {
	start, end := monthRange(month)

	// 收入/支出总额
	type typeTotal struct {
		Type  string
		Total float64
	}
	var totals []typeTotal
	err := database.DB.Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND transfer_id IS NULL AND date >= ? AND date < ?", userID, start, end).
		Group("type").
		Scan(&totals).Error
	if err != nil {
		return nil, NewInternalError("统计月度收支失败", err)
	}

	summary := &MonthlySummary{
		Month:         start.Format("2006-01"),
		CategoryStats: []CategoryStat{},
	}
	for _, t := range totals {
		switch t.Type {
		case models.TransactionTypeIncome:
			summary.TotalIncome = t.Total
		case models.TransactionTypeExpense:
			summary.TotalExpense = t.Total
		}
	}
	summary.Net = summary.TotalIncome - summary.TotalExpense

	// 支出按类别统计，金额降序
	err = database.DB.Model(&models.Transaction{}).
		Select("categories.id AS category_id, categories.name AS name, categories.color AS color, SUM(transactions.amount) AS total, COUNT(*) AS count").
		Joins("LEFT JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ? AND transactions.type = ? AND transactions.transfer_id IS NULL AND transactions.date >= ? AND transactions.date < ?",
			userID, models.TransactionTypeExpense, start, end).
		Group("categories.id, categories.name, categories.color").
		Order("total DESC").
		Scan(&summary.CategoryStats).Error
	if err != nil {
		return nil, NewInternalError("统计类别支出失败", err)
	}

	// 计算各类别占比
	for i := range summary.CategoryStats {
		if summary.TotalExpense > 0 {
			summary.CategoryStats[i].Percentage = summary.CategoryStats[i].Total / summary.TotalExpense * 100
		}
	}
	return summary, nil
}

// History 统计截至 now 的最近 months 个自然月的收支趋势
// 返回恰好 months 个月份，无数据的月份填零；转账记录不计入
func (s *DashboardService) History(userID uint, months int, now time.Time) ([]HistoryPoint, error) {
	if months <= 0 {
		months = HistoryMonths
	}

	firstMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)
	_, end := monthRange(now)

	type monthTotal struct {
		Ym    string
		Type  string
		Total float64
	}
	var rows []monthTotal
	err := database.DB.Model(&models.Transaction{}).
		Select("DATE_FORMAT(date, '%Y-%m') AS ym, type, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND transfer_id IS NULL AND date >= ? AND date < ?", userID, firstMonth, end).
		Group("ym, type").
		Scan(&rows).Error
	if err != nil {
		return nil, NewInternalError("统计历史趋势失败", err)
	}

	byMonth := make(map[string]*HistoryPoint, months)
	points := make([]HistoryPoint, months)
	for i := 0; i < months; i++ {
		key := firstMonth.AddDate(0, i, 0).Format("2006-01")
		points[i] = HistoryPoint{Month: key}
		byMonth[key] = &points[i]
	}
	for _, r := range rows {
		p, ok := byMonth[r.Ym]
		if !ok {
			continue
		}
		switch r.Type {
		case models.TransactionTypeIncome:
			p.Income = r.Total
		case models.TransactionTypeExpense:
			p.Expense = r.Total
		}
	}
	return points, nil
}

// Overview 组装仪表盘载荷：账户余额、当月（或指定月）与上月汇总、近6个月趋势
func (s *DashboardService) Overview(userID uint, month time.Time) (*Overview, error) {
	accounts, err := s.AccountsWithBalance(userID)
	if err != nil {
		return nil, err
	}

	current, err := s.MonthlySummary(userID, month)
	if err != nil {
		return nil, err
	}

	previous, err := s.MonthlySummary(userID, month.AddDate(0, -1, 0))
	if err != nil {
		return nil, err
	}

	history, err := s.History(userID, HistoryMonths, month)
	if err != nil {
		return nil, err
	}

	return &Overview{
		Accounts:      accounts,
		CurrentMonth:  current,
		PreviousMonth: previous,
		History:       history,
	}, nil
}

// monthRange 返回该月第一天与下月第一天，查询用 [start, end) 半开区间
func monthRange(m time.Time) (time.Time, time.Time) {
	start := time.Date(m.Year(), m.Month(), 1, 0, 0, 0, 0, m.Location())
	return start, start.AddDate(0, 1, 0)
}
