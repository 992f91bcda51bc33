package service

import (
	"math"
	"time"

	"budget/database"
	"budget/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 更新/删除作用域
const (
	// ScopeOne 只操作单条记录
	ScopeOne = "one"
	// ScopeFuture 操作周期系列中日期不早于目标记录的所有成员
	ScopeFuture = "future"
)

// MaxRecurringInstances 周期交易单次生成的最大实例数
const MaxRecurringInstances = 12

// TransactionService 交易服务
// 转账对、周期批量等多行写入一律包在数据库事务中，保证原子性
type TransactionService struct{}

// NewTransactionService 创建交易服务
func NewTransactionService() *TransactionService {
	return &TransactionService{}
}

// CreateTransactionInput 创建交易入参
type CreateTransactionInput struct {
	Type        string
	Amount      float64
	AccountID   uint
	CategoryID  uint
	Description string
	Date        time.Time
}

// Create 创建单条交易记录，金额按绝对值落库
func (s *TransactionService) Create(userID uint, in CreateTransactionInput) (*models.Transaction, error) {
	if !models.IsValidTransactionType(in.Type) {
		return nil, NewValidationError("无效的交易类型，应为 expense 或 income")
	}
	if in.AccountID == 0 {
		return nil, NewValidationError("账户ID不能为空")
	}
	if in.CategoryID == 0 {
		return nil, NewValidationError("类别ID不能为空")
	}

	if err := s.checkAccount(userID, in.AccountID); err != nil {
		return nil, err
	}
	if err := s.checkCategory(userID, in.CategoryID); err != nil {
		return nil, err
	}

	categoryID := in.CategoryID
	tx := models.Transaction{
		UserID:      userID,
		Type:        in.Type,
		Amount:      math.Abs(in.Amount),
		AccountID:   in.AccountID,
		CategoryID:  &categoryID,
		Description: in.Description,
		Date:        in.Date,
	}
	if err := database.DB.Create(&tx).Error; err != nil {
		return nil, NewInternalError("创建交易记录失败", err)
	}
	return &tx, nil
}

// CreateTransferInput 创建转账入参
type CreateTransferInput struct {
	FromAccountID uint
	ToAccountID   uint
	Amount        float64
	Description   string
	Date          time.Time
}

// CreateTransfer 创建转账：生成共享 TransferID 的两条记录
// 源账户记支出、目标账户记收入，均挂在系统转账类别下，金额相等，原子写入
func (s *TransactionService) CreateTransfer(userID uint, in CreateTransferInput) ([]models.Transaction, error) {
	if in.FromAccountID == 0 || in.ToAccountID == 0 {
		return nil, NewValidationError("转出账户和转入账户不能为空")
	}
	if in.FromAccountID == in.ToAccountID {
		return nil, NewValidationError("转出账户和转入账户不能相同")
	}
	if in.Amount <= 0 {
		return nil, NewValidationError("转账金额必须大于0")
	}

	if err := s.checkAccount(userID, in.FromAccountID); err != nil {
		return nil, err
	}
	if err := s.checkAccount(userID, in.ToAccountID); err != nil {
		return nil, err
	}

	// 转账依赖系统转账类别，缺失属于部署/初始化问题
	var transferCat models.Category
	if err := database.DB.Where("is_system = ?", true).First(&transferCat).Error; err != nil {
		return nil, NewInternalError("系统转账类别不存在，请检查数据库初始化", err)
	}

	transferID := uuid.NewString()
	catID := transferCat.ID
	pair := []models.Transaction{
		{
			UserID:      userID,
			Type:        models.TransactionTypeExpense,
			Amount:      in.Amount,
			AccountID:   in.FromAccountID,
			CategoryID:  &catID,
			Description: in.Description,
			Date:        in.Date,
			TransferID:  &transferID,
		},
		{
			UserID:      userID,
			Type:        models.TransactionTypeIncome,
			Amount:      in.Amount,
			AccountID:   in.ToAccountID,
			CategoryID:  &catID,
			Description: in.Description,
			Date:        in.Date,
			TransferID:  &transferID,
		},
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&pair).Error
	})
	if err != nil {
		return nil, NewInternalError("创建转账失败", err)
	}
	return pair, nil
}

// CreateRecurringInput 创建周期交易入参
type CreateRecurringInput struct {
	Type        string
	Amount      float64
	AccountID   uint
	CategoryID  uint
	Description string
	StartDate   time.Time
	Frequency   string
	EndsAt      *time.Time
}

// CreateRecurring 创建周期交易系列：按频率生成至多 MaxRecurringInstances 条记录，
// 共享 RecurringID，超出结束日期时提前停止
func (s *TransactionService) CreateRecurring(userID uint, in CreateRecurringInput) ([]models.Transaction, error) {
	if !models.IsValidTransactionType(in.Type) {
		return nil, NewValidationError("无效的交易类型，应为 expense 或 income")
	}
	if !models.IsValidFrequency(in.Frequency) {
		return nil, NewValidationError("无效的周期频率，应为 daily/weekly/monthly/yearly")
	}
	if in.AccountID == 0 {
		return nil, NewValidationError("账户ID不能为空")
	}
	if in.CategoryID == 0 {
		return nil, NewValidationError("类别ID不能为空")
	}

	if err := s.checkAccount(userID, in.AccountID); err != nil {
		return nil, err
	}
	if err := s.checkCategory(userID, in.CategoryID); err != nil {
		return nil, err
	}

	dates := GenerateSchedule(in.StartDate, in.Frequency, in.EndsAt)
	if len(dates) == 0 {
		return nil, NewValidationError("结束日期早于开始日期，未生成任何记录")
	}

	recurringID := uuid.NewString()
	categoryID := in.CategoryID
	amount := math.Abs(in.Amount)

	batch := make([]models.Transaction, 0, len(dates))
	for _, d := range dates {
		batch = append(batch, models.Transaction{
			UserID:      userID,
			Type:        in.Type,
			Amount:      amount,
			AccountID:   in.AccountID,
			CategoryID:  &categoryID,
			Description: in.Description,
			Date:        d,
			RecurringID: &recurringID,
			IsRecurring: true,
			Frequency:   in.Frequency,
			EndsAt:      in.EndsAt,
		})
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&batch).Error
	})
	if err != nil {
		return nil, NewInternalError("创建周期交易失败", err)
	}
	return batch, nil
}

// GenerateSchedule 按频率从开始日期生成排期，至多 MaxRecurringInstances 个，
// 实例日期超过结束日期时提前停止
func GenerateSchedule(start time.Time, frequency string, endsAt *time.Time) []time.Time {
	var dates []time.Time
	for i := 0; i < MaxRecurringInstances; i++ {
		var d time.Time
		switch frequency {
		case models.FrequencyDaily:
			d = start.AddDate(0, 0, i)
		case models.FrequencyWeekly:
			d = start.AddDate(0, 0, 7*i)
		case models.FrequencyMonthly:
			d = start.AddDate(0, i, 0)
		case models.FrequencyYearly:
			d = start.AddDate(i, 0, 0)
		default:
			return nil
		}
		if endsAt != nil && d.After(*endsAt) {
			break
		}
		dates = append(dates, d)
	}
	return dates
}

// UpdateTransactionInput 更新交易入参，nil 字段不更新
type UpdateTransactionInput struct {
	Amount      *float64
	AccountID   *uint
	CategoryID  *uint
	Description *string
	Date        *time.Time
}

// Update 更新交易记录
// scope 为 one 时只更新目标记录；为 future 时要求目标属于周期系列，
// 批量更新系列中日期不早于目标的所有成员，但保留各成员自身的日期
func (s *TransactionService) Update(userID, id uint, scope string, in UpdateTransactionInput) (*models.Transaction, error) {
	if scope == "" {
		scope = ScopeOne
	}
	if scope != ScopeOne && scope != ScopeFuture {
		return nil, NewValidationError("无效的scope，应为 one 或 future")
	}

	var target models.Transaction
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&target).Error; err != nil {
		return nil, NewNotFoundError("交易记录不存在")
	}

	if in.AccountID != nil {
		if err := s.checkAccount(userID, *in.AccountID); err != nil {
			return nil, err
		}
	}
	if in.CategoryID != nil {
		if err := s.checkCategory(userID, *in.CategoryID); err != nil {
			return nil, err
		}
	}

	updates := make(map[string]interface{})
	if in.Amount != nil {
		updates["amount"] = math.Abs(*in.Amount)
	}
	if in.AccountID != nil {
		updates["account_id"] = *in.AccountID
	}
	if in.CategoryID != nil {
		updates["category_id"] = *in.CategoryID
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}

	switch scope {
	case ScopeFuture:
		if target.RecurringID == nil || *target.RecurringID == "" {
			return nil, NewValidationError("该记录不属于周期交易，无法按 future 更新")
		}
		if target.Date.IsZero() {
			return nil, NewValidationError("周期交易缺少日期，无法按 future 更新")
		}
		if len(updates) == 0 {
			return &target, nil
		}
		// 各成员保留自身日期，只改共享字段
		err := database.DB.Model(&models.Transaction{}).
			Where("user_id = ? AND recurring_id = ? AND date >= ?", userID, *target.RecurringID, target.Date).
			Updates(updates).Error
		if err != nil {
			return nil, NewInternalError("批量更新周期交易失败", err)
		}
	default:
		if in.Date != nil {
			updates["date"] = *in.Date
		}
		if len(updates) == 0 {
			return &target, nil
		}
		if err := database.DB.Model(&target).Updates(updates).Error; err != nil {
			return nil, NewInternalError("更新交易记录失败", err)
		}
	}

	// 重新获取更新后的记录
	if err := database.DB.First(&target, target.ID).Error; err != nil {
		return nil, NewInternalError("查询更新结果失败", err)
	}
	return &target, nil
}

// UpdateTransferInput 更新转账入参，nil 字段不更新
type UpdateTransferInput struct {
	Amount      *float64
	Description *string
	Date        *time.Time
}

// UpdateTransfer 同步更新转账两条记录的金额/描述/日期
// 共享同一 TransferID 的记录数不等于 2 视为数据不完整，返回不存在
func (s *TransactionService) UpdateTransfer(userID uint, transferID string, in UpdateTransferInput) ([]models.Transaction, error) {
	if transferID == "" {
		return nil, NewValidationError("转账ID不能为空")
	}
	if in.Amount != nil && *in.Amount <= 0 {
		return nil, NewValidationError("转账金额必须大于0")
	}

	var legs []models.Transaction
	if err := database.DB.Where("user_id = ? AND transfer_id = ?", userID, transferID).
		Order("type DESC").Find(&legs).Error; err != nil {
		return nil, NewInternalError("查询转账记录失败", err)
	}
	if len(legs) != 2 {
		return nil, NewNotFoundError("转账记录不存在")
	}

	updates := make(map[string]interface{})
	if in.Amount != nil {
		updates["amount"] = *in.Amount
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Date != nil {
		updates["date"] = *in.Date
	}
	if len(updates) == 0 {
		return legs, nil
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.Transaction{}).
			Where("user_id = ? AND transfer_id = ?", userID, transferID).
			Updates(updates).Error
	})
	if err != nil {
		return nil, NewInternalError("更新转账失败", err)
	}

	if err := database.DB.Where("user_id = ? AND transfer_id = ?", userID, transferID).
		Order("type DESC").Find(&legs).Error; err != nil {
		return nil, NewInternalError("查询更新结果失败", err)
	}
	return legs, nil
}

// Delete 删除交易记录
// scope 为 future 时删除系列中日期不早于目标的所有成员（要求目标为周期交易）；
// 默认作用域下转账的两条记录一并删除，普通记录单条删除
func (s *TransactionService) Delete(userID, id uint, scope string) error {
	if scope == "" {
		scope = ScopeOne
	}
	if scope != ScopeOne && scope != ScopeFuture {
		return NewValidationError("无效的scope，应为 one 或 future")
	}

	var target models.Transaction
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&target).Error; err != nil {
		return NewNotFoundError("交易记录不存在")
	}

	if scope == ScopeFuture {
		if target.RecurringID == nil || *target.RecurringID == "" {
			return NewValidationError("该记录不属于周期交易，无法按 future 删除")
		}
		err := database.DB.
			Where("user_id = ? AND recurring_id = ? AND date >= ?", userID, *target.RecurringID, target.Date).
			Delete(&models.Transaction{}).Error
		if err != nil {
			return NewInternalError("批量删除周期交易失败", err)
		}
		return nil
	}

	// 转账的两条记录必须一并删除
	if target.IsTransfer() {
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Where("user_id = ? AND transfer_id = ?", userID, *target.TransferID).
				Delete(&models.Transaction{}).Error
		})
		if err != nil {
			return NewInternalError("删除转账失败", err)
		}
		return nil
	}

	if err := database.DB.Delete(&target).Error; err != nil {
		return NewInternalError("删除交易记录失败", err)
	}
	return nil
}

// Get 获取单条交易记录
func (s *TransactionService) Get(userID, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&tx).Error; err != nil {
		return nil, NewNotFoundError("交易记录不存在")
	}
	return &tx, nil
}

// ListTransactionsInput 交易列表查询入参
type ListTransactionsInput struct {
	AccountID   uint
	CategoryID  uint
	Type        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	Page        int
	PageSize    int
	SortField   string
	SortOrder   string
}

// 可排序字段白名单，防 SQL 注入
var sortableFields = map[string]string{
	"date":       "date",
	"amount":     "amount",
	"created_at": "created_at",
}

// List 分页查询交易记录，支持账户/类别/类型/描述/时间范围筛选与排序
func (s *TransactionService) List(userID uint, in ListTransactionsInput) ([]models.Transaction, int64, error) {
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.PageSize <= 0 {
		in.PageSize = 20
	}
	if in.PageSize > 100 {
		in.PageSize = 100
	}

	query := database.DB.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if in.AccountID != 0 {
		query = query.Where("account_id = ?", in.AccountID)
	}
	if in.CategoryID != 0 {
		query = query.Where("category_id = ?", in.CategoryID)
	}
	if in.Type != "" {
		if !models.IsValidTransactionType(in.Type) {
			return nil, 0, NewValidationError("无效的交易类型筛选")
		}
		query = query.Where("type = ?", in.Type)
	}
	if in.Description != "" {
		query = query.Where("description LIKE ?", "%"+in.Description+"%")
	}
	if in.StartDate != nil {
		query = query.Where("date >= ?", *in.StartDate)
	}
	if in.EndDate != nil {
		query = query.Where("date <= ?", *in.EndDate)
	}

	var total int64
	query.Count(&total)

	column, ok := sortableFields[in.SortField]
	if !ok {
		column = "date"
	}
	order := "DESC"
	if in.SortOrder == "asc" {
		order = "ASC"
	}

	var list []models.Transaction
	offset := (in.Page - 1) * in.PageSize
	if err := query.Order(column + " " + order).Offset(offset).Limit(in.PageSize).Find(&list).Error; err != nil {
		return nil, 0, NewInternalError("查询交易记录失败", err)
	}
	return list, total, nil
}

// checkAccount 校验账户存在且属于当前用户
func (s *TransactionService) checkAccount(userID, accountID uint) error {
	var account models.Account
	if err := database.DB.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		return NewValidationError("账户不存在")
	}
	return nil
}

// checkCategory 校验类别存在：当前用户私有类别或系统类别均可用
func (s *TransactionService) checkCategory(userID, categoryID uint) error {
	var category models.Category
	if err := database.DB.Where("id = ? AND (user_id = ? OR user_id IS NULL)", categoryID, userID).
		First(&category).Error; err != nil {
		return NewValidationError("类别不存在")
	}
	return nil
}
