package api

import (
	"strconv"
	"time"

	"budget/middleware"
	"budget/service"

	"github.com/gin-gonic/gin"
)

// TransactionHandler 交易记录处理器
type TransactionHandler struct {
	svc *service.TransactionService
}

// NewTransactionHandler 创建交易记录处理器
func NewTransactionHandler() *TransactionHandler {
	return &TransactionHandler{
		svc: service.NewTransactionService(),
	}
}

// TransactionCreateRequest 创建交易请求
// 普通记账只需基础字段；is_transfer 为 true 时走转账；is_recurring 为 true 时走周期记账
type TransactionCreateRequest struct {
	Type        string  `json:"type" example:"expense"`
	Amount      float64 `json:"amount" example:"35.5"`
	AccountID   uint    `json:"account_id" example:"1"`
	CategoryID  uint    `json:"category_id" example:"2"`
	Description string  `json:"description" example:"午餐"`
	Date        string  `json:"date" example:"2024-01-15"`

	// 转账字段
	IsTransfer    bool `json:"is_transfer"`
	FromAccountID uint `json:"from_account_id"`
	ToAccountID   uint `json:"to_account_id"`

	// 周期记账字段
	IsRecurring bool   `json:"is_recurring"`
	Frequency   string `json:"frequency" example:"monthly"`
	EndsAt      string `json:"ends_at" example:"2024-12-31"`
}

// TransactionUpdateRequest 更新交易请求，nil 字段不更新
type TransactionUpdateRequest struct {
	Amount      *float64 `json:"amount"`
	AccountID   *uint    `json:"account_id"`
	CategoryID  *uint    `json:"category_id"`
	Description *string  `json:"description"`
	Date        *string  `json:"date"`
}

// parseDate 解析 2006-01-02 格式日期
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

// Create 创建交易
// @Summary 创建交易记录
// @Description 创建普通收支、转账或周期记账。is_transfer 为 true 时创建共享转账ID的两条记录；is_recurring 为 true 时按频率生成系列
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransactionCreateRequest true "交易信息"
// @Success 200 {object} Response "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req TransactionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			BadRequest(c, "日期格式错误，应为: 2006-01-02")
			return
		}
		date = parsed
	}

	// 转账
	if req.IsTransfer {
		pair, err := h.svc.CreateTransfer(userID, service.CreateTransferInput{
			FromAccountID: req.FromAccountID,
			ToAccountID:   req.ToAccountID,
			Amount:        req.Amount,
			Description:   req.Description,
			Date:          date,
		})
		if err != nil {
			ServiceError(c, err)
			return
		}
		SuccessWithMessage(c, "转账成功", pair)
		return
	}

	// 周期记账
	if req.IsRecurring {
		var endsAt *time.Time
		if req.EndsAt != "" {
			parsed, err := parseDate(req.EndsAt)
			if err != nil {
				BadRequest(c, "结束日期格式错误，应为: 2006-01-02")
				return
			}
			endsAt = &parsed
		}

		batch, err := h.svc.CreateRecurring(userID, service.CreateRecurringInput{
			Type:        req.Type,
			Amount:      req.Amount,
			AccountID:   req.AccountID,
			CategoryID:  req.CategoryID,
			Description: req.Description,
			StartDate:   date,
			Frequency:   req.Frequency,
			EndsAt:      endsAt,
		})
		if err != nil {
			ServiceError(c, err)
			return
		}
		SuccessWithMessage(c, "创建成功", batch)
		return
	}

	tx, err := h.svc.Create(userID, service.CreateTransactionInput{
		Type:        req.Type,
		Amount:      req.Amount,
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}
	SuccessWithMessage(c, "创建成功", tx)
}

// List 交易列表
// @Summary 获取交易记录列表
// @Description 分页获取交易记录，支持按账户、类别、类型、描述、时间范围筛选与排序
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param account_id query int false "账户ID"
// @Param category_id query int false "类别ID"
// @Param type query string false "类型 expense|income"
// @Param description query string false "描述（模糊匹配）"
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Param page query int false "页码，默认1"
// @Param page_size query int false "每页条数，默认20，最大100"
// @Param sort_field query string false "排序字段 date|amount|created_at"
// @Param sort_order query string false "排序方向 asc|desc"
// @Success 200 {object} Response{data=PageResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	accountID, _ := strconv.ParseUint(c.Query("account_id"), 10, 32)
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 32)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	in := service.ListTransactionsInput{
		AccountID:   uint(accountID),
		CategoryID:  uint(categoryID),
		Type:        c.Query("type"),
		Description: c.Query("description"),
		Page:        page,
		PageSize:    pageSize,
		SortField:   c.Query("sort_field"),
		SortOrder:   c.Query("sort_order"),
	}

	if s := c.Query("start_date"); s != "" {
		parsed, err := parseDate(s)
		if err != nil {
			BadRequest(c, "开始日期格式错误，应为: 2006-01-02")
			return
		}
		in.StartDate = &parsed
	}
	if s := c.Query("end_date"); s != "" {
		parsed, err := parseDate(s)
		if err != nil {
			BadRequest(c, "结束日期格式错误，应为: 2006-01-02")
			return
		}
		end := parsed.Add(24*time.Hour - time.Second)
		in.EndDate = &end
	}

	list, total, err := h.svc.List(userID, in)
	if err != nil {
		ServiceError(c, err)
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     in.Page,
		PageSize: in.PageSize,
		List:     list,
	})
}

// Get 获取单条交易
// @Summary 获取交易记录详情
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Success 200 {object} Response{data=models.Transaction} "获取成功"
// @Failure 404 {object} Response "交易记录不存在"
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的交易ID")
		return
	}

	tx, err := h.svc.Get(userID, uint(id))
	if err != nil {
		ServiceError(c, err)
		return
	}

	Success(c, tx)
}

// Update 更新交易
// @Summary 更新交易记录
// @Description 更新交易记录。scope=one 只更新目标记录；scope=future 批量更新周期系列中日期不早于目标的成员（保留各成员日期）；转账记录自动同步另一条配对记录
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Param scope query string false "更新范围 one|future，默认 one"
// @Param request body TransactionUpdateRequest true "交易信息"
// @Success 200 {object} Response "更新成功"
// @Failure 400 {object} Response "请求参数或 scope 错误"
// @Failure 404 {object} Response "交易记录不存在"
// @Router /api/v1/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的交易ID")
		return
	}

	var req TransactionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	var date *time.Time
	if req.Date != nil {
		parsed, err := parseDate(*req.Date)
		if err != nil {
			BadRequest(c, "日期格式错误，应为: 2006-01-02")
			return
		}
		date = &parsed
	}

	// 转账记录需同步更新配对记录
	target, err := h.svc.Get(userID, uint(id))
	if err != nil {
		ServiceError(c, err)
		return
	}
	if target.IsTransfer() {
		legs, err := h.svc.UpdateTransfer(userID, *target.TransferID, service.UpdateTransferInput{
			Amount:      req.Amount,
			Description: req.Description,
			Date:        date,
		})
		if err != nil {
			ServiceError(c, err)
			return
		}
		SuccessWithMessage(c, "更新成功", legs)
		return
	}

	tx, err := h.svc.Update(userID, uint(id), c.Query("scope"), service.UpdateTransactionInput{
		Amount:      req.Amount,
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}
	SuccessWithMessage(c, "更新成功", tx)
}

// Delete 删除交易
// @Summary 删除交易记录
// @Description 删除交易记录。scope=future 删除周期系列中日期不早于目标的成员；转账记录的两条配对记录一并删除
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Param scope query string false "删除范围 one|future，默认 one"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "scope 错误"
// @Failure 404 {object} Response "交易记录不存在"
// @Router /api/v1/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的交易ID")
		return
	}

	if err := h.svc.Delete(userID, uint(id), c.Query("scope")); err != nil {
		ServiceError(c, err)
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
