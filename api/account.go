package api

import (
	"strconv"
	"strings"

	"budget/database"
	"budget/middleware"
	"budget/models"
	"budget/service"

	"github.com/gin-gonic/gin"
)

// AccountHandler 账户管理处理器
type AccountHandler struct {
	dashboard *service.DashboardService
}

// NewAccountHandler 创建账户管理处理器
func NewAccountHandler() *AccountHandler {
	return &AccountHandler{
		dashboard: service.NewDashboardService(),
	}
}

// AccountCreateRequest 创建账户请求
type AccountCreateRequest struct {
	Name           string  `json:"name" binding:"required,min=1,max=50" example:"招商银行储蓄卡"`
	Type           string  `json:"type" binding:"required" example:"savings"`
	Currency       string  `json:"currency" binding:"omitempty,len=3" example:"CNY"`
	InitialBalance float64 `json:"initial_balance" example:"1000"`
}

// AccountUpdateRequest 更新账户请求，nil 字段不更新
type AccountUpdateRequest struct {
	Name           *string  `json:"name" binding:"omitempty,min=1,max=50"`
	Type           *string  `json:"type"`
	Currency       *string  `json:"currency" binding:"omitempty,len=3"`
	InitialBalance *float64 `json:"initial_balance"`
}

// Create 创建账户
// @Summary 创建账户
// @Description 创建新账户，类型须为 cash/card/checking/savings/investment/wallet/other
// @Tags 账户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AccountCreateRequest true "账户信息"
// @Success 200 {object} Response{data=models.Account} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req AccountCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(c, "账户名称不能为空")
		return
	}
	if !models.IsValidAccountType(req.Type) {
		BadRequest(c, "无效的账户类型")
		return
	}

	account := models.Account{
		UserID:         userID,
		Name:           req.Name,
		Type:           req.Type,
		Currency:       req.Currency,
		InitialBalance: req.InitialBalance,
	}

	if err := database.DB.Create(&account).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建账户失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", account)
}

// List 账户列表（含实时余额）
// @Summary 获取账户列表
// @Description 获取当前用户全部账户，附带实时计算的余额
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]service.AccountWithBalance} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	accounts, err := h.dashboard.AccountsWithBalance(userID)
	if err != nil {
		ServiceError(c, err)
		return
	}

	Success(c, accounts)
}

// Get 获取单个账户（含实时余额）
// @Summary 获取账户详情
// @Description 获取指定账户的详细信息与实时余额
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Param id path int true "账户ID"
// @Success 200 {object} Response{data=service.AccountWithBalance} "获取成功"
// @Failure 404 {object} Response "账户不存在"
// @Router /api/v1/accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的账户ID")
		return
	}

	var account models.Account
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&account).Error; err != nil {
		NotFound(c, "账户不存在")
		return
	}

	balance, err := h.dashboard.AccountBalance(userID, account.ID)
	if err != nil {
		ServiceError(c, err)
		return
	}

	Success(c, service.AccountWithBalance{Account: account, Balance: balance})
}

// Update 更新账户
// @Summary 更新账户
// @Description 更新账户名称、类型、币种或初始余额
// @Tags 账户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "账户ID"
// @Param request body AccountUpdateRequest true "账户信息"
// @Success 200 {object} Response{data=models.Account} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "账户不存在"
// @Router /api/v1/accounts/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的账户ID")
		return
	}

	var req AccountUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	var account models.Account
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&account).Error; err != nil {
		NotFound(c, "账户不存在")
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			BadRequest(c, "账户名称不能为空")
			return
		}
		updates["name"] = name
	}
	if req.Type != nil {
		if !models.IsValidAccountType(*req.Type) {
			BadRequest(c, "无效的账户类型")
			return
		}
		updates["type"] = *req.Type
	}
	if req.Currency != nil {
		updates["currency"] = *req.Currency
	}
	if req.InitialBalance != nil {
		updates["initial_balance"] = *req.InitialBalance
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&account).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "更新账户失败"))
			return
		}
	}

	SuccessWithMessage(c, "更新成功", account)
}

// Delete 删除账户
// @Summary 删除账户
// @Description 删除账户，账户下仍有交易记录时拒绝删除
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Param id path int true "账户ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "账户下仍有交易记录"
// @Failure 404 {object} Response "账户不存在"
// @Router /api/v1/accounts/{id} [delete]
func (h *AccountHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的账户ID")
		return
	}

	var account models.Account
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&account).Error; err != nil {
		NotFound(c, "账户不存在")
		return
	}

	// 有交易记录的账户不允许删除，避免余额与统计失真
	var count int64
	database.DB.Model(&models.Transaction{}).
		Where("user_id = ? AND account_id = ?", userID, account.ID).
		Count(&count)
	if count > 0 {
		BadRequest(c, "账户下仍有交易记录，无法删除")
		return
	}

	if err := database.DB.Delete(&account).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除账户失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}

// GetAccountTypes 获取支持的账户类型
// @Summary 获取账户类型列表
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]string} "获取成功"
// @Router /api/v1/accounts/types [get]
func (h *AccountHandler) GetAccountTypes(c *gin.Context) {
	Success(c, models.GetAccountTypes())
}
