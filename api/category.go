package api

import (
	"strconv"
	"strings"

	"budget/database"
	"budget/middleware"
	"budget/models"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 类别管理处理器
type CategoryHandler struct{}

// NewCategoryHandler 创建类别管理处理器
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// CategoryCreateRequest 创建类别请求
type CategoryCreateRequest struct {
	GroupID uint   `json:"group_id" binding:"required"`
	Name    string `json:"name" binding:"required,min=1,max=50" example:"宠物"`
	Color   string `json:"color" binding:"omitempty,max=20" example:"#ef4444"`
	Type    string `json:"type" binding:"required" example:"expense"`
}

// CategoryUpdateRequest 更新类别请求，nil 字段不更新
type CategoryUpdateRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=50"`
	Color *string `json:"color" binding:"omitempty,max=20"`
}

// GroupCreateRequest 创建分组请求
type GroupCreateRequest struct {
	Name string `json:"name" binding:"required,min=1,max=50" example:"投资"`
	Sort int    `json:"sort"`
}

// List 列出类别（系统默认 + 用户私有，按分组组织）
// @Summary 获取类别列表
// @Description 获取系统类别与当前用户私有类别，按分组返回
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.CategoryGroup} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var groups []models.CategoryGroup
	err := database.DB.
		Preload("Categories", "user_id = ? OR user_id IS NULL", userID).
		Where("user_id = ? OR user_id IS NULL", userID).
		Order("sort ASC, id ASC").
		Find(&groups).Error
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询类别失败"))
		return
	}

	Success(c, groups)
}

// Create 创建私有类别
// @Summary 创建类别
// @Description 在指定分组下创建当前用户的私有类别
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryCreateRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "类别名称已存在"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(c, "类别名称不能为空")
		return
	}
	if !models.IsValidCategoryType(req.Type) {
		BadRequest(c, "无效的类别类型，应为 expense 或 income")
		return
	}

	// 分组必须是当前用户的，系统分组下不允许添加私有类别
	var group models.CategoryGroup
	if err := database.DB.Where("id = ? AND user_id = ?", req.GroupID, userID).First(&group).Error; err != nil {
		BadRequest(c, "分组不存在")
		return
	}

	// 同一分组内名称唯一
	var existing models.Category
	if err := database.DB.Where("group_id = ? AND user_id = ? AND name = ?", req.GroupID, userID, req.Name).
		First(&existing).Error; err == nil {
		Conflict(c, "该分组下已存在同名类别")
		return
	}

	category := models.Category{
		UserID:  &userID,
		GroupID: req.GroupID,
		Name:    req.Name,
		Color:   req.Color,
		Type:    req.Type,
	}

	if err := database.DB.Create(&category).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建类别失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", category)
}

// Update 更新私有类别
// @Summary 更新类别
// @Description 更新当前用户私有类别的名称或颜色，系统类别不可修改
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Param request body CategoryUpdateRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Failure 400 {object} Response "系统类别不可修改"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的类别ID")
		return
	}

	var req CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	var category models.Category
	if err := database.DB.First(&category, id).Error; err != nil {
		NotFound(c, "类别不存在")
		return
	}

	// 系统类别与他人类别均不可修改
	if category.IsSystem || category.UserID == nil {
		BadRequest(c, "系统类别不可修改")
		return
	}
	if *category.UserID != userID {
		NotFound(c, "类别不存在")
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			BadRequest(c, "类别名称不能为空")
			return
		}
		updates["name"] = name
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&category).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "更新类别失败"))
			return
		}
	}

	SuccessWithMessage(c, "更新成功", category)
}

// Delete 删除私有类别
// @Summary 删除类别
// @Description 删除当前用户的私有类别，系统类别不可删除；关联交易的类别置空
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "系统类别不可删除"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的类别ID")
		return
	}

	var category models.Category
	if err := database.DB.First(&category, id).Error; err != nil {
		NotFound(c, "类别不存在")
		return
	}

	if category.IsSystem || category.UserID == nil {
		BadRequest(c, "系统类别不可删除")
		return
	}
	if *category.UserID != userID {
		NotFound(c, "类别不存在")
		return
	}

	// 关联交易的类别置空，交易记录本身保留
	if err := database.DB.Model(&models.Transaction{}).
		Where("user_id = ? AND category_id = ?", userID, category.ID).
		Update("category_id", nil).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "解除类别关联失败"))
		return
	}

	if err := database.DB.Delete(&category).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除类别失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}

// CreateGroup 创建私有分组
// @Summary 创建类别分组
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GroupCreateRequest true "分组信息"
// @Success 200 {object} Response{data=models.CategoryGroup} "创建成功"
// @Failure 409 {object} Response "分组名称已存在"
// @Router /api/v1/categories/groups [post]
func (h *CategoryHandler) CreateGroup(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req GroupCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(c, "分组名称不能为空")
		return
	}

	var existing models.CategoryGroup
	if err := database.DB.Where("user_id = ? AND name = ?", userID, req.Name).First(&existing).Error; err == nil {
		Conflict(c, "分组名称已存在")
		return
	}

	group := models.CategoryGroup{
		UserID: &userID,
		Name:   req.Name,
		Sort:   req.Sort,
	}

	if err := database.DB.Create(&group).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建分组失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", group)
}
