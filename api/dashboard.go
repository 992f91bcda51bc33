package api

import (
	"time"

	"budget/middleware"
	"budget/service"

	"github.com/gin-gonic/gin"
)

// DashboardHandler 仪表盘处理器
type DashboardHandler struct {
	svc *service.DashboardService
}

// NewDashboardHandler 创建仪表盘处理器
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{
		svc: service.NewDashboardService(),
	}
}

// Overview 仪表盘总览
// @Summary 获取仪表盘总览
// @Description 获取账户余额、当月与上月收支汇总、近6个月收支趋势。month 为空时取当前月
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Param month query string false "月份 (2024-01)"
// @Success 200 {object} Response{data=service.Overview} "获取成功"
// @Failure 400 {object} Response "月份格式错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	month := time.Now()
	if s := c.Query("month"); s != "" {
		parsed, err := time.ParseInLocation("2006-01", s, time.Local)
		if err != nil {
			BadRequest(c, "月份格式错误，应为: 2006-01")
			return
		}
		month = parsed
	}

	overview, err := h.svc.Overview(userID, month)
	if err != nil {
		ServiceError(c, err)
		return
	}

	Success(c, overview)
}

// MonthlySummary 月度汇总
// @Summary 获取月度收支汇总
// @Description 获取指定月份的收入/支出总额与支出类别明细，转账不计入
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Param month query string false "月份 (2024-01)"
// @Success 200 {object} Response{data=service.MonthlySummary} "获取成功"
// @Failure 400 {object} Response "月份格式错误"
// @Router /api/v1/dashboard/summary [get]
func (h *DashboardHandler) MonthlySummary(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	month := time.Now()
	if s := c.Query("month"); s != "" {
		parsed, err := time.ParseInLocation("2006-01", s, time.Local)
		if err != nil {
			BadRequest(c, "月份格式错误，应为: 2006-01")
			return
		}
		month = parsed
	}

	summary, err := h.svc.MonthlySummary(userID, month)
	if err != nil {
		ServiceError(c, err)
		return
	}

	Success(c, summary)
}
