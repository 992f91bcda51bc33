package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"budget/database"
	"budget/middleware"
	"budget/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

// parseExportRange 解析导出时间范围
func parseExportRange(c *gin.Context) (time.Time, time.Time, string, string, bool) {
	startStr := c.Query("start_date")
	endStr := c.Query("end_date")

	if startStr == "" || endStr == "" {
		BadRequest(c, "请提供开始日期和结束日期")
		return time.Time{}, time.Time{}, "", "", false
	}

	start, err := time.ParseInLocation("2006-01-02", startStr, time.Local)
	if err != nil {
		BadRequest(c, "开始日期格式错误，应为: 2006-01-02")
		return time.Time{}, time.Time{}, "", "", false
	}

	end, err := time.ParseInLocation("2006-01-02", endStr, time.Local)
	if err != nil {
		BadRequest(c, "结束日期格式错误，应为: 2006-01-02")
		return time.Time{}, time.Time{}, "", "", false
	}
	end = end.Add(24*time.Hour - time.Second)

	return start, end, startStr, endStr, true
}

// queryExportData 查询时间范围内的交易记录，附带账户与类别
func queryExportData(userID uint, start, end time.Time) ([]models.Transaction, error) {
	var list []models.Transaction
	err := database.DB.
		Preload("Account").
		Preload("Category").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Order("date DESC").
		Find(&list).Error
	return list, err
}

func categoryName(tx models.Transaction) string {
	if tx.Category != nil {
		return tx.Category.Name
	}
	return ""
}

// ExportCSV 导出交易记录为 CSV
// @Summary 导出交易记录为 CSV
// @Description 根据时间范围导出交易记录为 CSV 文件
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2024-01-01)"
// @Param end_date query string true "结束日期 (2024-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	start, end, startStr, endStr, ok := parseExportRange(c)
	if !ok {
		return
	}

	list, err := queryExportData(userID, start, end)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)

	headers := []string{"ID", "类型", "金额", "账户", "类别", "描述", "日期", "创建时间"}
	if err := writer.Write(headers); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	for _, tx := range list {
		row := []string{
			fmt.Sprintf("%d", tx.ID),
			tx.Type,
			fmt.Sprintf("%.2f", tx.SignedAmount()),
			tx.Account.Name,
			categoryName(tx),
			tx.Description,
			tx.Date.Format("2006-01-02"),
			tx.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(row); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	filename := fmt.Sprintf("transactions_%s_%s.csv", startStr, endStr)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))

	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportJSON 导出交易记录为 JSON
// @Summary 导出交易记录为 JSON
// @Description 根据时间范围导出交易记录为 JSON 格式，附带收支汇总
// @Tags 导出
// @Produce json
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2024-01-01)"
// @Param end_date query string true "结束日期 (2024-12-31)"
// @Success 200 {object} Response "导出成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/json [get]
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	start, end, startStr, endStr, ok := parseExportRange(c)
	if !ok {
		return
	}

	list, err := queryExportData(userID, start, end)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	var totalIncome, totalExpense float64
	for _, tx := range list {
		// 转账不计入收支汇总
		if tx.IsTransfer() {
			continue
		}
		switch tx.Type {
		case models.TransactionTypeIncome:
			totalIncome += tx.Amount
		case models.TransactionTypeExpense:
			totalExpense += tx.Amount
		}
	}

	Success(c, gin.H{
		"start_date":    startStr,
		"end_date":      endStr,
		"total_count":   len(list),
		"total_income":  totalIncome,
		"total_expense": totalExpense,
		"transactions":  list,
	})
}

// ExportExcel 导出交易记录为 Excel
// @Summary 导出交易记录为 Excel
// @Description 根据时间范围导出交易记录为 xlsx 文件，含汇总行
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2024-01-01)"
// @Param end_date query string true "结束日期 (2024-12-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	start, end, startStr, endStr, ok := parseExportRange(c)
	if !ok {
		return
	}

	list, err := queryExportData(userID, start, end)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "交易记录"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	f.SetColWidth(sheetName, "A", "A", 10)
	f.SetColWidth(sheetName, "B", "B", 10)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 18)
	f.SetColWidth(sheetName, "E", "E", 12)
	f.SetColWidth(sheetName, "F", "F", 30)
	f.SetColWidth(sheetName, "G", "G", 14)

	headers := []string{"ID", "类型", "金额", "账户", "类别", "描述", "日期"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	var totalIncome, totalExpense float64
	for i, tx := range list {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), tx.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), tx.Type)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), tx.SignedAmount())
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), tx.Account.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), categoryName(tx))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), tx.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), tx.Date.Format("2006-01-02"))
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), dataStyle)

		if tx.IsTransfer() {
			continue
		}
		switch tx.Type {
		case models.TransactionTypeIncome:
			totalIncome += tx.Amount
		case models.TransactionTypeExpense:
			totalExpense += tx.Amount
		}
	}

	// 汇总行
	summaryRow := len(list) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "合计")
	f.MergeCell(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("B%d", summaryRow))
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", summaryRow), totalIncome-totalExpense)
	f.SetCellValue(sheetName, fmt.Sprintf("D%d", summaryRow),
		fmt.Sprintf("收入 %.2f / 支出 %.2f，共 %d 条", totalIncome, totalExpense, len(list)))
	f.MergeCell(sheetName, fmt.Sprintf("D%d", summaryRow), fmt.Sprintf("G%d", summaryRow))
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("G%d", summaryRow), summaryStyle)

	filename := fmt.Sprintf("交易记录_%s_%s.xlsx", startStr, endStr)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}
}
