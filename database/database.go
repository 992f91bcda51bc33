package database

import (
	"fmt"
	"log"

	"budget/config"
	"budget/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// SystemTransferCategoryName 内置转账类别名称，所有用户共用
const SystemTransferCategoryName = "转账"

// Init 初始化数据库连接
func Init(cfg *config.Config) error {
	// 构建 MySQL DSN 连接字符串
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
	)

	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	// 获取底层 *sql.DB 连接池配置
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	// 设置连接池参数
	sqlDB.SetMaxIdleConns(10)  // 最大空闲连接数
	sqlDB.SetMaxOpenConns(100) // 最大打开连接数

	// 自动迁移数据库表
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.CategoryGroup{},
		&models.Category{},
		&models.Transaction{},
		&models.PasswordReset{},
	); err != nil {
		return err
	}

	// 初始化系统默认类别（仅当表为空时）
	if err := seedSystemDefaults(); err != nil {
		return err
	}

	log.Println("数据库初始化成功")
	return nil
}

// seedSystemDefaults 初始化系统默认分组与类别（UserID 为 NULL）
// 新用户注册/接入时由 provision 服务复制为私有类别；转账类别为系统共用，不复制
func seedSystemDefaults() error {
	var groupCount int64
	DB.Model(&models.CategoryGroup{}).Where("user_id IS NULL").Count(&groupCount)
	if groupCount > 0 {
		return nil
	}

	type seedCategory struct {
		Name  string
		Color string
		Type  string
	}
	seeds := []struct {
		Group      string
		Sort       int
		Categories []seedCategory
	}{
		{
			Group: "日常支出", Sort: 10,
			Categories: []seedCategory{
				{"餐饮", "#ef4444", models.CategoryTypeExpense},
				{"交通", "#3b82f6", models.CategoryTypeExpense},
				{"购物", "#a855f7", models.CategoryTypeExpense},
				{"娱乐", "#ec4899", models.CategoryTypeExpense},
			},
		},
		{
			Group: "生活支出", Sort: 20,
			Categories: []seedCategory{
				{"医疗", "#10b981", models.CategoryTypeExpense},
				{"教育", "#f59e0b", models.CategoryTypeExpense},
				{"住房", "#14b8a6", models.CategoryTypeExpense},
				{"其他支出", "#64748b", models.CategoryTypeExpense},
			},
		},
		{
			Group: "收入", Sort: 30,
			Categories: []seedCategory{
				{"工资", "#10b981", models.CategoryTypeIncome},
				{"奖金", "#3b82f6", models.CategoryTypeIncome},
				{"理财", "#a855f7", models.CategoryTypeIncome},
				{"兼职", "#f59e0b", models.CategoryTypeIncome},
				{"其他收入", "#64748b", models.CategoryTypeIncome},
			},
		},
	}

	for _, s := range seeds {
		group := models.CategoryGroup{Name: s.Group, Sort: s.Sort}
		if err := DB.Create(&group).Error; err != nil {
			return err
		}
		var cats []models.Category
		for _, c := range s.Categories {
			cats = append(cats, models.Category{
				GroupID: group.ID,
				Name:    c.Name,
				Color:   c.Color,
				Type:    c.Type,
			})
		}
		if err := DB.Create(&cats).Error; err != nil {
			return err
		}
	}

	// 内置转账类别：单独分组，所有用户共用，不参与收支统计
	systemGroup := models.CategoryGroup{Name: "系统", Sort: 90}
	if err := DB.Create(&systemGroup).Error; err != nil {
		return err
	}
	transfer := models.Category{
		GroupID:  systemGroup.ID,
		Name:     SystemTransferCategoryName,
		Color:    "#64748b",
		Type:     models.CategoryTypeExpense,
		IsSystem: true,
	}
	if err := DB.Create(&transfer).Error; err != nil {
		return err
	}

	log.Println("已初始化系统默认类别")
	return nil
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}
