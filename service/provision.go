package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"budget/database"
	"budget/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ProvisionService 用户开通/注销服务
// 身份提供商 webhook 与本地注册共用同一套默认类别初始化逻辑
type ProvisionService struct{}

// NewProvisionService 创建用户开通服务
func NewProvisionService() *ProvisionService {
	return &ProvisionService{}
}

// HandleUserCreated 处理身份提供商 user.created 事件
// 按外部ID幂等创建本地用户并初始化默认类别；重复投递不产生副作用
func (s *ProvisionService) HandleUserCreated(externalID, username, email string) (*models.User, error) {
	if externalID == "" {
		return nil, NewValidationError("外部用户ID不能为空")
	}

	var user models.User
	err := database.DB.Where("external_id = ?", externalID).First(&user).Error
	if err != nil {
		if username == "" {
			username = "user_" + shortID(externalID)
		}
		// 外部用户不走本地密码登录，填充随机密码哈希占位
		randomPassword, err := randomToken()
		if err != nil {
			return nil, NewInternalError("生成随机密码失败", err)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(randomPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, NewInternalError("密码加密失败", err)
		}

		extID := externalID
		user = models.User{
			Username:   username,
			Password:   string(hashed),
			Email:      email,
			ExternalID: &extID,
			Status:     models.UserStatusActive,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return nil, NewInternalError("创建用户失败", err)
		}
	}

	if err := s.InitializeUserDefaults(user.ID); err != nil {
		return nil, err
	}
	return &user, nil
}

// InitializeUserDefaults 为用户复制系统默认分组与类别（不含系统转账类别）
// 用户已有任何类别时跳过，保证幂等
func (s *ProvisionService) InitializeUserDefaults(userID uint) error {
	var count int64
	database.DB.Model(&models.Category{}).Where("user_id = ?", userID).Count(&count)
	if count > 0 {
		return nil
	}

	var groups []models.CategoryGroup
	if err := database.DB.Where("user_id IS NULL").Order("sort ASC, id ASC").Find(&groups).Error; err != nil {
		return NewInternalError("查询系统默认分组失败", err)
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		for _, g := range groups {
			var cats []models.Category
			if err := tx.Where("group_id = ? AND user_id IS NULL AND is_system = ?", g.ID, false).
				Order("id ASC").Find(&cats).Error; err != nil {
				return err
			}
			// 只有系统转账类别的分组（如"系统"分组）无需复制
			if len(cats) == 0 {
				continue
			}

			uid := userID
			newGroup := models.CategoryGroup{UserID: &uid, Name: g.Name, Sort: g.Sort}
			if err := tx.Create(&newGroup).Error; err != nil {
				return err
			}

			clones := make([]models.Category, 0, len(cats))
			for _, c := range cats {
				clones = append(clones, models.Category{
					UserID:  &uid,
					GroupID: newGroup.ID,
					Name:    c.Name,
					Color:   c.Color,
					Type:    c.Type,
				})
			}
			if err := tx.Create(&clones).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// HandleUserDeleted 处理身份提供商 user.deleted 事件
// 删除该用户的私有类别与分组并注销本地用户；账户与交易记录保留
func (s *ProvisionService) HandleUserDeleted(externalID string) error {
	if externalID == "" {
		return NewValidationError("外部用户ID不能为空")
	}

	var user models.User
	if err := database.DB.Where("external_id = ?", externalID).First(&user).Error; err != nil {
		// 未知用户的删除事件直接忽略，保证幂等
		return nil
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Category{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.CategoryGroup{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

// shortID 取外部ID前8位作为用户名后缀
func shortID(externalID string) string {
	if len(externalID) > 8 {
		return externalID[:8]
	}
	return externalID
}

// randomToken 生成随机十六进制串
func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("读取随机源失败: %w", err)
	}
	return hex.EncodeToString(b), nil
}
