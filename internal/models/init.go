package models

import (
	"strings"

	"github.com/lingqian-app/lingqian/internal/constants"
	"github.com/lingqian-app/lingqian/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultAdmin 初始化默认管理员账号
func InitDefaultAdmin(phone, password string) error {
	var count int64
	DB.Model(&User{}).Where("role = ?", constants.UserRoleAdmin).Count(&count)
	if count > 0 {
		return nil
	}

	if strings.TrimSpace(phone) == "" {
		phone = "13800000000"
	}
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := User{
		Phone:        strings.TrimSpace(phone),
		Nickname:     "管理员",
		PasswordHash: string(hash),
		Role:         constants.UserRoleAdmin,
		Status:       constants.UserStatusActive,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	if password == "admin123" {
		logger.Warnw("default_admin_created_with_default_password", "phone", admin.Phone)
		logger.Warnw("default_admin_password_change_required", "phone", admin.Phone)
	} else {
		logger.Warnw("default_admin_created", "phone", admin.Phone, "password_hidden", true)
	}
	return nil
}
