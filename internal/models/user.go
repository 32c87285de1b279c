package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`                 // 主键
	Phone        string         `gorm:"uniqueIndex;not null" json:"phone"`    // 手机号
	Nickname     string         `gorm:"default:''" json:"nickname"`           // 昵称
	PasswordHash string         `gorm:"not null" json:"-"`                    // 密码哈希（不返回给前端）
	Role         string         `gorm:"index;default:'member'" json:"role"`   // 角色（member/diviner/admin）
	Status       string         `gorm:"index;default:'active'" json:"status"` // 账号状态
	LastLoginAt  *time.Time     `json:"last_login_at"`                        // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`              // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`              // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                       // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
