package models

import (
	"time"
)

// CoinTransaction 灵币账本流水表（只追加）
//
// Reference 是幂等键：主路径入账写唯一参考号，数据库唯一约束保证
// 同一外部交易号至多入账一次。兼容回退路径写入的旧格式流水没有
// 参考号（为 NULL），只靠 description 做幂等探测。
type CoinTransaction struct {
	ID          uint      `gorm:"primarykey" json:"id"`                 // 主键
	UserID      uint      `gorm:"index;not null" json:"user_id"`        // 用户ID
	Amount      int64     `gorm:"not null" json:"amount"`               // 变动数量（有符号）
	Type        string    `gorm:"index;not null" json:"type"`           // 交易类型（recharge/gift_send/...）
	BalanceType string    `gorm:"index;default:''" json:"balance_type"` // 余额分区（PAID/FREE，旧流水为空）
	Description string    `gorm:"index;not null" json:"description"`    // 描述（内嵌外部交易号）
	Reference   *string   `gorm:"uniqueIndex" json:"reference"`         // 唯一参考号（幂等键，旧流水为 NULL）
	CreatedAt   time.Time `gorm:"index" json:"created_at"`              // 创建时间
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`              // 更新时间
}

// TableName 指定表名
func (CoinTransaction) TableName() string {
	return "coin_transactions"
}
