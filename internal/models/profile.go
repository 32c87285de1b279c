package models

import (
	"time"
)

// Profile 用户资料与灵币余额表
//
// YiCoins 是 coin_paid + coin_free 的冗余总额列，历史原因保留；
// 任何入账路径之后都应保证 yi_coins == coin_paid + coin_free。
type Profile struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                      // 主键
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`                       // 用户ID
	CoinPaid     int64     `gorm:"not null;default:0" json:"coin_paid"`                       // 付费灵币余额
	CoinFree     int64     `gorm:"not null;default:0" json:"coin_free"`                       // 赠送灵币余额
	YiCoins      int64     `gorm:"not null;default:0" json:"yi_coins"`                        // 冗余总余额
	Withdrawable Money     `gorm:"type:decimal(20,2);not null;default:0" json:"withdrawable"` // 可提现金额（结算入账）
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt    time.Time `gorm:"index" json:"updated_at"`                                   // 更新时间
}

// TableName 指定表名
func (Profile) TableName() string {
	return "profiles"
}
