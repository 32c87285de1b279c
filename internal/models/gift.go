package models

import (
	"time"

	"gorm.io/gorm"
)

// Gift 礼物表
type Gift struct {
	ID         uint           `gorm:"primarykey" json:"id"`             // 主键
	Name       string         `gorm:"not null" json:"name"`             // 礼物名称
	PriceCoins int64          `gorm:"not null" json:"price_coins"`      // 灵币价格
	Active     bool           `gorm:"index;default:true" json:"active"` // 是否上架
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`          // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`          // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                   // 软删除时间
}

// TableName 指定表名
func (Gift) TableName() string {
	return "gifts"
}

// GiftRecord 送礼记录表，结算批处理的输入
type GiftRecord struct {
	ID         uint      `gorm:"primarykey" json:"id"`               // 主键
	GiftID     uint      `gorm:"index;not null" json:"gift_id"`      // 礼物ID
	SenderID   uint      `gorm:"index;not null" json:"sender_id"`    // 送礼用户ID
	ReceiverID uint      `gorm:"index;not null" json:"receiver_id"`  // 收礼用户ID（占卜师）
	Coins      int64     `gorm:"not null" json:"coins"`              // 消耗灵币数
	Settled    bool      `gorm:"index;default:false" json:"settled"` // 是否已结算
	CreatedAt  time.Time `gorm:"index" json:"created_at"`            // 创建时间
	UpdatedAt  time.Time `gorm:"index" json:"updated_at"`            // 更新时间
}

// TableName 指定表名
func (GiftRecord) TableName() string {
	return "gift_records"
}
