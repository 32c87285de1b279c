package models

import (
	"time"

	"gorm.io/gorm"
)

// RechargeOrder 充值订单表
//
// CoinsAmount 与 AmountCNY/Amount 三列因历史 schema 演进并存：
// 新部署写 coins_amount，较老的部署只有金额列，最老的只有 amount。
type RechargeOrder struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                    // 主键
	OutTradeNo      string         `gorm:"uniqueIndex;not null" json:"out_trade_no"`                // 外部交易号
	UserID          uint           `gorm:"index;not null" json:"user_id"`                           // 用户ID
	Status          string         `gorm:"index;not null;default:'PENDING'" json:"status"`          // 订单状态（PENDING/PAID/CLOSED）
	CoinsAmount     *int64         `json:"coins_amount,omitempty"`                                  // 购买灵币数（可空）
	AmountCNY       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount_cny"` // 人民币金额
	Amount          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`     // 旧金额列（兼容保留）
	Channel         string         `gorm:"index" json:"channel"`                                    // 支付渠道（alipay/wechat/mock）
	ProviderRef     string         `gorm:"index" json:"provider_ref"`                               // 第三方流水号
	ProviderPayload JSON           `gorm:"type:json" json:"provider_payload"`                       // 第三方回调数据
	PaidAt          *time.Time     `gorm:"index" json:"paid_at"`                                    // 支付时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                 // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间
}

// TableName 指定表名
func (RechargeOrder) TableName() string {
	return "recharge_orders"
}
