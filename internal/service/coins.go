package service

import (
	"github.com/lingqian-app/lingqian/internal/models"

	"github.com/shopspring/decimal"
)

// CoinsPerCNY 固定兑换率：1 元兑 10 灵币。
const CoinsPerCNY = 10

// ResolveCoinsAmount 从充值订单解析应到账的灵币数。
// 订单表经历过三代结构，优先取 coins_amount，缺失时按
// amount_cny、amount 的顺序用兑换率换算并向下取整。
// 解析不出正整数时返回 ok=false，调用方按不可处理订单对待。
func ResolveCoinsAmount(order *models.RechargeOrder) (int64, bool) {
	if order == nil {
		return 0, false
	}
	if order.CoinsAmount != nil && *order.CoinsAmount > 0 {
		return *order.CoinsAmount, true
	}
	if coins, ok := coinsFromCNY(order.AmountCNY.Decimal); ok {
		return coins, true
	}
	return coinsFromCNY(order.Amount.Decimal)
}

func coinsFromCNY(amount decimal.Decimal) (int64, bool) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, false
	}
	coins := amount.Mul(decimal.NewFromInt(CoinsPerCNY)).Floor().IntPart()
	if coins <= 0 {
		return 0, false
	}
	return coins, true
}
