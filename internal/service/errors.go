package service

import "errors"

// 服务层业务错误，handler 层据此映射响应码。
var (
	ErrUserNotFound      = errors.New("用户不存在")
	ErrUserDisabled      = errors.New("用户已被禁用")
	ErrProfileNotFound   = errors.New("用户资料不存在")
	ErrInvalidPassword   = errors.New("账号或密码错误")
	ErrPhoneTaken        = errors.New("手机号已被注册")
	ErrInvalidCoins      = errors.New("灵币数量不合法")
	ErrInsufficientCoins = errors.New("灵币余额不足")

	ErrRechargeOrderNotFound    = errors.New("充值订单不存在")
	ErrRechargeAmountInvalid    = errors.New("充值金额不合法")
	ErrRechargeAmountUnresolved = errors.New("无法从订单解析到账灵币数")
	ErrRechargeChannelDisabled  = errors.New("支付渠道未启用")

	ErrGiftNotFound     = errors.New("礼物不存在")
	ErrGiftInactive     = errors.New("礼物已下架")
	ErrGiftToSelf       = errors.New("不能给自己送礼物")
	ErrGiftQuantity     = errors.New("礼物数量不合法")
	ErrReceiverNotFound = errors.New("收礼用户不存在")
)
