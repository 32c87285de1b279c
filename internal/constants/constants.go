package constants

// 用户角色常量
const (
	UserRoleMember  = "member"
	UserRoleDiviner = "diviner"
	UserRoleAdmin   = "admin"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 充值订单状态常量
const (
	RechargeStatusPending = "PENDING"
	RechargeStatusPaid    = "PAID"
	RechargeStatusClosed  = "CLOSED"
)

// 支付渠道常量
const (
	PaymentChannelAlipay = "alipay"
	PaymentChannelWechat = "wechat"
	PaymentChannelMock   = "mock"
)

// 灵币账本交易类型常量
const (
	CoinTxnTypeRecharge    = "recharge"
	CoinTxnTypeGiftSend    = "gift_send"
	CoinTxnTypeGiftIncome  = "gift_income"
	CoinTxnTypeAdminAdjust = "admin_adjust"
	CoinTxnTypeSettlement  = "settlement"
)

// 灵币余额分区常量（paid 为付费币，free 为赠送币）
const (
	CoinBalanceTypePaid = "PAID"
	CoinBalanceTypeFree = "FREE"
)

// 支付宝回调常量
const (
	AlipayTradeStatusSuccess  = "TRADE_SUCCESS"
	AlipayTradeStatusFinished = "TRADE_FINISHED"
	AlipayCallbackSuccess     = "success"
	AlipayCallbackFail        = "failure"
)

// 微信支付回调常量
const (
	WechatTradeStateSuccess = "SUCCESS"
	WechatCallbackSuccess   = "SUCCESS"
	WechatCallbackFail      = "FAIL"
)

// 通用回调常量
const (
	GenericTradeStatusSuccess = "SUCCESS"
)

// 异步任务类型常量
const (
	TaskSettlementRun    = "settlement:run"
	TaskWalletCoinRepair = "wallet:coin_repair"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)
