package repository

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page     int
	PageSize int
	Role     string
	Status   string
	Search   string
}

// CoinTransactionListFilter 查询灵币流水的过滤条件
type CoinTransactionListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Type        string
	BalanceType string
}

// RechargeOrderListFilter 查询充值订单的过滤条件
type RechargeOrderListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Status   string
	Channel  string
}

// GiftRecordListFilter 查询送礼记录的过滤条件
type GiftRecordListFilter struct {
	Page       int
	PageSize   int
	SenderID   uint
	ReceiverID uint
	Settled    *bool
}
