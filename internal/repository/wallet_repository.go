package repository

import (
	"errors"
	"strings"
	"sync"

	"github.com/lingqian-app/lingqian/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSchemaColumnMissing 当前库缺少该操作所需的列。
// 调用方自行决定是降级还是报错。
var ErrSchemaColumnMissing = errors.New("repository: column missing in current schema")

// WalletRepository 钱包数据访问接口
type WalletRepository interface {
	GetProfileByUserID(userID uint) (*models.Profile, error)
	GetProfileByUserIDForUpdate(userID uint) (*models.Profile, error)
	GetProfilesByUserIDs(userIDs []uint) ([]models.Profile, error)
	CreateProfile(profile *models.Profile) error
	UpdateProfile(profile *models.Profile) error
	CreditCoins(userID uint, paidDelta, freeDelta int64) error
	FallbackCreditPaid(userID uint, coins int64) error
	AddWithdrawable(userID uint, amount models.Money) error
	SyncYiCoins(userID uint) error
	CreateTransaction(txn *models.CoinTransaction) error
	GetTransactionByReference(reference string) (*models.CoinTransaction, error)
	GetTransactionByDescription(userID uint, txnType, description string) (*models.CoinTransaction, error)
	ListTransactions(filter CoinTransactionListFilter) ([]models.CoinTransaction, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormWalletRepository
}

// walletSchema 缓存钱包相关表的列可用性。
// 线上跑着多个历史版本的库：老库的 profiles 只有 yi_coins，
// coin_transactions 没有 balance_type 和 reference。
// 启动后探测一次，之后按结果拼列。
type walletSchema struct {
	once           sync.Once
	hasPaidFree    bool // profiles.coin_paid / coin_free / withdrawable
	hasYiCoins     bool // profiles.yi_coins
	hasBalanceType bool // coin_transactions.balance_type
	hasReference   bool // coin_transactions.reference
}

// GormWalletRepository GORM 钱包仓储实现
type GormWalletRepository struct {
	db *gorm.DB
	sc *walletSchema
}

// NewWalletRepository 创建钱包仓储
func NewWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db, sc: &walletSchema{}}
}

// WithTx 绑定事务，列探测缓存在实例间共享。
func (r *GormWalletRepository) WithTx(tx *gorm.DB) *GormWalletRepository {
	if tx == nil {
		return r
	}
	return &GormWalletRepository{db: tx, sc: r.sc}
}

// Transaction 在事务内执行回调
func (r *GormWalletRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func (r *GormWalletRepository) schema() *walletSchema {
	r.sc.once.Do(func() {
		r.sc.hasPaidFree = hasColumn(r.db, "profiles", "coin_paid")
		r.sc.hasYiCoins = hasColumn(r.db, "profiles", "yi_coins")
		r.sc.hasBalanceType = hasColumn(r.db, "coin_transactions", "balance_type")
		r.sc.hasReference = hasColumn(r.db, "coin_transactions", "reference")
	})
	return r.sc
}

func (r *GormWalletRepository) profileColumns() []string {
	sc := r.schema()
	columns := []string{"id", "user_id", "created_at", "updated_at"}
	if sc.hasPaidFree {
		columns = append(columns, "coin_paid", "coin_free", "withdrawable")
	}
	if sc.hasYiCoins {
		columns = append(columns, "yi_coins")
	}
	return columns
}

func (r *GormWalletRepository) transactionColumns() []string {
	sc := r.schema()
	columns := []string{"id", "user_id", "amount", "type", "description", "created_at", "updated_at"}
	if sc.hasReference {
		columns = append(columns, "reference")
	}
	if sc.hasBalanceType {
		columns = append(columns, "balance_type")
	}
	return columns
}

// GetProfileByUserID 按用户ID获取资料档案
func (r *GormWalletRepository) GetProfileByUserID(userID uint) (*models.Profile, error) {
	if userID == 0 {
		return nil, nil
	}
	var profile models.Profile
	if err := r.db.Select(r.profileColumns()).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetProfileByUserIDForUpdate 按用户ID加锁获取资料档案
func (r *GormWalletRepository) GetProfileByUserIDForUpdate(userID uint) (*models.Profile, error) {
	if userID == 0 {
		return nil, nil
	}
	query := r.db.Session(&gorm.Session{})
	// sqlite 不支持 FOR UPDATE，靠单写连接串行化
	if dbDialectName(r.db) != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var profile models.Profile
	if err := query.
		Select(r.profileColumns()).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetProfilesByUserIDs 批量获取资料档案
func (r *GormWalletRepository) GetProfilesByUserIDs(userIDs []uint) ([]models.Profile, error) {
	if len(userIDs) == 0 {
		return []models.Profile{}, nil
	}
	var profiles []models.Profile
	if err := r.db.Select(r.profileColumns()).
		Where("user_id IN ?", userIDs).
		Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// CreateProfile 创建资料档案，只写当前库真实存在的列
func (r *GormWalletRepository) CreateProfile(profile *models.Profile) error {
	sc := r.schema()
	query := r.db
	// Omit 是整体赋值而非追加，缺列字段必须一次传入
	var omits []string
	if !sc.hasPaidFree {
		omits = append(omits, "CoinPaid", "CoinFree", "Withdrawable")
	}
	if !sc.hasYiCoins {
		omits = append(omits, "YiCoins")
	}
	if len(omits) > 0 {
		query = query.Omit(omits...)
	}
	return query.Create(profile).Error
}

// UpdateProfile 更新资料档案
func (r *GormWalletRepository) UpdateProfile(profile *models.Profile) error {
	return r.db.Save(profile).Error
}

// CreditCoins 按增量给用户加币。
// 新库同时维护 coin_paid/coin_free 与 yi_coins 汇总；
// 老库只有 yi_coins，一律记到汇总列上。
func (r *GormWalletRepository) CreditCoins(userID uint, paidDelta, freeDelta int64) error {
	if userID == 0 || (paidDelta == 0 && freeDelta == 0) {
		return nil
	}
	sc := r.schema()
	updates := map[string]interface{}{}
	switch {
	case sc.hasPaidFree:
		if paidDelta != 0 {
			updates["coin_paid"] = gorm.Expr("coin_paid + ?", paidDelta)
		}
		if freeDelta != 0 {
			updates["coin_free"] = gorm.Expr("coin_free + ?", freeDelta)
		}
		if sc.hasYiCoins {
			updates["yi_coins"] = gorm.Expr("yi_coins + ?", paidDelta+freeDelta)
		}
	case sc.hasYiCoins:
		updates["yi_coins"] = gorm.Expr("yi_coins + ?", paidDelta+freeDelta)
	default:
		return ErrSchemaColumnMissing
	}
	result := r.db.Model(&models.Profile{}).Where("user_id = ?", userID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FallbackCreditPaid 旁路入账：把 coins 记入付费余额。
// 新库读出当前余额后写回 coin_paid，yi_coins 仅在与正确总和
// 不一致时一并修正；老库没有分列，直接累加到 yi_coins。
func (r *GormWalletRepository) FallbackCreditPaid(userID uint, coins int64) error {
	if userID == 0 || coins <= 0 {
		return nil
	}
	sc := r.schema()
	if !sc.hasPaidFree {
		if !sc.hasYiCoins {
			return ErrSchemaColumnMissing
		}
		result := r.db.Model(&models.Profile{}).
			Where("user_id = ?", userID).
			Update("yi_coins", gorm.Expr("yi_coins + ?", coins))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}

	profile, err := r.GetProfileByUserID(userID)
	if err != nil {
		return err
	}
	if profile == nil {
		return r.CreateProfile(&models.Profile{
			UserID:   userID,
			CoinPaid: coins,
			YiCoins:  coins,
		})
	}
	nextPaid := profile.CoinPaid + coins
	sum := nextPaid + profile.CoinFree
	updates := map[string]interface{}{"coin_paid": nextPaid}
	if sc.hasYiCoins && profile.YiCoins != sum {
		updates["yi_coins"] = sum
	}
	return r.db.Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
}

// AddWithdrawable 给用户累加可提现金额
func (r *GormWalletRepository) AddWithdrawable(userID uint, amount models.Money) error {
	if userID == 0 {
		return nil
	}
	if !r.schema().hasPaidFree {
		return ErrSchemaColumnMissing
	}
	result := r.db.Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("withdrawable", gorm.Expr("withdrawable + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SyncYiCoins 把 yi_coins 汇总列重算为 coin_paid + coin_free。
func (r *GormWalletRepository) SyncYiCoins(userID uint) error {
	if userID == 0 {
		return nil
	}
	sc := r.schema()
	if !sc.hasYiCoins || !sc.hasPaidFree {
		return ErrSchemaColumnMissing
	}
	return r.db.Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("yi_coins", gorm.Expr("coin_paid + coin_free")).Error
}

// CreateTransaction 写入灵币流水，老库缺 balance_type 或 reference
// 列时跳过对应字段。reference 被跳过的流水退化成旧格式，
// 幂等只能靠描述探测。
func (r *GormWalletRepository) CreateTransaction(txn *models.CoinTransaction) error {
	sc := r.schema()
	query := r.db
	// Omit 是整体赋值而非追加，缺列字段必须一次传入
	var omits []string
	if !sc.hasBalanceType {
		omits = append(omits, "BalanceType")
	}
	if !sc.hasReference {
		omits = append(omits, "Reference")
	}
	if len(omits) > 0 {
		query = query.Omit(omits...)
	}
	return query.Create(txn).Error
}

// GetTransactionByReference 按唯一引用号查询流水，用于幂等判断。
// 老库没有 reference 列，查不到任何结果。
func (r *GormWalletRepository) GetTransactionByReference(reference string) (*models.CoinTransaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" || !r.schema().hasReference {
		return nil, nil
	}
	var txn models.CoinTransaction
	if err := r.db.Select(r.transactionColumns()).
		Where("reference = ?", reference).
		First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// GetTransactionByDescription 按类型与描述文本查询流水。
// 老版本入账没有引用号，只能靠描述里的订单号做幂等探测。
func (r *GormWalletRepository) GetTransactionByDescription(userID uint, txnType, description string) (*models.CoinTransaction, error) {
	description = strings.TrimSpace(description)
	if userID == 0 || description == "" {
		return nil, nil
	}
	var txn models.CoinTransaction
	if err := r.db.Select(r.transactionColumns()).
		Where("user_id = ? AND type = ? AND description = ?", userID, txnType, description).
		First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// ListTransactions 分页查询灵币流水
func (r *GormWalletRepository) ListTransactions(filter CoinTransactionListFilter) ([]models.CoinTransaction, int64, error) {
	query := r.db.Model(&models.CoinTransaction{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.BalanceType != "" && r.schema().hasBalanceType {
		query = query.Where("balance_type = ?", filter.BalanceType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var txns []models.CoinTransaction
	if err := query.Select(r.transactionColumns()).
		Order("id DESC").
		Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
