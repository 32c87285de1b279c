package repository

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lingqian-app/lingqian/internal/constants"
	"github.com/lingqian-app/lingqian/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RechargeRepository 充值订单数据访问接口
type RechargeRepository interface {
	CreateOrder(order *models.RechargeOrder) error
	GetOrderByID(id uint) (*models.RechargeOrder, error)
	GetOrderByOutTradeNo(outTradeNo string) (*models.RechargeOrder, error)
	GetOrderByOutTradeNoForUpdate(outTradeNo string) (*models.RechargeOrder, error)
	MarkOrderPaid(orderID uint, providerRef string, payload models.JSON, paidAt time.Time) error
	UpdateOrder(order *models.RechargeOrder) error
	ListOrders(filter RechargeOrderListFilter) ([]models.RechargeOrder, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormRechargeRepository
}

// rechargeSchema 缓存 recharge_orders 的列可用性。
// 该表经历过三代结构：最早只有 amount（元），之后加了 amount_cny 与
// out_trade_no，当前版本直接存 coins_amount。探测一次后按结果拼 SQL。
type rechargeSchema struct {
	once               sync.Once
	hasCoinsAmount     bool
	hasAmountCNY       bool
	hasOutTradeNo      bool
	hasProviderPayload bool
	hasDeletedAt       bool
}

// GormRechargeRepository GORM 充值订单仓储实现
type GormRechargeRepository struct {
	db *gorm.DB
	sc *rechargeSchema
}

// NewRechargeRepository 创建充值订单仓储
func NewRechargeRepository(db *gorm.DB) *GormRechargeRepository {
	return &GormRechargeRepository{db: db, sc: &rechargeSchema{}}
}

// WithTx 绑定事务，列探测缓存在实例间共享。
func (r *GormRechargeRepository) WithTx(tx *gorm.DB) *GormRechargeRepository {
	if tx == nil {
		return r
	}
	return &GormRechargeRepository{db: tx, sc: r.sc}
}

// Transaction 在事务内执行回调
func (r *GormRechargeRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func (r *GormRechargeRepository) schema() *rechargeSchema {
	r.sc.once.Do(func() {
		r.sc.hasCoinsAmount = hasColumn(r.db, "recharge_orders", "coins_amount")
		r.sc.hasAmountCNY = hasColumn(r.db, "recharge_orders", "amount_cny")
		r.sc.hasOutTradeNo = hasColumn(r.db, "recharge_orders", "out_trade_no")
		r.sc.hasProviderPayload = hasColumn(r.db, "recharge_orders", "provider_payload")
		r.sc.hasDeletedAt = hasColumn(r.db, "recharge_orders", "deleted_at")
	})
	return r.sc
}

func (r *GormRechargeRepository) orderColumns() []string {
	sc := r.schema()
	columns := []string{"id", "user_id", "status", "amount", "channel", "provider_ref", "paid_at", "created_at", "updated_at"}
	if sc.hasCoinsAmount {
		columns = append(columns, "coins_amount")
	}
	if sc.hasAmountCNY {
		columns = append(columns, "amount_cny")
	}
	if sc.hasOutTradeNo {
		columns = append(columns, "out_trade_no")
	}
	if sc.hasProviderPayload {
		columns = append(columns, "provider_payload")
	}
	if sc.hasDeletedAt {
		columns = append(columns, "deleted_at")
	}
	return columns
}

func (r *GormRechargeRepository) orderQuery() *gorm.DB {
	query := r.db.Model(&models.RechargeOrder{}).Select(r.orderColumns())
	if !r.schema().hasDeletedAt {
		query = query.Unscoped()
	}
	return query
}

// CreateOrder 创建充值订单
func (r *GormRechargeRepository) CreateOrder(order *models.RechargeOrder) error {
	return r.db.Create(order).Error
}

// GetOrderByID 根据 ID 获取充值订单
func (r *GormRechargeRepository) GetOrderByID(id uint) (*models.RechargeOrder, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.RechargeOrder
	if err := r.orderQuery().Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetOrderByOutTradeNo 按商户单号获取充值订单。
// 老库没有 out_trade_no 列，当时的商户单号就是主键 ID 的十进制串，
// 此时退回按 ID 过滤。
func (r *GormRechargeRepository) GetOrderByOutTradeNo(outTradeNo string) (*models.RechargeOrder, error) {
	return r.getByOutTradeNo(outTradeNo, false)
}

// GetOrderByOutTradeNoForUpdate 按商户单号加锁获取充值订单
func (r *GormRechargeRepository) GetOrderByOutTradeNoForUpdate(outTradeNo string) (*models.RechargeOrder, error) {
	return r.getByOutTradeNo(outTradeNo, true)
}

func (r *GormRechargeRepository) getByOutTradeNo(outTradeNo string, forUpdate bool) (*models.RechargeOrder, error) {
	outTradeNo = strings.TrimSpace(outTradeNo)
	if outTradeNo == "" {
		return nil, nil
	}
	query := r.orderQuery()
	// sqlite 不支持 FOR UPDATE，靠单写连接串行化
	if forUpdate && dbDialectName(r.db) != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if r.schema().hasOutTradeNo {
		query = query.Where("out_trade_no = ?", outTradeNo)
	} else {
		id, err := strconv.ParseUint(outTradeNo, 10, 64)
		if err != nil {
			return nil, nil
		}
		query = query.Where("id = ?", id)
	}
	var order models.RechargeOrder
	if err := query.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// MarkOrderPaid 把订单置为已支付并回填渠道信息。
// 只更新当前库真实存在的列，避免在老库上整行 Save 触发缺列报错。
func (r *GormRechargeRepository) MarkOrderPaid(orderID uint, providerRef string, payload models.JSON, paidAt time.Time) error {
	if orderID == 0 {
		return gorm.ErrRecordNotFound
	}
	updates := map[string]interface{}{
		"status":       constants.RechargeStatusPaid,
		"provider_ref": providerRef,
		"paid_at":      paidAt,
	}
	if len(payload) > 0 && r.schema().hasProviderPayload {
		updates["provider_payload"] = payload
	}
	query := r.db.Model(&models.RechargeOrder{})
	if !r.schema().hasDeletedAt {
		query = query.Unscoped()
	}
	result := query.Where("id = ?", orderID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateOrder 整行更新充值订单，仅用于新库结构。
func (r *GormRechargeRepository) UpdateOrder(order *models.RechargeOrder) error {
	return r.db.Save(order).Error
}

// ListOrders 分页查询充值订单
func (r *GormRechargeRepository) ListOrders(filter RechargeOrderListFilter) ([]models.RechargeOrder, int64, error) {
	base := r.db.Model(&models.RechargeOrder{})
	if !r.schema().hasDeletedAt {
		base = base.Unscoped()
	}
	if filter.UserID != 0 {
		base = base.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		base = base.Where("status = ?", filter.Status)
	}
	if filter.Channel != "" {
		base = base.Where("channel = ?", filter.Channel)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := applyPagination(base.Select(r.orderColumns()), filter.Page, filter.PageSize)

	var orders []models.RechargeOrder
	if err := query.Order("id DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
