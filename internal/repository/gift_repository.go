package repository

import (
	"errors"

	"github.com/lingqian-app/lingqian/internal/models"

	"gorm.io/gorm"
)

// GiftRepository 礼物数据访问接口
type GiftRepository interface {
	GetGiftByID(id uint) (*models.Gift, error)
	ListGifts(onlyActive bool) ([]models.Gift, error)
	CreateRecord(record *models.GiftRecord) error
	ListRecords(filter GiftRecordListFilter) ([]models.GiftRecord, int64, error)
	ListUnsettledRecords(limit int) ([]models.GiftRecord, error)
	MarkRecordsSettled(ids []uint) (int64, error)
	WithTx(tx *gorm.DB) *GormGiftRepository
}

// GormGiftRepository GORM 礼物仓储实现
type GormGiftRepository struct {
	db *gorm.DB
}

// NewGiftRepository 创建礼物仓储
func NewGiftRepository(db *gorm.DB) *GormGiftRepository {
	return &GormGiftRepository{db: db}
}

// WithTx 绑定事务
func (r *GormGiftRepository) WithTx(tx *gorm.DB) *GormGiftRepository {
	if tx == nil {
		return r
	}
	return &GormGiftRepository{db: tx}
}

// GetGiftByID 根据 ID 获取礼物
func (r *GormGiftRepository) GetGiftByID(id uint) (*models.Gift, error) {
	if id == 0 {
		return nil, nil
	}
	var gift models.Gift
	if err := r.db.First(&gift, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &gift, nil
}

// ListGifts 查询礼物列表
func (r *GormGiftRepository) ListGifts(onlyActive bool) ([]models.Gift, error) {
	query := r.db.Model(&models.Gift{})
	if onlyActive {
		query = query.Where("active = ?", true)
	}
	var gifts []models.Gift
	if err := query.Order("price_coins ASC").Find(&gifts).Error; err != nil {
		return nil, err
	}
	return gifts, nil
}

// CreateRecord 写入送礼记录
func (r *GormGiftRepository) CreateRecord(record *models.GiftRecord) error {
	return r.db.Create(record).Error
}

// ListRecords 分页查询送礼记录
func (r *GormGiftRepository) ListRecords(filter GiftRecordListFilter) ([]models.GiftRecord, int64, error) {
	query := r.db.Model(&models.GiftRecord{})
	if filter.SenderID != 0 {
		query = query.Where("sender_id = ?", filter.SenderID)
	}
	if filter.ReceiverID != 0 {
		query = query.Where("receiver_id = ?", filter.ReceiverID)
	}
	if filter.Settled != nil {
		query = query.Where("settled = ?", *filter.Settled)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var records []models.GiftRecord
	if err := query.Order("id DESC").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListUnsettledRecords 按 ID 升序取一批待结算记录
func (r *GormGiftRepository) ListUnsettledRecords(limit int) ([]models.GiftRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var records []models.GiftRecord
	if err := r.db.Where("settled = ?", false).
		Order("id ASC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// MarkRecordsSettled 批量标记结算完成，返回实际更新条数
func (r *GormGiftRepository) MarkRecordsSettled(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.GiftRecord{}).
		Where("id IN ? AND settled = ?", ids, false).
		Update("settled", true)
	return result.RowsAffected, result.Error
}
