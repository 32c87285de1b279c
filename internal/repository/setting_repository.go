package repository

import (
	"errors"
	"strings"

	"github.com/lingqian-app/lingqian/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingRepository 站点配置数据访问接口
type SettingRepository interface {
	Get(key string) (*models.Setting, error)
	Set(key, value string) error
	ListByKeys(keys []string) ([]models.Setting, error)
}

// GormSettingRepository GORM 配置仓储实现
type GormSettingRepository struct {
	db *gorm.DB
}

// NewSettingRepository 创建配置仓储
func NewSettingRepository(db *gorm.DB) *GormSettingRepository {
	return &GormSettingRepository{db: db}
}

// Get 读取单个配置项
func (r *GormSettingRepository) Get(key string) (*models.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var setting models.Setting
	if err := r.db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

// Set 写入配置项，存在则覆盖
func (r *GormSettingRepository) Set(key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("repository: empty setting key")
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
}

// ListByKeys 批量读取配置项
func (r *GormSettingRepository) ListByKeys(keys []string) ([]models.Setting, error) {
	if len(keys) == 0 {
		return []models.Setting{}, nil
	}
	var settings []models.Setting
	if err := r.db.Where("key IN ?", keys).Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}
