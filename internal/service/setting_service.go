package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lingqian-app/lingqian/internal/cache"
	"github.com/lingqian-app/lingqian/internal/repository"
)

// 站点配置键。public 前缀的键可以不鉴权读取。
const (
	SettingSiteName         = "site_name"
	SettingSiteAnnouncement = "site_announcement"
	SettingContactWechat    = "contact_wechat"
	SettingRechargeNotice   = "recharge_notice"
)

var publicSettingKeys = []string{
	SettingSiteName,
	SettingSiteAnnouncement,
	SettingContactWechat,
	SettingRechargeNotice,
}

var writableSettingKeys = map[string]struct{}{
	SettingSiteName:         {},
	SettingSiteAnnouncement: {},
	SettingContactWechat:    {},
	SettingRechargeNotice:   {},
}

// ErrSettingKeyInvalid 不在白名单内的配置键
var ErrSettingKeyInvalid = errors.New("配置项不存在")

const (
	publicSettingsCacheKey = "settings:public"
	publicSettingsCacheTTL = 5 * time.Minute
)

// SettingService 站点配置服务
type SettingService struct {
	settingRepo repository.SettingRepository
}

// NewSettingService 创建配置服务
func NewSettingService(settingRepo repository.SettingRepository) *SettingService {
	return &SettingService{settingRepo: settingRepo}
}

// GetPublicSettings 读取可公开的站点配置，带缓存
func (s *SettingService) GetPublicSettings() (map[string]string, error) {
	ctx := context.Background()
	cached := map[string]string{}
	if hit, err := cache.GetJSON(ctx, publicSettingsCacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	settings, err := s.settingRepo.ListByKeys(publicSettingKeys)
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(publicSettingKeys))
	for _, key := range publicSettingKeys {
		result[key] = ""
	}
	for _, setting := range settings {
		result[setting.Key] = setting.Value
	}
	_ = cache.SetJSON(ctx, publicSettingsCacheKey, result, publicSettingsCacheTTL)
	return result, nil
}

// UpdateSettings 批量更新配置，键必须在白名单内
func (s *SettingService) UpdateSettings(values map[string]string) error {
	for key := range values {
		if _, ok := writableSettingKeys[strings.TrimSpace(key)]; !ok {
			return ErrSettingKeyInvalid
		}
	}
	for key, value := range values {
		if err := s.settingRepo.Set(strings.TrimSpace(key), value); err != nil {
			return err
		}
	}
	_ = cache.Del(context.Background(), publicSettingsCacheKey)
	return nil
}
