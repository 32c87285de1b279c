package main

import (
	"github.com/lingqian-app/lingqian/internal/config"
	"github.com/lingqian-app/lingqian/internal/constants"
	"github.com/lingqian-app/lingqian/internal/logger"
	"github.com/lingqian-app/lingqian/internal/models"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库连接失败: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 礼物目录
	gifts := []models.Gift{
		{Name: "莲花灯", PriceCoins: 10, Active: true},
		{Name: "平安符", PriceCoins: 50, Active: true},
		{Name: "开运锦鲤", PriceCoins: 100, Active: true},
		{Name: "紫气东来", PriceCoins: 520, Active: true},
		{Name: "鸿运当头", PriceCoins: 1314, Active: true},
	}
	for _, gift := range gifts {
		var existing models.Gift
		if err := models.DB.Where("name = ?", gift.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&gift).Error; err != nil {
				stdLog.Printf("创建礼物失败 %s: %v", gift.Name, err)
			} else {
				stdLog.Printf("创建礼物: %s (%d 灵币)", gift.Name, gift.PriceCoins)
			}
		} else {
			stdLog.Printf("礼物已存在: %s", gift.Name)
		}
	}

	// 演示账号：一个普通用户和一个占卜师
	demoUsers := []struct {
		phone    string
		nickname string
		role     string
	}{
		{"13900000001", "测试用户", constants.UserRoleMember},
		{"13900000002", "玄清道长", constants.UserRoleDiviner},
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("demo123456"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("生成演示密码失败: %v", err)
	}
	for _, demo := range demoUsers {
		var existing models.User
		if err := models.DB.Where("phone = ?", demo.phone).First(&existing).Error; err != nil {
			user := models.User{
				Phone:        demo.phone,
				Nickname:     demo.nickname,
				PasswordHash: string(hash),
				Role:         demo.role,
				Status:       constants.UserStatusActive,
			}
			if err := models.DB.Create(&user).Error; err != nil {
				stdLog.Printf("创建演示账号失败 %s: %v", demo.phone, err)
				continue
			}
			profile := models.Profile{UserID: user.ID, CoinFree: 100, YiCoins: 100}
			if err := models.DB.Create(&profile).Error; err != nil {
				stdLog.Printf("创建演示钱包失败 %s: %v", demo.phone, err)
			}
			stdLog.Printf("创建演示账号: %s (%s)", demo.phone, demo.nickname)
		} else {
			stdLog.Printf("演示账号已存在: %s", demo.phone)
		}
	}

	stdLog.Println("数据初始化完成")
}
