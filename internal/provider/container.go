package provider

import (
	"github.com/lingqian-app/lingqian/internal/cache"
	"github.com/lingqian-app/lingqian/internal/config"
	"github.com/lingqian-app/lingqian/internal/logger"
	"github.com/lingqian-app/lingqian/internal/models"
	"github.com/lingqian-app/lingqian/internal/payment/alipay"
	"github.com/lingqian-app/lingqian/internal/payment/wechatpay"
	"github.com/lingqian-app/lingqian/internal/queue"
	"github.com/lingqian-app/lingqian/internal/repository"
	"github.com/lingqian-app/lingqian/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo     repository.UserRepository
	WalletRepo   repository.WalletRepository
	RechargeRepo repository.RechargeRepository
	GiftRepo     repository.GiftRepository
	SettingRepo  repository.SettingRepository

	// Services
	AuthService       *service.AuthService
	WalletService     *service.WalletService
	RechargeService   *service.RechargeService
	SettlementService *service.SettlementService
	SettingService    *service.SettingService
	OCRService        *service.OCRService

	// 支付渠道客户端，配置不全时为 nil，回调入口需判空
	AlipayClient    *alipay.Client
	WechatpayClient *wechatpay.Client
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()
	c.initPaymentClients()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.RechargeRepo = repository.NewRechargeRepository(db)
	c.GiftRepo = repository.NewGiftRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.UserRepo)
	c.WalletService = service.NewWalletService(c.WalletRepo, c.UserRepo, c.GiftRepo)
	c.RechargeService = service.NewRechargeService(
		c.RechargeRepo,
		c.WalletRepo,
		c.UserRepo,
		c.QueueClient,
		c.Config.Payment.EnableMock,
	)
	c.SettlementService = service.NewSettlementService(
		c.GiftRepo,
		c.WalletRepo,
		c.Config.Settlement.BatchSize,
	)
	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.OCRService = service.NewOCRService(c.Config.OCR)
}

func (c *Container) initPaymentClients() {
	if c.Config.Alipay.AppID != "" {
		client, err := alipay.NewClient(alipay.Config{
			AppID:           c.Config.Alipay.AppID,
			PrivateKey:      c.Config.Alipay.PrivateKey,
			AlipayPublicKey: c.Config.Alipay.PublicKey,
			Env:             c.Config.Alipay.Env,
			SignType:        c.Config.Alipay.SignType,
			NotifyURL:       c.Config.Alipay.NotifyURL,
		})
		if err != nil {
			logger.Errorw("provider_init_alipay_failed", "error", err)
		} else {
			c.AlipayClient = client
		}
	}
	if c.Config.Wechatpay.MerchantID != "" {
		client, err := wechatpay.NewClient(wechatpay.Config{
			AppID:              c.Config.Wechatpay.AppID,
			MerchantID:         c.Config.Wechatpay.MerchantID,
			MerchantSerialNo:   c.Config.Wechatpay.MerchantSerialNo,
			MerchantPrivateKey: c.Config.Wechatpay.MerchantPrivateKey,
			APIV3Key:           c.Config.Wechatpay.APIV3Key,
			NotifyURL:          c.Config.Wechatpay.NotifyURL,
		})
		if err != nil {
			logger.Errorw("provider_init_wechatpay_failed", "error", err)
		} else {
			c.WechatpayClient = client
		}
	}
}
