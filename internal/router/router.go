package router

import (
	"fmt"
	"strings"

	"github.com/lingqian-app/lingqian/internal/cache"
	"github.com/lingqian-app/lingqian/internal/config"
	adminhandlers "github.com/lingqian-app/lingqian/internal/http/handlers/admin"
	publichandlers "github.com/lingqian-app/lingqian/internal/http/handlers/public"
	"github.com/lingqian-app/lingqian/internal/logger"
	"github.com/lingqian-app/lingqian/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "lq"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "登录尝试过于频繁",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "登录尝试过于频繁",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		apiV1.GET("/public/config", publicHandler.GetSiteConfig)

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("phone")), publicHandler.Login)
		}

		// 支付渠道回调（无鉴权，靠验签保护）
		webhooks := apiV1.Group("/webhooks")
		{
			webhooks.POST("/payment/alipay", publicHandler.AlipayCallback)
			webhooks.POST("/payment/wechat", publicHandler.WechatCallback)
			webhooks.POST("/payment", publicHandler.GenericCallback)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserAuthMiddleware(c.AuthService, c.UserRepo))
		{
			user.GET("/me/wallet", publicHandler.GetWallet)
			user.GET("/me/wallet/transactions", publicHandler.ListWalletTransactions)
			user.POST("/recharge/orders", publicHandler.CreateRechargeOrder)
			user.GET("/recharge/orders", publicHandler.ListRechargeOrders)
			user.GET("/recharge/orders/:out_trade_no", publicHandler.GetRechargeOrder)
			user.GET("/gifts", publicHandler.ListGifts)
			user.POST("/gifts/:id/send", publicHandler.SendGift)
			user.GET("/me/gifts/records", publicHandler.ListGiftRecords)
			user.POST("/ocr/palm", publicHandler.RecognizePalm)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.Login)

			authorized := admin.Use(AdminAuthMiddleware(c.AuthService, c.UserRepo))
			{
				authorized.GET("/users/:id/wallet", adminHandler.GetUserWallet)
				authorized.GET("/users/:id/wallet/transactions", adminHandler.ListUserTransactions)
				authorized.POST("/users/:id/wallet/adjust", adminHandler.AdjustUserWallet)
				authorized.GET("/recharge/orders", adminHandler.ListRechargeOrders)
				authorized.GET("/gifts/records", adminHandler.ListGiftRecords)
				authorized.POST("/settlements/run", adminHandler.RunSettlement)
				authorized.GET("/settings", adminHandler.GetSettings)
				authorized.PUT("/settings", adminHandler.UpdateSettings)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
