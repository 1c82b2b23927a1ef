package api

import (
	"taskhub/internal/api/middleware"
	v1 "taskhub/internal/api/v1"
	"taskhub/internal/services"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	AdminApiKey    string
	RateLimitRPS   float64
	RateLimitBurst int
	HealthChecks   map[string]v1.HealthCheck
}

type Services struct {
	Auth          *services.AuthService
	Users         *services.UserService
	Ledger        *services.LedgerService
	Referrals     *services.ReferralService
	Crawl         *services.CrawlService
	Tasks         *services.TaskService
	Vip           *services.VipService
	LoginRewards  *services.LoginRewardService
	Notifications *services.NotificationService
	Recharges     *services.RechargeService
	Withdrawals   *services.WithdrawalService
	Activities    *services.ActivityService
	Settings      *services.SettingsService
	Wallets       *services.WalletService
	Telegram      *services.TelegramService
}

func NewRouter(cfg RouterConfig, s *Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	v1.RegisterSystemRoutes(router, cfg.HealthChecks)

	api := router.Group("/api/v1", middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	v1.RegisterAuthRoutes(api, s.Users, s.Auth)
	v1.RegisterPublicContentRoutes(api, s.Settings, s.Vip)

	user := api.Group("", middleware.JWTAuth(s.Auth))
	v1.RegisterAccountRoutes(user, s.Users, s.Ledger, s.Referrals, s.Telegram, s.Vip)
	v1.RegisterTaskRoutes(user, s.Tasks, s.Crawl, s.LoginRewards, s.Vip)
	v1.RegisterFinanceRoutes(user, s.Wallets, s.Recharges, s.Withdrawals)
	v1.RegisterContentRoutes(user, s.Activities, s.Notifications)

	admin := api.Group("/admin", middleware.AdminKey(cfg.AdminApiKey))
	v1.RegisterAdminRoutes(admin, v1.AdminServices{
		Users:       s.Users,
		Ledger:      s.Ledger,
		Referrals:   s.Referrals,
		Vip:         s.Vip,
		Crawl:       s.Crawl,
		Recharges:   s.Recharges,
		Withdrawals: s.Withdrawals,
		Activities:  s.Activities,
		Notices:     s.Notifications,
		Settings:    s.Settings,
		Wallets:     s.Wallets,
	})

	return router
}
