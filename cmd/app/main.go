package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskhub/internal/api"
	v1 "taskhub/internal/api/v1"
	"taskhub/internal/config"
	"taskhub/internal/database"
	"taskhub/internal/repositories"
	"taskhub/internal/schedulers"
	"taskhub/internal/services"
	"taskhub/internal/tgbot"

	"github.com/gin-gonic/gin"
)

const (
	REDIS_KEY_PREFIX = "taskhub:"
	shutdownTimeout  = 10 * time.Second
)

var log = config.InitLogger()

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to init config: %v", err)
	}
	log.Infoln("Config initialized")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	checks := map[string]v1.HealthCheck{}

	store, closeStore := openStore(cfg, checks)
	defer closeStore()
	kv, closeKv := openKeyValue(cfg, checks)
	defer closeKv()

	if err := services.Bootstrap(ctx, store, nil); err != nil {
		log.Fatalf("Failed to bootstrap catalogues: %v", err)
	}

	auth := services.NewAuthService(cfg.JwtSecret, cfg.JwtTTL, nil)
	notices := services.NewNotificationService(store, nil)
	svc := &api.Services{
		Auth:          auth,
		Users:         services.NewUserService(store, auth, nil),
		Ledger:        services.NewLedgerService(store),
		Referrals:     services.NewReferralService(store),
		Crawl:         services.NewCrawlService(store, nil),
		Tasks:         services.NewTaskService(store, nil),
		Vip:           services.NewVipService(store, nil),
		LoginRewards:  services.NewLoginRewardService(store, nil),
		Notifications: notices,
		Recharges:     services.NewRechargeService(store, notices, nil),
		Withdrawals:   services.NewWithdrawalService(store, auth, notices, nil),
		Activities:    services.NewActivityService(store, nil),
		Settings:      services.NewSettingsService(store, kv),
		Wallets:       services.NewWalletService(store),
		Telegram:      services.NewTelegramService(store, kv, nil),
	}

	var admin schedulers.AdminNotifier
	if cfg.TelegramToken != "" {
		bot, err := tgbot.NewTgBot(cfg.TelegramToken, cfg.AdminChatId, tgbot.Services{
			Users:     svc.Users,
			Telegram:  svc.Telegram,
			Tasks:     svc.Tasks,
			Rewards:   svc.LoginRewards,
			Referrals: svc.Referrals,
			Ledger:    svc.Ledger,
		})
		if err != nil {
			log.Fatalf("Failed to start bot: %v", err)
		}
		notices.SetNotifier(bot)
		admin = bot
		go bot.Start(ctx)
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN is empty, bot disabled")
	}

	cron := schedulers.NewScheduler(
		schedulers.Job{
			Name: "ledger.reconcile",
			Spec: cfg.ReconcileCron,
			Run:  schedulers.ReconcileLedger(svc.Ledger),
		},
		schedulers.Job{
			Name: "requests.pending_digest",
			Spec: cfg.PendingDigestCron,
			Run:  schedulers.PendingDigest(svc.Recharges, svc.Withdrawals, svc.Activities, admin),
		},
	)
	cron.Start()
	defer schedulers.Stop(cron)

	if cfg.AdminApiKey == "" {
		log.Warn("ADMIN_API_KEY is empty, admin routes are closed")
	}
	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.RouterConfig{
		AdminApiKey:    cfg.AdminApiKey,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		HealthChecks:   checks,
	}, svc)

	server := &http.Server{
		Addr:              cfg.HttpAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infoln("HTTP server listening on ", cfg.HttpAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed: ", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Infoln("Shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown: ", err)
	}
}

func openStore(cfg *config.AppConfig, checks map[string]v1.HealthCheck) (repositories.Store, func()) {
	if cfg.Storage != config.STORAGE_POSTGRES {
		log.Warn("Using in-memory storage, data is lost on restart")
		return repositories.NewMemoryStore(), func() {}
	}

	psql, err := database.NewPostgres(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to database")
	}
	if err := psql.Ping(); err != nil {
		log.Fatal("Failed to ping database")
	}
	if err := database.Migrate(psql); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Infoln("Database initialized")

	checks["postgres"] = func(c *gin.Context) error {
		return psql.Db.PingContext(c.Request.Context())
	}
	return repositories.NewPostgresStore(psql.Db), func() {
		_ = psql.Close()
	}
}

func openKeyValue(cfg *config.AppConfig, checks map[string]v1.HealthCheck) (repositories.KeyValue, func()) {
	if cfg.RedisUrl == "" {
		return repositories.NewMemoryKeyValue(nil), func() {}
	}

	cli, err := database.InitRedisCli(cfg.RedisUrl)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	log.Infoln("Redis initialized")

	checks["redis"] = func(c *gin.Context) error {
		return cli.Ping(c.Request.Context()).Err()
	}
	return repositories.NewRedisKeyValue(cli, REDIS_KEY_PREFIX), func() {
		_ = cli.Close()
	}
}
