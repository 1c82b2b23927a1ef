package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	STORAGE_MEMORY   = "memory"
	STORAGE_POSTGRES = "postgres"
)

var log = InitLogger()

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type AppConfig struct {
	HttpAddr          string
	Storage           string
	RedisUrl          string
	TelegramToken     string
	JwtSecret         string
	JwtTTL            time.Duration
	AdminApiKey       string
	AdminChatId       int64
	RateLimitRPS      float64
	RateLimitBurst    int
	ReconcileCron     string
	PendingDigestCron string
	Postgres          *PostgresConfig
}

func InitConfig() (*AppConfig, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warn("Error loading .env file, using process environment")
	}

	SetLogLevel(os.Getenv("LOG_LEVEL"))

	cfg := &AppConfig{
		HttpAddr:          getEnv("HTTP_ADDR", ":8080"),
		Storage:           getEnv("STORAGE", STORAGE_MEMORY),
		RedisUrl:          os.Getenv("REDIS_URL"),
		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		JwtSecret:         getEnv("JWT_SECRET", "change-me"),
		AdminApiKey:       os.Getenv("ADMIN_API_KEY"),
		ReconcileCron:     getEnv("RECONCILE_CRON", "0 3 * * *"),
		PendingDigestCron: getEnv("PENDING_DIGEST_CRON", "*/30 * * * *"),
		Postgres:          LoadPostgresConfig(),
	}

	cfg.JwtTTL, err = time.ParseDuration(getEnv("JWT_TTL", "72h"))
	if err != nil {
		log.Error("Error parsing JWT_TTL: ", err)
		cfg.JwtTTL = 72 * time.Hour
	}

	cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64)
	if err != nil {
		log.Error("Error parsing RATE_LIMIT_RPS: ", err)
		cfg.RateLimitRPS = 10
	}

	cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "20"))
	if err != nil {
		log.Error("Error parsing RATE_LIMIT_BURST: ", err)
		cfg.RateLimitBurst = 20
	}

	if v := os.Getenv("ADMIN_CHAT_ID"); v != "" {
		cfg.AdminChatId, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Error("Error parsing ADMIN_CHAT_ID: ", err)
			cfg.AdminChatId = 0
		}
	}

	return cfg, nil
}

func LoadPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		DBName:   os.Getenv("DB_NAME"),
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
