package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestInitConfigDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("STORAGE", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("RATE_LIMIT_RPS", "")
	t.Setenv("RATE_LIMIT_BURST", "")
	t.Setenv("ADMIN_CHAT_ID", "")

	cfg, err := InitConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HttpAddr != ":8080" {
		t.Errorf("HttpAddr = %q", cfg.HttpAddr)
	}
	if cfg.Storage != STORAGE_MEMORY {
		t.Errorf("Storage = %q", cfg.Storage)
	}
	if cfg.JwtTTL != 72*time.Hour {
		t.Errorf("JwtTTL = %v", cfg.JwtTTL)
	}
	if cfg.RateLimitRPS != 10 || cfg.RateLimitBurst != 20 {
		t.Errorf("rate limit = %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestInitConfigParsesValues(t *testing.T) {
	t.Setenv("STORAGE", STORAGE_POSTGRES)
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("RATE_LIMIT_BURST", "bad")
	t.Setenv("ADMIN_CHAT_ID", "-100123")

	cfg, err := InitConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage != STORAGE_POSTGRES {
		t.Errorf("Storage = %q", cfg.Storage)
	}
	if cfg.JwtTTL != time.Hour {
		t.Errorf("JwtTTL = %v", cfg.JwtTTL)
	}
	if cfg.RateLimitBurst != 20 {
		t.Errorf("invalid burst should fall back to default, got %d", cfg.RateLimitBurst)
	}
	if cfg.AdminChatId != -100123 {
		t.Errorf("AdminChatId = %d", cfg.AdminChatId)
	}
}

func TestSetLogLevelUpdatesExistingLoggers(t *testing.T) {
	l := InitLogger()
	SetLogLevel("debug")
	defer SetLogLevel("info")

	if l.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v", l.GetLevel())
	}
	SetLogLevel("nonsense")
	if l.GetLevel() != logrus.DebugLevel {
		t.Errorf("unknown level must be ignored, got %v", l.GetLevel())
	}
}
