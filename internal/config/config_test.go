package config

import (
	"testing"
	"time"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/storebot_test")
	t.Setenv("BOT_TOKEN", "12345:token")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_TTL_HOURS", "12")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("ADMIN_TELEGRAM_IDS", "10, 20,30")
	t.Setenv("TOPUP_REVIEW_CHAT_ID", "-1001")
	t.Setenv("ORDER_REVIEW_CHAT_ID", "-1002")

	cfg := Load()

	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q, want localhost:6379", cfg.RedisAddr)
	}
	if cfg.JWTTTL != 12*time.Hour {
		t.Errorf("JWTTTL = %s, want 12h", cfg.JWTTTL)
	}
	if len(cfg.AdminTelegramIDs) != 3 || cfg.AdminTelegramIDs[1] != 20 {
		t.Errorf("AdminTelegramIDs = %v, want [10 20 30]", cfg.AdminTelegramIDs)
	}
	if cfg.TopupReviewChatID != -1001 || cfg.OrderReviewChatID != -1002 {
		t.Errorf("review chats = %d/%d", cfg.TopupReviewChatID, cfg.OrderReviewChatID)
	}
	if !cfg.IsAdmin(20) || cfg.IsAdmin(99) {
		t.Error("IsAdmin misreads the operator list")
	}
}
