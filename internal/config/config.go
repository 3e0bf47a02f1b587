package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"storebot/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	BotToken    string
	BotUsername string
	JWTSecret   string
	JWTTTL      time.Duration

	// Telegram IDs allowed to moderate requests
	AdminTelegramIDs []int64

	// Broadcast targets for operator review
	TopupReviewChatID int64
	OrderReviewChatID int64

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel string
	LogJSON  bool

	// Dashboard rate limits
	APIRateLimit  int
	APIRateWindow int
}

// Load reads configuration from the environment (.env is loaded if present).
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		logger.Fatal("BOT_TOKEN is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	jwtTTL := 24 * time.Hour
	if v := os.Getenv("JWT_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			jwtTTL = time.Duration(n) * time.Hour
		}
	}

	// The bot keeps dialog drafts in Redis; without it every multi-step flow
	// breaks, so a missing address is a startup error rather than a silent
	// fallback to localhost.
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		logger.Fatal("REDIS_ADDR is not set")
	}

	botUsername := os.Getenv("BOT_USERNAME")
	if botUsername == "" {
		botUsername = "TopupStoreBot"
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	var adminIDs []int64
	if s := os.Getenv("ADMIN_TELEGRAM_IDS"); s != "" {
		for _, idStr := range strings.Split(s, ",") {
			idStr = strings.TrimSpace(idStr)
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				adminIDs = append(adminIDs, id)
			}
		}
	}

	topupChat := parseInt64Env("TOPUP_REVIEW_CHAT_ID")
	orderChat := parseInt64Env("ORDER_REVIEW_CHAT_ID")
	if topupChat == 0 || orderChat == 0 {
		logger.Fatal("TOPUP_REVIEW_CHAT_ID and ORDER_REVIEW_CHAT_ID must be set")
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	apiRateLimit := 30
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			apiRateLimit = n
		}
	}
	apiRateWindow := 60
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			apiRateWindow = n
		}
	}

	return &Config{
		AppPort:           port,
		DatabaseURL:       dbURL,
		BotToken:          botToken,
		BotUsername:       botUsername,
		JWTSecret:         jwtSecret,
		JWTTTL:            jwtTTL,
		AdminTelegramIDs:  adminIDs,
		TopupReviewChatID: topupChat,
		OrderReviewChatID: orderChat,
		RedisAddr:         redisAddr,
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           redisDB,
		LogLevel:          os.Getenv("LOG_LEVEL"),
		LogJSON:           os.Getenv("LOG_JSON") == "true",
		APIRateLimit:      apiRateLimit,
		APIRateWindow:     apiRateWindow,
	}
}

func parseInt64Env(key string) int64 {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// IsAdmin reports whether the given Telegram ID belongs to an operator.
func (c *Config) IsAdmin(tgID int64) bool {
	for _, id := range c.AdminTelegramIDs {
		if id == tgID {
			return true
		}
	}
	return false
}
