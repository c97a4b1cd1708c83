package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUser                string
	DBPassword            string
	DBName                string
	DBHost                string
	DBPort                string
	RedisHost             string
	RedisPort             string
	RedisPassword         string
	BotToken              string
	BotUsername           string
	AdminChatID           int64
	RemnawaveURL          string
	RemnawaveKey          string
	RemnawaveSquadID      string
	CryptoPayToken        string
	CryptoPayTestnet      bool
	CryptoPayAsset        string
	CryptoPayCurrency     string
	WebhookListenAddr     string
	MinimumPayout         int64
	ReferralRewardPercent int
	AllowedWebhookCIDRs   []string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		DBUser:                getEnv("DB_USER", "postgres"),
		DBPassword:            getEnv("DB_PASSWORD", "postgres"),
		DBName:                getEnv("DB_NAME", "voron_bot"),
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                getEnv("DB_PORT", "5432"),
		RedisHost:             getEnv("REDIS_HOST", "localhost"),
		RedisPort:             getEnv("REDIS_PORT", "6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		BotToken:              getEnv("TELEGRAM_BOT_TOKEN", ""),
		BotUsername:           getEnv("TELEGRAM_BOT_USERNAME", "VoronVPNbot"),
		AdminChatID:           getEnvInt64("ADMIN_CHAT_ID", 0),
		RemnawaveURL:          getEnv("REMNAWAVE_API_URL", ""),
		RemnawaveKey:          getEnv("REMNAWAVE_API_KEY", ""),
		RemnawaveSquadID:      getEnv("REMNAWAVE_SQUAD_ID", ""),
		CryptoPayToken:        getEnv("CRYPTOPAY_TOKEN", ""),
		CryptoPayTestnet:      getEnv("CRYPTOPAY_NETWORK", "mainnet") == "testnet",
		CryptoPayAsset:        getEnv("CRYPTOPAY_ASSET", "RUB"),
		CryptoPayCurrency:     getEnv("CRYPTOPAY_CURRENCY_TYPE", "fiat"),
		WebhookListenAddr:     getEnv("WEBHOOK_LISTEN_ADDR", ":8080"),
		MinimumPayout:         getEnvInt64("MINIMUM_PAYOUT", 1000),
		ReferralRewardPercent: int(getEnvInt64("REFERRAL_REWARD_PERCENT", 30)),
		AllowedWebhookCIDRs:   splitList(getEnv("WEBHOOK_ALLOWED_CIDRS", "")),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("Invalid %s value %q, using default %d", key, value, fallback)
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
