package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL     string
	Location        *time.Location
	HTTPAddr        string
	PublicBaseURL   string // origin, который кодируется в QR
	LogLevel        string
	Env             string // dev|prod
	SentryDSN       string
	Release         string
	JWTSecret       string
	JWTIssuer       string
	SessionTTL      time.Duration
	BotToken        string // пусто — бот и алерты в Telegram выключены
	StaffChatIDs    []int64
	PrefsBackend    string // memory|redis
	RedisAddr       string
	RecentLimit     int
	RefreshInterval time.Duration
}

func Load() (*Config, error) {
	tz := getenv("TZ", "Asia/Jakarta")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	chatIDs, err := parseIDs(os.Getenv("STAFF_CHAT_IDS"))
	if err != nil {
		return nil, fmt.Errorf("STAFF_CHAT_IDS: %w", err)
	}

	cfg := &Config{
		DatabaseURL:     mustEnv("DATABASE_URL"),
		Location:        loc,
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		PublicBaseURL:   strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		Env:             getenv("ENV", "dev"),
		SentryDSN:       os.Getenv("SENTRY_DSN"),
		Release:         getenv("RELEASE", "dev"),
		JWTSecret:       mustEnv("JWT_SECRET"),
		JWTIssuer:       getenv("JWT_ISSUER", "lapor-jamkos"),
		SessionTTL:      durationEnv("SESSION_TTL", 12*time.Hour),
		BotToken:        os.Getenv("BOT_TOKEN"),
		StaffChatIDs:    chatIDs,
		PrefsBackend:    getenv("PREFS_BACKEND", "memory"),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		RecentLimit:     intEnv("RECENT_LIMIT", 4),
		RefreshInterval: durationEnv("REFRESH_INTERVAL", time.Minute),
	}
	if cfg.PrefsBackend != "memory" && cfg.PrefsBackend != "redis" {
		return nil, fmt.Errorf("PREFS_BACKEND: unknown backend %q", cfg.PrefsBackend)
	}
	return cfg, nil
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("required env " + k + " is empty")
	}
	return v
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func durationEnv(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("invalid duration for %s: %q, using %s", k, v, def)
		return def
	}
	return d
}

func intEnv(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("invalid int for %s: %q, using %d", k, v, def)
		return def
	}
	return n
}

func parseIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}
