package config

import (
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabasePath string

	// Server
	ServerPort  string
	MetricsPort string

	// CORS
	CORSAllowedOrigin string

	// Auth
	AuthDelay time.Duration // サインイン/サインアップで模擬するネットワーク往復の遅延

	// News provider
	NewsProvider string // "mock" または "rss"
	NewsFeeds    string // rssプロバイダーのソース定義（category=url,category=url）
	FetchTimeout time.Duration
	FetchMaxSize int64
	NewsCacheTTL time.Duration

	// Rate Limit
	RateLimitGeneral int
	RateLimitAuth    int
}

// Load は環境変数からConfigを読み込む。
// すべての項目はローカル実行向けのデフォルト値を持つ。
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:      getEnvString("DATABASE_PATH", "newsstand.db"),
		ServerPort:        getEnvString("SERVER_PORT", "8080"),
		MetricsPort:       getEnvString("METRICS_PORT", "9090"),
		CORSAllowedOrigin: getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		AuthDelay:         getEnvDuration("AUTH_DELAY", time.Second),
		NewsProvider:      getEnvString("NEWS_PROVIDER", "mock"),
		NewsFeeds:         getEnvString("NEWS_FEEDS", ""),
		FetchTimeout:      getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchMaxSize:      getEnvInt64("FETCH_MAX_SIZE", 5242880),
		NewsCacheTTL:      getEnvDuration("NEWS_CACHE_TTL", 5*time.Minute),
		RateLimitGeneral:  getEnvInt("RATE_LIMIT_GENERAL", 120),
		RateLimitAuth:     getEnvInt("RATE_LIMIT_AUTH", 10),
	}
	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
