package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL       string
	DBMaxOpenConns    int
	DBConnectAttempts int

	// Session
	SessionMaxAge int

	// Rate Limit（1分あたりのリクエスト数）
	RateLimitGeneral int
	RateLimitBid     int
	RateLimitLogin   int

	// Wallet
	WalletChainID       int64
	WalletNonceRequired bool
	WalletNonceTTL      time.Duration
	WalletSignInURI     string

	// Worker
	CleanupInterval time.Duration

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.DBMaxOpenConns = envOr("DB_MAX_OPEN_CONNS", 20, strconv.Atoi)
	cfg.DBConnectAttempts = envOr("DB_CONNECT_ATTEMPTS", 5, strconv.Atoi)
	cfg.SessionMaxAge = envOr("SESSION_MAX_AGE", 86400, strconv.Atoi)
	cfg.RateLimitGeneral = envOr("RATE_LIMIT_GENERAL", 120, strconv.Atoi)
	cfg.RateLimitBid = envOr("RATE_LIMIT_BID", 30, strconv.Atoi)
	cfg.RateLimitLogin = envOr("RATE_LIMIT_LOGIN", 20, strconv.Atoi)
	cfg.WalletChainID = envOr("WALLET_CHAIN_ID", int64(1), parseInt64)
	cfg.WalletNonceRequired = envOr("WALLET_NONCE_REQUIRED", false, strconv.ParseBool)
	cfg.WalletNonceTTL = envOr("WALLET_NONCE_TTL", 10*time.Minute, time.ParseDuration)
	cfg.CleanupInterval = envOr("CLEANUP_INTERVAL", time.Hour, time.ParseDuration)
	cfg.ServerPort = envOr("SERVER_PORT", "8080", parseString)
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = os.Getenv("COOKIE_DOMAIN")
	cfg.CORSAllowedOrigin = envOr("CORS_ALLOWED_ORIGIN", "http://localhost:3000", parseString)
	// 署名メッセージのURIは既定でフロントエンドのオリジン（複数指定時は先頭）とする
	primaryOrigin, _, _ := strings.Cut(cfg.CORSAllowedOrigin, ",")
	cfg.WalletSignInURI = envOr("WALLET_SIGNIN_URI", strings.TrimSpace(primaryOrigin), parseString)

	return cfg, nil
}

// envOr は環境変数をparseで変換して返す。未設定または変換に失敗した場合はdefaultValを返す。
func envOr[T any](key string, defaultVal T, parse func(string) (T, error)) T {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parsed, err := parse(v)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func parseString(s string) (string, error) { return s, nil }

func parseInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }
