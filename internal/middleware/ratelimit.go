package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hitoshi/sealedbid/internal/model"
	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec、ユーザー単位）
	GeneralBurst    int           // API全般のバーストサイズ
	BidRate         rate.Limit    // 入札のレート（req/sec、ユーザー単位）
	BidBurst        int           // 入札のバーストサイズ
	LoginRate       rate.Limit    // ログイン系のレート（req/sec、クライアントIP単位）
	LoginBurst      int           // ログイン系のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 120 req/min/user、入札 30 req/min/user、ログイン 20 req/min/IP。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfigPerMinute(120, 30, 20)
}

// RateLimiterConfigPerMinute は1分あたりのリクエスト数から設定を組み立てる。
// バーストサイズは1分あたりの上限と同じにする。
func RateLimiterConfigPerMinute(general, bid, login int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(general) / 60.0),
		GeneralBurst:    general,
		BidRate:         rate.Limit(float64(bid) / 60.0),
		BidBurst:        bid,
		LoginRate:       rate.Limit(float64(login) / 60.0),
		LoginBurst:      login,
		CleanupInterval: 5 * time.Minute,
	}
}

// keyedLimiter はキー（ユーザーIDまたはIP）ごとのリミッターと最終アクセス時刻を保持する。
type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterSet は同じレートを共有するキー単位のリミッター群。
type limiterSet struct {
	name    string
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	entries map[string]*keyedLimiter
}

func newLimiterSet(name string, limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{
		name:    name,
		limit:   limit,
		burst:   burst,
		entries: make(map[string]*keyedLimiter),
	}
}

// get はキーのリミッターを取得し、なければ作成する。
func (s *limiterSet) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.lastAccess = now
		return e.limiter
	}
	l := rate.NewLimiter(s.limit, s.burst)
	s.entries[key] = &keyedLimiter{limiter: l, lastAccess: now}
	return l
}

// prune は最終アクセスからttlを超えたエントリを削除する。
func (s *limiterSet) prune(now time.Time, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if now.Sub(e.lastAccess) > ttl {
			delete(s.entries, key)
		}
	}
}

func (s *limiterSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RateLimiter はAPI全般・入札・ログインの3種類のレート制限を管理する。
// 各制限は独立しており、入札リクエストはAPI全般と入札の両方を消費する。
type RateLimiter struct {
	config  RateLimiterConfig
	general *limiterSet
	bid     *limiterSet
	login   *limiterSet

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		general: newLimiterSet("general", config.GeneralRate, config.GeneralBurst),
		bid:     newLimiterSet("bid", config.BidRate, config.BidBurst),
		login:   newLimiterSet("login", config.LoginRate, config.LoginBurst),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。複数回呼んでもよい。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
// SessionMiddlewareの後に配置する。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return rl.userMiddleware(rl.general)
}

// BidMiddleware は入札専用のレート制限ミドルウェアを返す。
// SessionMiddlewareの後に配置する。
func (rl *RateLimiter) BidMiddleware() func(next http.Handler) http.Handler {
	return rl.userMiddleware(rl.bid)
}

// LoginMiddleware はログイン・nonce発行のレート制限ミドルウェアを返す。
// 未認証のリクエストが対象のため、クライアントIPをキーとする。
func (rl *RateLimiter) LoginMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !rl.login.get(ip, time.Now()).Allow() {
				slog.Warn("rate limit exceeded",
					slog.String("client_ip", ip),
					slog.String("limit_type", rl.login.name),
				)
				writeRateLimitResponse(w, rl.login.limit)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) userMiddleware(set *limiterSet) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				WriteAPIError(w, model.NewUnauthorizedError("ログインが必要です。"))
				return
			}

			if !set.get(userID, time.Now()).Allow() {
				slog.Warn("rate limit exceeded",
					slog.String("user_id", userID),
					slog.String("limit_type", set.name),
				)
				writeRateLimitResponse(w, set.limit)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
func (rl *RateLimiter) GeneralLimiterCount() int { return rl.general.len() }

// BidLimiterCount は現在管理されている入札リミッターのエントリ数を返す。
func (rl *RateLimiter) BidLimiterCount() int { return rl.bid.len() }

// LoginLimiterCount は現在管理されているログインリミッターのエントリ数を返す。
func (rl *RateLimiter) LoginLimiterCount() int { return rl.login.len() }

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup(now time.Time) {
	ttl := rl.config.CleanupInterval * 2
	rl.general.prune(now, ttl)
	rl.bid.prune(now, ttl)
	rl.login.prune(now, ttl)
}

// clientIP はリクエスト元のIPを返す。
// プロキシ配下ではchiのRealIPミドルウェアがRemoteAddrを書き換えている前提。
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが1つ補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := 1
	if r > 0 {
		retryAfterSec = int(math.Ceil(1.0 / float64(r)))
		if retryAfterSec < 1 {
			retryAfterSec = 1
		}
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	WriteAPIError(w, model.NewRateLimitedError())
}
