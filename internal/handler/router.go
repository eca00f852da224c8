package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/sealedbid/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRF              middleware.CSRFConfig

	// 運用エンドポイント。nilの場合はルートを登録しない。
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
	StatusRecorder middleware.StatusRecorder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// オークション
	AuctionService AuctionServiceInterface

	// ユーザー
	UserService      UserServiceInterface
	DashboardService DashboardServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → RequestID → Recovery → SecurityHeaders → CORS → Logging → Metrics
//
// 書き込み系のAPIルートには Session → RateLimit(General) → CSRF を追加で適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	auctionHandler := NewAuctionHandler(deps.AuctionService)
	userHandler := NewUserHandler(deps.UserService, deps.DashboardService, deps.AuthConfig)

	// --- 運用エンドポイント ---
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF))

	// --- 認証ルート（IP単位のログインレート制限） ---
	r.Route("/auth", func(r chi.Router) {
		r.Use(deps.RateLimiter.LoginMiddleware())

		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
		r.Post("/wallet/nonce", authHandler.WalletNonce)
	})

	// --- 公開の読み取りルート（ログインしていれば閲覧者として扱う） ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalSessionMiddleware(deps.SessionFinder))

		r.Get("/api/auctions", auctionHandler.ListAuctions)
		r.Get("/api/auctions/{id}", auctionHandler.GetAuction)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General) → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRF))

		r.Post("/api/auctions", auctionHandler.CreateAuction)
		// 入札専用レート制限を追加
		r.With(deps.RateLimiter.BidMiddleware()).Post("/api/auctions/{id}/bids", auctionHandler.PlaceBid)

		r.Route("/api/users/me", func(r chi.Router) {
			r.Get("/", userHandler.GetMe)
			r.Patch("/", userHandler.UpdateMe)
			r.Get("/auctions", userHandler.MyAuctions)
			r.Get("/bids", userHandler.MyBids)
			r.Delete("/sessions", userHandler.RevokeSessions)
		})
	})

	return r
}
