package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/sealedbid/internal/auction"
	"github.com/hitoshi/sealedbid/internal/auth"
	"github.com/hitoshi/sealedbid/internal/config"
	"github.com/hitoshi/sealedbid/internal/database"
	"github.com/hitoshi/sealedbid/internal/handler"
	"github.com/hitoshi/sealedbid/internal/logger"
	"github.com/hitoshi/sealedbid/internal/metrics"
	"github.com/hitoshi/sealedbid/internal/middleware"
	"github.com/hitoshi/sealedbid/internal/repository"
	"github.com/hitoshi/sealedbid/internal/security"
	"github.com/hitoshi/sealedbid/internal/user"
	"github.com/hitoshi/sealedbid/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd, rest := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg, rest)
	default:
		return runServe(cfg)
	}
}

// openDB はDB接続を開き、疎通できるまで待機する。
func openDB(cfg *config.Config) (*sql.DB, error) {
	pool := database.DefaultPoolConfig()
	if cfg.DBMaxOpenConns > 0 {
		pool.MaxOpenConns = cfg.DBMaxOpenConns
	}

	db, err := database.Open(cfg.DatabaseURL, pool)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := database.WaitReady(ctx, db, cfg.DBConnectAttempts); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("database connection established")
	return db, nil
}

// newRegistry はGoランタイムとプロセスのメトリクスを含むレジストリを生成する。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	nonceRepo := repository.NewPostgresNonceRepo(db)
	auctionRepo := repository.NewPostgresAuctionRepo(db)
	bidRepo := repository.NewPostgresBidRepo(db)

	// 3. メトリクスとサニタイザ
	reg := newRegistry()
	collector := metrics.NewCollector(reg)
	sanitizer := security.NewTextSanitizer()

	// 4. ドメインサービスの初期化
	authService := auth.NewService(
		userRepo, sessionRepo, nonceRepo,
		auth.ServiceConfig{
			SessionMaxAge: cfg.SessionMaxAge,
			ChainID:       cfg.WalletChainID,
			NonceTTL:      cfg.WalletNonceTTL,
		},
		auth.WithAuthorizer(auth.StrategyEmail, auth.NewEmailAuthorizer(userRepo)),
		auth.WithAuthorizer(auth.StrategyWallet, auth.NewWalletAuthorizer(userRepo, nonceRepo, auth.WalletConfig{
			RequireNonce: cfg.WalletNonceRequired,
			ChainID:      cfg.WalletChainID,
		})),
		auth.WithAuthRecorder(collector),
	)

	auctionService := auction.NewService(
		auctionRepo, bidRepo,
		auction.WithEventRecorder(collector),
		auction.WithSanitizer(sanitizer),
	)

	userService := user.NewService(userRepo, sessionRepo, sanitizer)

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfigPerMinute(
		cfg.RateLimitGeneral, cfg.RateLimitBid, cfg.RateLimitLogin,
	))
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		SessionFinder:     sessionRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRF: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(reg),
		StatusRecorder: collector,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
			SignInURI:     cfg.WalletSignInURI,
		},

		AuctionService:   auctionService,
		UserService:      userService,
		DashboardService: auctionService,
	})

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、期限切れセッションとnonceのクリーンアップジョブを定期実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	collector := metrics.NewCollector(newRegistry())
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default(), collector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cfg.CleanupInterval),
	)

	// キャンセルされるまでブロックする
	cleanupJob.Start(ctx, cfg.CleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// 引数なしは未適用マイグレーションをすべて適用し、"down"は直近の1つを取り消す。
func runMigrate(cfg *config.Config, args []string) error {
	direction, err := ParseMigrateDirection(args)
	if err != nil {
		return err
	}

	slog.Info("running database migrations",
		slog.String("direction", string(direction)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	migrateFn := database.RunMigrations
	if direction == MigrateDown {
		migrateFn = database.RollbackMigration
	}
	st, err := migrateFn(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(st.Version)),
		slog.Bool("dirty", st.Dirty),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
