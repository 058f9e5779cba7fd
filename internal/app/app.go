// Package app はアプリケーションの初期化と起動を提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/kenta/newsstand/internal/auth"
	"github.com/kenta/newsstand/internal/config"
	"github.com/kenta/newsstand/internal/database"
	"github.com/kenta/newsstand/internal/favorites"
	"github.com/kenta/newsstand/internal/handler"
	"github.com/kenta/newsstand/internal/logger"
	"github.com/kenta/newsstand/internal/metrics"
	"github.com/kenta/newsstand/internal/middleware"
	"github.com/kenta/newsstand/internal/news"
	"github.com/kenta/newsstand/internal/repository"
	"github.com/kenta/newsstand/internal/security"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	logger.SetupDefault(w)

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
	cmd := ParseCommand(args)

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
		slog.String("database_path", cfg.DatabasePath),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続とマイグレーション
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.RunMigrations(cfg.DatabasePath); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database ready")

	// 2. リポジトリの初期化
	sessionRepo := repository.NewSQLiteSessionRepo(db)
	favoritesRepo := repository.NewSQLiteFavoritesRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. コアサービスの初期化
	// お気に入りストアはセッションのアイデンティティ変更に同期追従する
	registryStore := auth.NewMemoryRegistry()
	sessionService := auth.NewService(sessionRepo, registryStore, auth.ServiceConfig{
		SimulatedDelay: cfg.AuthDelay,
	})
	sessionService.SetRecorder(collector)

	favoritesStore := favorites.NewStore(favoritesRepo)
	favoritesStore.SetRecorder(collector)
	sessionService.Subscribe(favoritesStore.OnIdentityChange)

	// 5. コンテンツプロバイダーの初期化
	provider, err := buildProvider(cfg, collector)
	if err != nil {
		return fmt.Errorf("failed to build news provider: %w", err)
	}

	// 6. 起動時のセッション復元（リスナー登録後に実行すること）
	sessionService.RestoreSession(context.Background())

	// 7. ルーターの構築
	rateLimiterCfg := middleware.RateLimiterConfig{
		GeneralRate:     rateLimitPerSec(cfg.RateLimitGeneral),
		GeneralBurst:    cfg.RateLimitGeneral,
		AuthRate:        rateLimitPerSec(cfg.RateLimitAuth),
		AuthBurst:       cfg.RateLimitAuth,
		CleanupInterval: 5 * time.Minute,
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		SessionService: sessionService,
		Favorites:      favoritesStore,
		Provider:       provider,
	}
	router := handler.NewRouter(deps)

	// 8. メトリクスサーバーを別リスナーで起動
	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metrics.SetupMetricsRoute(registry),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()

	// 9. APIサーバーの起動
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := metricsServer.Shutdown(ctx); err != nil {
		slog.Error("metrics server shutdown failed", slog.String("error", err.Error()))
	}
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildProvider は設定に応じてコンテンツプロバイダーを構築する。
// NEWS_PROVIDER=rss のときはNEWS_FEEDSで登録されたソースを取得源とし、
// それ以外は組み込みのモックコーパスを使用する。
func buildProvider(cfg *config.Config, collector *metrics.Collector) (news.Provider, error) {
	if cfg.NewsProvider != "rss" {
		return news.NewCorpus(), nil
	}

	sources, err := news.ParseSourceList(cfg.NewsFeeds)
	if err != nil {
		return nil, fmt.Errorf("invalid NEWS_FEEDS: %w", err)
	}

	provider := news.NewFeedProvider(
		sources,
		security.NewSSRFGuard(),
		security.NewSanitizer(),
		slog.Default(),
		cfg.FetchTimeout,
		cfg.FetchMaxSize,
		cfg.NewsCacheTTL,
	)
	provider.SetRecorder(collector)
	return provider, nil
}

// rateLimitPerSec はreq/min単位の設定値をreq/sec単位のレートに変換する。
func rateLimitPerSec(perMinute int) rate.Limit {
	return rate.Limit(float64(perMinute) / 60.0)
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_path", cfg.DatabasePath),
	)

	if err := database.RunMigrations(cfg.DatabasePath); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
