package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kenta/newsstand/internal/middleware"
	"github.com/kenta/newsstand/internal/news"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// サービス層
	SessionService SessionServiceInterface
	Favorites      FavoritesStoreInterface
	Provider       news.Provider
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS → RateLimit(General)
//
// サインイン/サインアップには認証専用のレート制限を追加で適用する。
// お気に入りとレコメンデーションは認証ミドルウェアの内側に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.SessionService)
	favoritesHandler := NewFavoritesHandler(deps.Favorites)
	newsHandler := NewNewsHandler(deps.Provider, deps.SessionService)

	// ヘルスチェック（レート制限の外）
	r.Get("/health", healthHandler)

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// セッション管理
		r.Route("/auth", func(r chi.Router) {
			// サインイン/サインアップはブルートフォース防止の専用レート制限を追加
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/signin", authHandler.SignIn)
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/signup", authHandler.SignUp)

			r.Post("/signout", authHandler.SignOut)
			r.Get("/session", authHandler.GetSession)
			r.Put("/preferences", authHandler.UpdatePreferences)
		})

		// ニュース記事（認証不要）
		r.Route("/api/news", func(r chi.Router) {
			r.Get("/headlines", newsHandler.Headlines)
			r.Get("/search", newsHandler.Search)
			r.Get("/category/{category}", newsHandler.ByCategory)

			// レコメンデーションは嗜好設定を参照するため認証が必要
			r.With(middleware.NewAuthMiddleware(deps.SessionService)).
				Get("/recommended", newsHandler.Recommended)
		})

		// お気に入り管理（認証必須）
		r.Route("/api/favorites", func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.SessionService))

			r.Get("/", favoritesHandler.List)
			r.Post("/", favoritesHandler.Add)
			r.Get("/{id}", favoritesHandler.Check)
			r.Delete("/{id}", favoritesHandler.Remove)
		})
	})

	return r
}

// healthHandler は稼働確認用のエンドポイント。
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
