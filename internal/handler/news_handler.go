package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kenta/newsstand/internal/middleware"
	"github.com/kenta/newsstand/internal/model"
	"github.com/kenta/newsstand/internal/news"
)

// SessionSnapshotter は現在のセッション状態の読み取りインターフェース。
// レコメンデーションで現在のユーザーの嗜好設定を参照するために使用する。
type SessionSnapshotter interface {
	Session() model.Session
}

// NewsHandler はニュース記事取得のHTTPハンドラー。
type NewsHandler struct {
	provider news.Provider
	sessions SessionSnapshotter
}

// NewNewsHandler はNewsHandlerを生成する。
func NewNewsHandler(provider news.Provider, sessions SessionSnapshotter) *NewsHandler {
	return &NewsHandler{
		provider: provider,
		sessions: sessions,
	}
}

// Headlines はトップ見出しを返す。categoryクエリで絞り込み可能。
// GET /api/news/headlines?category=
func (h *NewsHandler) Headlines(w http.ResponseWriter, r *http.Request) {
	articles, err := h.provider.Headlines(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeProviderError(w, err)
		return
	}
	writeArticles(w, articles)
}

// Search はクエリに合致する記事を返す。
// GET /api/news/search?q=
func (h *NewsHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("クエリパラメータqは必須です"))
		return
	}

	articles, err := h.provider.Search(r.Context(), query)
	if err != nil {
		writeProviderError(w, err)
		return
	}
	writeArticles(w, articles)
}

// ByCategory は指定カテゴリの記事を返す。
// GET /api/news/category/{category}
func (h *NewsHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if category == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("カテゴリは必須です"))
		return
	}

	articles, err := h.provider.ByCategory(r.Context(), category)
	if err != nil {
		writeProviderError(w, err)
		return
	}
	writeArticles(w, articles)
}

// Recommended は現在のユーザーの嗜好設定に基づくレコメンデーションを返す。
// 認証ミドルウェアの内側に配置される。
// GET /api/news/recommended
func (h *NewsHandler) Recommended(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Session()
	if session.User == nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	articles, err := h.provider.Recommended(r.Context(), session.User.Preferences.Terms())
	if err != nil {
		writeProviderError(w, err)
		return
	}
	writeArticles(w, articles)
}

// writeArticles は記事リストをJSONで書き込む。nilスライスは空配列に正規化する。
func writeArticles(w http.ResponseWriter, articles []model.Article) {
	if articles == nil {
		articles = []model.Article{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"articles": articles,
	})
}

// writeProviderError はプロバイダーエラーを統一フォーマットで書き込む。
func writeProviderError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, http.StatusBadGateway, apiErr)
		return
	}
	slog.Error("provider query failed", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}
