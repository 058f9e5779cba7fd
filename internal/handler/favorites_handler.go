package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kenta/newsstand/internal/middleware"
	"github.com/kenta/newsstand/internal/model"
)

// FavoritesStoreInterface はお気に入りハンドラーが必要とするストアインターフェース。
type FavoritesStoreInterface interface {
	Add(ctx context.Context, article model.Article)
	Remove(ctx context.Context, articleID string)
	IsFavorite(articleID string) bool
	List() []model.Article
	IsLoading() bool
}

// FavoritesHandler はお気に入り管理のHTTPハンドラー。
// 全ルートは認証ミドルウェアの内側に配置される。
type FavoritesHandler struct {
	store FavoritesStoreInterface
}

// NewFavoritesHandler はFavoritesHandlerを生成する。
func NewFavoritesHandler(store FavoritesStoreInterface) *FavoritesHandler {
	return &FavoritesHandler{store: store}
}

// List はお気に入り集合を挿入順で返す。
// GET /api/favorites
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"favorites": h.store.List(),
		"isLoading": h.store.IsLoading(),
	})
}

// Add は記事スナップショットをお気に入りに追加する。冪等。
// POST /api/favorites
func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	var article model.Article
	if err := json.NewDecoder(r.Body).Decode(&article); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONのパースに失敗しました"))
		return
	}
	if article.ID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("記事IDは必須です"))
		return
	}

	h.store.Add(r.Context(), article)
	w.WriteHeader(http.StatusNoContent)
}

// Remove は指定IDの記事をお気に入りから除去する。冪等。
// DELETE /api/favorites/{id}
func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "id")
	if articleID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("記事IDは必須です"))
		return
	}

	h.store.Remove(r.Context(), articleID)
	w.WriteHeader(http.StatusNoContent)
}

// Check は指定IDの記事がお気に入りに含まれるかを返す。
// GET /api/favorites/{id}
func (h *FavoritesHandler) Check(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "id")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{
		"favorite": h.store.IsFavorite(articleID),
	})
}
