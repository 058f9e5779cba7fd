// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kenta/newsstand/internal/middleware"
	"github.com/kenta/newsstand/internal/model"
)

// SessionServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type SessionServiceInterface interface {
	Session() model.Session
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, name, email, password string) error
	SignOut(ctx context.Context)
	UpdatePreferences(ctx context.Context, prefs model.Preferences)
}

// sessionResponse はセッション状態のレスポンスフォーマット。
type sessionResponse struct {
	User            *model.User `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
	IsLoading       bool        `json:"isLoading"`
	Error           string      `json:"error,omitempty"`
}

// AuthHandler はセッション管理関連のHTTPハンドラー。
type AuthHandler struct {
	service SessionServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service SessionServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn は認証情報を照合してセッションを確立する。
// POST /auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONのパースに失敗しました"))
		return
	}
	if req.Email == "" || req.Password == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("emailとpasswordは必須です"))
		return
	}

	if err := h.service.SignIn(r.Context(), req.Email, req.Password); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			middleware.WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
			return
		}
		slog.Error("sign-in failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	h.writeSession(w)
}

// SignUp は新規アカウントを作成しセッションを確立する。
// POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONのパースに失敗しました"))
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("name、email、passwordは必須です"))
		return
	}

	if err := h.service.SignUp(r.Context(), req.Name, req.Email, req.Password); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			middleware.WriteErrorResponse(w, http.StatusConflict, apiErr)
			return
		}
		slog.Error("sign-up failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	h.writeSession(w)
}

// SignOut はセッションを破棄する。冪等。
// POST /auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.service.SignOut(r.Context())
	h.writeSession(w)
}

// GetSession は現在のセッション状態を返す。
// GET /auth/session
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.writeSession(w)
}

// UpdatePreferences は現在のユーザーの嗜好設定を置き換える。
// PUT /auth/preferences
func (h *AuthHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs model.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONのパースに失敗しました"))
		return
	}

	if !h.service.Session().IsAuthenticated {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	h.service.UpdatePreferences(r.Context(), prefs)
	h.writeSession(w)
}

// writeSession は現在のセッション状態をJSONで書き込む。
func (h *AuthHandler) writeSession(w http.ResponseWriter) {
	session := h.service.Session()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessionResponse{
		User:            session.User,
		IsAuthenticated: session.IsAuthenticated,
		IsLoading:       session.IsLoading,
		Error:           session.Error,
	})
}
