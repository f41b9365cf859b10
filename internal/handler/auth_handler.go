// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/varshith1024/mirav-backend/internal/auth"
	"github.com/varshith1024/mirav-backend/internal/metrics"
	"github.com/varshith1024/mirav-backend/internal/middleware"
	"github.com/varshith1024/mirav-backend/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は一般ユーザーを登録しトークンの組を払い出す。
	Register(ctx context.Context, input auth.RegisterInput) (*model.User, *auth.TokenPair, error)
	// Login はメールとパスワードで認証しトークンの組を払い出す。
	Login(ctx context.Context, email, password string) (*model.User, *auth.TokenPair, error)
	// AdminRegister は事前共有キーの提示を条件に特権ユーザーを登録する。
	AdminRegister(ctx context.Context, input auth.AdminRegisterInput) (*model.User, *auth.TokenPair, error)
	// Refresh はリフレッシュトークンを検証し新しいトークンの組を払い出す。
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	// Logout はリフレッシュトークンの台帳行を削除する（冪等）。
	Logout(ctx context.Context, refreshToken string) error
	// CurrentUser は身元情報のユーザーIDで現在のユーザーを取得する。
	CurrentUser(ctx context.Context, userID int64) (*model.User, error)
}

// AuthHandler は認証のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	collector metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。collectorはnil可。
func NewAuthHandler(service AuthServiceInterface, collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{
		service:   service,
		collector: collector,
	}
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID               int64     `json:"id"`
	FullName         string    `json:"fullName"`
	Email            string    `json:"email"`
	ContactNumber    *string   `json:"contactNumber,omitempty"`
	Profession       *string   `json:"profession,omitempty"`
	Category         *string   `json:"category,omitempty"`
	RegistrationCode string    `json:"registrationCode"`
	Role             string    `json:"role"`
	IsVerified       bool      `json:"isVerified"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:               u.ID,
		FullName:         u.FullName,
		Email:            u.Email,
		ContactNumber:    u.ContactNumber,
		Profession:       u.Profession,
		Category:         u.Category,
		RegistrationCode: u.RegistrationCode,
		Role:             u.Role.Name(),
		IsVerified:       u.IsVerified,
		CreatedAt:        u.CreatedAt,
	}
}

// sessionResponse は登録・ログイン成功時のAPIレスポンス。
type sessionResponse struct {
	Message      string       `json:"message,omitempty"`
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type registerRequest struct {
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	ContactNumber string `json:"contactNumber"`
	Profession    string `json:"profession"`
	Category      string `json:"category"`
}

// Register は一般ユーザー登録を処理する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("body"))
		return
	}

	user, pair, err := h.service.Register(r.Context(), auth.RegisterInput{
		FullName:      req.FullName,
		Email:         req.Email,
		Password:      req.Password,
		ContactNumber: req.ContactNumber,
		Profession:    req.Profession,
		Category:      req.Category,
	})
	if err != nil {
		h.recordAuth("register", "failure")
		handleServiceError(w, err)
		return
	}
	h.recordAuth("register", "success")
	h.recordTokens()

	writeJSON(w, http.StatusCreated, sessionResponse{
		User:         toUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login はログインを処理する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("body"))
		return
	}

	user, pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.recordAuth("login", "failure")
		handleServiceError(w, err)
		return
	}
	h.recordAuth("login", "success")
	h.recordTokens()

	writeJSON(w, http.StatusOK, sessionResponse{
		User:         toUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type adminRegisterRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	UserType        string `json:"userType"`
	RegistrationKey string `json:"registrationKey"`
}

// AdminRegister は管理者・病院ユーザー登録を処理する。
// POST /api/auth/admin-register
func (h *AuthHandler) AdminRegister(w http.ResponseWriter, r *http.Request) {
	var req adminRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("body"))
		return
	}

	user, pair, err := h.service.AdminRegister(r.Context(), auth.AdminRegisterInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		UserType:        req.UserType,
		RegistrationKey: req.RegistrationKey,
	})
	if err != nil {
		h.recordAuth("admin_register", "failure")
		handleServiceError(w, err)
		return
	}
	h.recordAuth("admin_register", "success")
	h.recordTokens()

	writeJSON(w, http.StatusCreated, sessionResponse{
		Message:      req.UserType + " registered successfully",
		User:         toUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type refreshRequest struct {
	Token string `json:"token"`
}

// tokenPairResponse はトークン更新成功時のAPIレスポンス。
type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Refresh はトークンの更新（ローテーション）を処理する。
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("body"))
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.Token)
	if err != nil {
		h.recordAuth("refresh", "failure")
		handleServiceError(w, err)
		return
	}
	h.recordAuth("refresh", "success")
	h.recordTokens()

	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout はセッションの失効を処理する。トークンが未指定でも成功を返す。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	// ボディなしのログアウトも受け付ける
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.service.Logout(r.Context(), req.Token); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me は現在のユーザー情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	user, err := h.service.CurrentUser(r.Context(), identity.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]userResponse{"user": toUserResponse(user)})
}

// Protected は認証確認用のエンドポイント。
// GET /api/protected
func (h *AuthHandler) Protected(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "You have accessed a protected route.",
		"user": map[string]any{
			"userId": identity.UserID,
			"role":   identity.Role.Name(),
		},
	})
}

// VerifyEmail はメール検証リンクのプレースホルダー。
// メールプロバイダ連携までは固定メッセージを返す。
// GET /api/auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Email verification is not yet enabled. The account remains usable without it.",
	})
}

func (h *AuthHandler) recordAuth(operation, outcome string) {
	if h.collector != nil {
		h.collector.RecordAuthAttempt(operation, outcome)
	}
}

func (h *AuthHandler) recordTokens() {
	if h.collector != nil {
		h.collector.RecordTokenIssued("access")
		h.collector.RecordTokenIssued("refresh")
	}
}
