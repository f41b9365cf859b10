package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/varshith1024/mirav-backend/internal/metrics"
	"github.com/varshith1024/mirav-backend/internal/middleware"
	"github.com/varshith1024/mirav-backend/internal/model"
)

// Pinger はヘルスチェックに必要なデータストア疎通確認のインターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.AccessTokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// サービス
	AuthService        AuthServiceInterface
	BeneficiaryService BeneficiaryServiceInterface
	VolunteerService   VolunteerServiceInterface

	// 運用系
	DB             Pinger
	MetricsHandler http.Handler
	Collector      metrics.MetricsCollector
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → (保護ルートのみ: Auth → RateLimit → Role)
//
// 公開フォームと認証エンドポイントは認証チェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Collector))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Collector)
	beneficiaryHandler := NewBeneficiaryHandler(deps.BeneficiaryService, deps.Collector)
	volunteerHandler := NewVolunteerHandler(deps.VolunteerService, deps.Collector)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
		r.Get("/verify-email", authHandler.VerifyEmail)
		r.Post("/admin-register", authHandler.AdminRegister)
	})

	// 公開フォーム
	r.Post("/api/beneficiaries/submit", beneficiaryHandler.Submit)
	r.Post("/api/volunteers/submit-volunteer", volunteerHandler.Submit)
	r.Get("/api/volunteers/id-card/{volunteerId}", volunteerHandler.IDCard)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		r.Get("/api/auth/me", authHandler.Me)
		r.Get("/api/protected", authHandler.Protected)

		// ロール制限ルート（管理者は常に通過）
		r.With(middleware.NewRoleMiddleware(model.RoleHospital)).
			Get("/api/beneficiaries", beneficiaryHandler.List)
		r.With(middleware.NewRoleMiddleware(model.RoleAdmin)).
			Get("/api/volunteers", volunteerHandler.List)
	})

	return r
}

// healthHandler はデータストアの疎通を確認するヘルスチェックハンドラーを返す。
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				slog.Warn("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
