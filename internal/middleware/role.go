package middleware

import (
	"net/http"

	"github.com/varshith1024/mirav-backend/internal/model"
)

// NewRoleMiddleware は指定ロールを要求するミドルウェアを返す。
// 管理者ロールはすべてのロールチェックをバイパスする。
// 認証ミドルウェアの後に配置すること。
func NewRoleMiddleware(required model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := IdentityFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
				return
			}

			if identity.Role != required && identity.Role != model.RoleAdmin {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
