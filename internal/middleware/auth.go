// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/varshith1024/mirav-backend/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに検証済み身元を格納するためのキー。
var identityContextKey = contextKey("identity")

// AccessTokenVerifier はアクセストークンの検証に必要なインターフェース。
// token.Serviceの部分集合として定義する。
type AccessTokenVerifier interface {
	VerifyAccessToken(tokenString string) (*model.Identity, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 身元情報をリクエストコンテキストに注入するミドルウェアを返す。
// ヘッダー欠落・形式不正・署名不正・期限切れはいずれも401で応答する。
func NewAuthMiddleware(verifier AccessTokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. AuthorizationヘッダーからBearerトークンを取り出す
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
				return
			}

			// 2. 署名と期限を検証する（台帳は参照しない）
			identity, err := verifier.VerifyAccessToken(tokenString)
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
				return
			}

			// 3. 検証済み身元をコンテキストに注入する
			ctx := context.WithValue(r.Context(), identityContextKey, identity)

			// 外側のロギングミドルウェアへも身元を引き渡す
			if holder, ok := r.Context().Value(identityHolderContextKey).(*identityHolder); ok {
				holder.identity = identity
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken はAuthorizationヘッダー値からトークン本体を取り出す。
// スキーム名の大文字小文字は区別しない。
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// IdentityFromContext はリクエストコンテキストから検証済み身元を取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (*model.Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok || identity == nil {
		return nil, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

// ContextWithIdentity はコンテキストに身元情報を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
