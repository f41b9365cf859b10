package middleware

import "net/http"

// NewSecurityHeadersMiddleware は全レスポンスに防御的なHTTPヘッダーを付与する
// ミドルウェアを返す。トークンを含むJSONレスポンスが中間キャッシュや
// ブラウザ履歴に残らないようCache-Control: no-storeを常に設定する。
// ブラウザUIを持たないAPIのため、フレーム埋め込みと各種デバイス権限は全面拒否する。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			next.ServeHTTP(w, r)
		})
	}
}
