package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/varshith1024/mirav-backend/internal/model"
)

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader はステータスコードを記録してから委譲する。
func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write はデータを書き込む。WriteHeaderが未呼び出しの場合は200を記録する。
func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// HTTPMetricsRecorder はリクエスト単位のメトリクス記録に必要なインターフェース。
// metrics.MetricsCollectorの部分集合として定義する。
type HTTPMetricsRecorder interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// identityHolder は内側の認証ミドルウェアが確定した身元を、外側の
// ロギングミドルウェアがレスポンス後に観測するための入れ物。
// 認証ミドルウェアが派生コンテキストへ注入する身元は外側へ伝播しないため、
// ポインタ経由で共有する。
type identityHolder struct {
	identity *model.Identity
}

// identityHolderContextKey はidentityHolderをコンテキストに格納するためのキー。
var identityHolderContextKey = contextKey("identityHolder")

// NewLoggingMiddleware はリクエストのJSON構造化ログを出力するミドルウェアを返す。
// ログにはmethod、path、status、duration_ms、user_id（認証済みの場合）を含む。
// recorderが指定された場合はステータスコード別レスポンス数とレイテンシも記録する。
func NewLoggingMiddleware(logger *slog.Logger, recorder HTTPMetricsRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			holder := &identityHolder{}
			ctx := context.WithValue(r.Context(), identityHolderContextKey, holder)

			next.ServeHTTP(rec, r.WithContext(ctx))

			duration := time.Since(start)
			durationMs := float64(duration.Nanoseconds()) / float64(time.Millisecond)

			if recorder != nil {
				recorder.RecordHTTPStatus(rec.statusCode)
				recorder.RecordRequestLatency(duration)
			}

			args := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Float64("duration_ms", durationMs),
			}

			// 認証済みリクエストにはユーザーIDを付与。
			// 身元は内側の認証ミドルウェアがholder経由で引き渡すが、
			// リクエスト時点でコンテキストに載っていた身元も拾う。
			identity := holder.identity
			if identity == nil {
				if id, err := IdentityFromContext(r.Context()); err == nil {
					identity = id
				}
			}
			if identity != nil {
				args = append(args,
					slog.Int64("user_id", identity.UserID),
					slog.String("role", identity.Role.Name()),
				)
			}

			// ステータスコードに応じてログレベルを変える
			level := slog.LevelInfo
			if rec.statusCode >= 500 {
				level = slog.LevelError
			} else if rec.statusCode >= 400 {
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "http_request", args...)
		})
	}
}
