// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordAuthAttempt(operation string, outcome string)
	RecordTokenIssued(tokenType string)
	RecordFormSubmission(form string)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus     *prometheus.CounterVec
	authAttempts   *prometheus.CounterVec
	tokensIssued   *prometheus.CounterVec
	formSubmits    *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mirav_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mirav_auth_attempts_total",
			Help: "認証操作の試行数（操作・結果別）",
		}, []string{"operation", "outcome"}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mirav_tokens_issued_total",
			Help: "発行されたトークンの合計数（種別別）",
		}, []string{"type"}),
		formSubmits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mirav_form_submissions_total",
			Help: "受け付けたフォーム送信の合計数（フォーム別）",
		}, []string{"form"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mirav_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.authAttempts,
		c.tokensIssued,
		c.formSubmits,
		c.requestLatency,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordAuthAttempt は認証操作の試行を記録する。
// operationはregister/login/admin_register/refresh、outcomeはsuccess/failure。
func (c *Collector) RecordAuthAttempt(operation string, outcome string) {
	c.authAttempts.WithLabelValues(operation, outcome).Inc()
}

// RecordTokenIssued はトークン発行を記録する。typeはaccess/refresh。
func (c *Collector) RecordTokenIssued(tokenType string) {
	c.tokensIssued.WithLabelValues(tokenType).Inc()
}

// RecordFormSubmission はフォーム送信の受け付けを記録する。formはbeneficiary/volunteer。
func (c *Collector) RecordFormSubmission(form string) {
	c.formSubmits.WithLabelValues(form).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
