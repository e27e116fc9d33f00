package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 邮件处理指标
	EmailsIngested     *prometheus.CounterVec
	EmailsProcessed    *prometheus.CounterVec
	ProcessingDuration prometheus.Histogram

	// 回复指标
	ResponsesGenerated prometheus.Counter
	ResponsesSent      prometheus.Counter

	// AI 指标
	AIRequestDuration *prometheus.HistogramVec
	AIFallbacks       *prometheus.CounterVec

	// 存储指标
	StorageFallbacks *prometheus.CounterVec

	// 系统指标
	WebsocketClients prometheus.Gauge
	PanicsTotal      prometheus.Counter
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "triage_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		EmailsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_emails_ingested_total",
				Help: "Total number of emails ingested",
			},
			[]string{"source"},
		),

		EmailsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_emails_processed_total",
				Help: "Total number of emails classified",
			},
			[]string{"status"},
		),

		ProcessingDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "triage_email_processing_duration_seconds",
				Help:    "Email classification duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		ResponsesGenerated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "triage_responses_generated_total",
				Help: "Total number of drafted responses",
			},
		),

		ResponsesSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "triage_responses_sent_total",
				Help: "Total number of sent responses",
			},
		),

		AIRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "triage_ai_request_duration_seconds",
				Help:    "AI completion duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"task"},
		),

		AIFallbacks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_ai_fallbacks_total",
				Help: "Total number of AI calls resolved with default results",
			},
			[]string{"task"},
		),

		StorageFallbacks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_storage_fallbacks_total",
				Help: "Total number of operations served by the standby store",
			},
			[]string{"operation"},
		),

		WebsocketClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "triage_websocket_clients",
				Help: "Number of connected websocket clients",
			},
		),

		PanicsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "triage_panics_total",
				Help: "Total number of recovered panics",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordEmailIngested 记录邮件接收
func (m *Metrics) RecordEmailIngested(source string) {
	m.EmailsIngested.WithLabelValues(source).Inc()
}

// RecordEmailProcessed 记录邮件分类结果
func (m *Metrics) RecordEmailProcessed(status string, duration time.Duration) {
	m.EmailsProcessed.WithLabelValues(status).Inc()
	m.ProcessingDuration.Observe(duration.Seconds())
}

// RecordResponseGenerated 记录草稿生成
func (m *Metrics) RecordResponseGenerated() {
	m.ResponsesGenerated.Inc()
}

// RecordResponseSent 记录回复发送
func (m *Metrics) RecordResponseSent() {
	m.ResponsesSent.Inc()
}

// RecordAIRequest 记录 AI 调用耗时
func (m *Metrics) RecordAIRequest(task string, duration time.Duration) {
	m.AIRequestDuration.WithLabelValues(task).Observe(duration.Seconds())
}

// RecordAIFallback 记录 AI 默认值兜底
func (m *Metrics) RecordAIFallback(task string) {
	m.AIFallbacks.WithLabelValues(task).Inc()
}

// RecordStorageFallback 记录备用存储兜底
func (m *Metrics) RecordStorageFallback(operation string) {
	m.StorageFallbacks.WithLabelValues(operation).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
