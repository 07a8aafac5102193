package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CertificatesTotal   prometheus.Counter
	UpstreamErrorsTotal *prometheus.CounterVec
	QueriesTotal        prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		CertificatesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "millscan_certificates_processed_total",
			Help: "The total number of certificates processed",
		}),
		UpstreamErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "millscan_upstream_errors_total",
			Help: "The total number of upstream failures",
		}, []string{"stage"}), // 'ocr', 'llm', 'parse'
		QueriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "millscan_queries_answered_total",
			Help: "The total number of document questions answered",
		}),
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "millscan_http_requests_total",
			Help: "The total number of HTTP requests by route and status",
		}, []string{"method", "path", "status"}),
	}
}

// All increment helpers are nil-safe so tests can run without a registry.

func (m *Metrics) IncCertificatesProcessed() {
	if m == nil {
		return
	}
	m.CertificatesTotal.Inc()
}

func (m *Metrics) IncUpstreamError(stage string) {
	if m == nil {
		return
	}
	m.UpstreamErrorsTotal.WithLabelValues(stage).Inc()
}

func (m *Metrics) IncQueriesAnswered() {
	if m == nil {
		return
	}
	m.QueriesTotal.Inc()
}

func (m *Metrics) IncHTTPRequest(method, path, status string) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}
