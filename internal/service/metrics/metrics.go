package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the integrations service.
type Metrics struct {
	// OAuth flow metrics
	AuthorizationsStartedTotal prometheus.Counter
	TokenExchangesTotal        *prometheus.CounterVec
	StateLookupsTotal          *prometheus.CounterVec
	CredentialsConsumedTotal   *prometheus.CounterVec

	// Upstream provider metrics
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec
	ItemsNormalizedTotal    *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics *Metrics

func init() {
	DefaultMetrics = NewMetrics()
}

// NewMetrics creates and registers all metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// OAuth flow metrics
		AuthorizationsStartedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "integrations",
				Subsystem: "oauth",
				Name:      "authorizations_started_total",
				Help:      "Total number of authorization flows started",
			},
		),
		TokenExchangesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "integrations",
				Subsystem: "oauth",
				Name:      "token_exchanges_total",
				Help:      "Total number of authorization code exchanges",
			},
			[]string{"result"},
		),
		StateLookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "integrations",
				Subsystem: "oauth",
				Name:      "state_lookups_total",
				Help:      "Total number of state token lookups",
			},
			[]string{"result"},
		),
		CredentialsConsumedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "integrations",
				Subsystem: "credentials",
				Name:      "consumed_total",
				Help:      "Total number of credential pickup attempts",
			},
			[]string{"result"},
		),

		// Upstream provider metrics
		UpstreamRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "integrations",
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Total number of requests to the provider API",
			},
			[]string{"endpoint", "status"},
		),
		UpstreamRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "integrations",
				Subsystem: "upstream",
				Name:      "request_duration_seconds",
				Help:      "Provider API request duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint"},
		),
		ItemsNormalizedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "integrations",
				Subsystem: "upstream",
				Name:      "items_normalized_total",
				Help:      "Total number of provider records normalized",
			},
			[]string{"item_type"},
		),

		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "integrations",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "integrations",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// RecordTokenExchange records the outcome of an authorization code exchange.
func (m *Metrics) RecordTokenExchange(success bool) {
	m.TokenExchangesTotal.WithLabelValues(resultLabel(success)).Inc()
}

// RecordStateLookup records the outcome of a state token lookup.
func (m *Metrics) RecordStateLookup(success bool) {
	m.StateLookupsTotal.WithLabelValues(resultLabel(success)).Inc()
}

// RecordCredentialsConsumed records a credential pickup attempt.
func (m *Metrics) RecordCredentialsConsumed(success bool) {
	m.CredentialsConsumedTotal.WithLabelValues(resultLabel(success)).Inc()
}

// RecordUpstreamRequest records a request to the provider API.
func (m *Metrics) RecordUpstreamRequest(endpoint, status string, durationSeconds float64) {
	m.UpstreamRequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordItemsNormalized adds to the count of normalized provider records.
func (m *Metrics) RecordItemsNormalized(itemType string, count int) {
	m.ItemsNormalizedTotal.WithLabelValues(itemType).Add(float64(count))
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
