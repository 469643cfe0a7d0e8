package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	// Note: We can't actually create new metrics in each test because
	// Prometheus will complain about duplicate registration.
	// So we just test the default instance.

	require.NotNil(t, DefaultMetrics)
	assert.NotNil(t, DefaultMetrics.AuthorizationsStartedTotal)
	assert.NotNil(t, DefaultMetrics.TokenExchangesTotal)
	assert.NotNil(t, DefaultMetrics.StateLookupsTotal)
	assert.NotNil(t, DefaultMetrics.CredentialsConsumedTotal)
	assert.NotNil(t, DefaultMetrics.UpstreamRequestsTotal)
	assert.NotNil(t, DefaultMetrics.UpstreamRequestDuration)
	assert.NotNil(t, DefaultMetrics.ItemsNormalizedTotal)
	assert.NotNil(t, DefaultMetrics.HTTPRequestsTotal)
	assert.NotNil(t, DefaultMetrics.HTTPRequestDuration)
}

func TestMetrics_Recorders(t *testing.T) {
	// Should not panic
	DefaultMetrics.AuthorizationsStartedTotal.Inc()
	DefaultMetrics.RecordTokenExchange(true)
	DefaultMetrics.RecordTokenExchange(false)
	DefaultMetrics.RecordStateLookup(true)
	DefaultMetrics.RecordStateLookup(false)
	DefaultMetrics.RecordCredentialsConsumed(true)
	DefaultMetrics.RecordCredentialsConsumed(false)
	DefaultMetrics.RecordUpstreamRequest("contacts", "200", 0.12)
	DefaultMetrics.RecordItemsNormalized("Contact", 3)
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	handler := HTTPMetricsMiddleware(DefaultMetrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/integrations/hubspot/load", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func BenchmarkRecordTokenExchange(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DefaultMetrics.RecordTokenExchange(true)
	}
}

func BenchmarkRecordUpstreamRequest(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DefaultMetrics.RecordUpstreamRequest("contacts", "200", 0.05)
	}
}
