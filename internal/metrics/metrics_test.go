package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forgo/kinship/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue gathers the registry and returns the value of the counter
// sample with exactly the given labels
func counterValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if len(metric.GetLabel()) != len(labels) {
				continue
			}
			match := true
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					match = false
					break
				}
			}
			if match {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMiddleware_LabelsByPattern(t *testing.T) {
	t.Parallel()
	m := New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/events/{eventId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := m.Middleware(mux)

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	got := counterValue(t, m, "kinship_http_requests_total", map[string]string{
		"method": "GET", "route": "/api/events/{eventId}", "status": "404",
	})
	assert.Equal(t, float64(3), got)
}

func TestMiddleware_Unmatched(t *testing.T) {
	t.Parallel()
	m := New()

	h := m.Middleware(http.NewServeMux())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	got := counterValue(t, m, "kinship_http_requests_total", map[string]string{
		"method": "GET", "route": "unmatched", "status": "404",
	})
	assert.Equal(t, float64(1), got)
}

func TestRecordDelivery(t *testing.T) {
	t.Parallel()
	m := New()

	m.RecordDelivery(model.ChannelEmail, "sent")
	m.RecordDelivery(model.ChannelEmail, "sent")
	m.RecordDelivery(model.ChannelSMS, "failed")

	name := "kinship_broadcast_deliveries_total"
	assert.Equal(t, float64(2), counterValue(t, m, name, map[string]string{"channel": "email", "outcome": "sent"}))
	assert.Equal(t, float64(1), counterValue(t, m, name, map[string]string{"channel": "sms", "outcome": "failed"}))
}

func TestRecordJobRun(t *testing.T) {
	t.Parallel()
	m := New()

	m.RecordJobRun("event_completion", 20*time.Millisecond, true)
	m.RecordJobRun("", time.Millisecond, false)

	name := "kinship_jobs_runs_total"
	assert.Equal(t, float64(1), counterValue(t, m, name, map[string]string{"job": "event_completion", "success": "true"}))
	assert.Equal(t, float64(1), counterValue(t, m, name, map[string]string{"job": "unknown", "success": "false"}))
}

func TestHandler_Exposition(t *testing.T) {
	t.Parallel()
	m := New()
	m.RecordDelivery(model.ChannelInbox, "sent")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `kinship_broadcast_deliveries_total{channel="inbox",outcome="sent"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
