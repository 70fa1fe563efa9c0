package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordInteraction(t *testing.T) {
	m := New()

	m.RecordInteraction("copy", "executed", 5*time.Millisecond)
	m.RecordInteraction("copy", "executed", 5*time.Millisecond)
	m.RecordInteraction("like", "blocked_needs_auth", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InteractionsTotal.WithLabelValues("copy", "executed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InteractionsTotal.WithLabelValues("like", "blocked_needs_auth")))
}

func TestNilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordInteraction("copy", "executed", time.Millisecond)
		m.RecordEvent("prompt_viewed")
		m.SetSSEClients(3)
	})
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/prompts/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/prompts/prompt-abc", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/prompts/{id}", "418")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.RecordEvent("search_performed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `heyprompt_events_total{event="search_performed"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
