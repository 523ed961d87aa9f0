package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ConnectionOpened()
		m.ConnectionClosed()
		m.EventHandled("chatMessage", "ok", time.Millisecond)
		m.Delivery("newMessage", "offline")
		m.LivenessTermination()
		m.HTTPRequest("GET", "/healthz", 200, time.Millisecond)
	})
}

func TestCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connections))

	m.EventHandled("chatMessage", "ok", time.Millisecond)
	m.EventHandled("chatMessage", "ok", time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsTotal.WithLabelValues("chatMessage", "ok")))

	m.LivenessTermination()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.livenessTerminations))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Delivery("newMessage", "delivered")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `talkio_ws_deliveries_total{event="newMessage",outcome="delivered"} 1`)
}
