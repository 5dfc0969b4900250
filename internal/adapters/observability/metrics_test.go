package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewgate/internal/adapters/observability"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body, _ := io.ReadAll(rr.Body)
	return string(body)
}

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record one sample per vector so they are exported
	observability.ObserveHTTP("/api/validateReview", "POST", 200, 12*time.Millisecond)
	observability.ObserveExternal("supabase", "auth_user", 0, time.Millisecond)
	observability.ObserveRejection("adminDeleteReview", "unauthorized")

	out := scrape(t, observability.MetricsHandler(reg))
	assert.Contains(t, out, "reviewgate_http_requests_total")
	assert.Contains(t, out, `reviewgate_external_requests_total{endpoint="auth_user",service="supabase",status="0"}`)
	assert.Contains(t, out, `reviewgate_rejections_total{endpoint="adminDeleteReview",reason="unauthorized"}`)
}

func TestNewMetricsServer(t *testing.T) {
	srv := observability.NewMetricsServer(":0", observability.InitRegistry())
	observability.ObserveRejection("validateReview", "bad_request")
	assert.Equal(t, ":0", srv.Addr)
	assert.Contains(t, scrape(t, srv.Handler), "reviewgate_rejections_total")
}
