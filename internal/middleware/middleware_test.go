package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ragdemo/docchat/internal/config"
	"github.com/stretchr/testify/assert"
)

func traceEcho(w http.ResponseWriter, r *http.Request) {
	trace, _ := r.Context().Value(config.TRACE_ID_KEY).(string)
	_, _ = w.Write([]byte(trace))
}

func TestWrap_KeepsIncomingTrace(t *testing.T) {
	chain := NewChain(0, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/check_documents", nil)
	req.Header.Set("X-Trace-Id", "trace-123")
	rec := httptest.NewRecorder()
	chain.Wrap(traceEcho)(rec, req)

	assert.Equal(t, "trace-123", rec.Body.String())
	assert.Equal(t, "trace-123", rec.Header().Get("X-Trace-Id"))
}

func TestWrap_GeneratesTrace(t *testing.T) {
	chain := NewChain(0, 0)

	rec := httptest.NewRecorder()
	chain.Wrap(traceEcho)(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, rec.Body.String())
	assert.Equal(t, rec.Body.String(), rec.Header().Get("X-Trace-Id"))
}

func TestWrap_RateLimiterDisabledByDefault(t *testing.T) {
	chain := NewChain(config.RATE_LIMIT_PER_SECOND, config.BURST_RATE_LIMIT_PER_SECOND)
	handler := chain.Wrap(func(w http.ResponseWriter, r *http.Request) {})

	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestWrap_RateLimiterRejectsBurst(t *testing.T) {
	chain := NewChain(1, 2)
	handler := chain.Wrap(func(w http.ResponseWriter, r *http.Request) {})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		handler(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	handler(other, req)
	assert.Equal(t, http.StatusOK, other.Code, "limits are per client ip")
}
