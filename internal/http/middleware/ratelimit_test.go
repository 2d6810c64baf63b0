package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitRejectsAfterBurst(t *testing.T) {
	h := RateLimit(0.001, 2)(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/personalize", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/personalize", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitKeyedBySession(t *testing.T) {
	// Two sessions behind the same address get independent buckets.
	h := RateLimit(0.001, 1)(okHandler())

	reqA := httptest.NewRequest(http.MethodPost, "/v1/personalize", nil)
	reqA.Header.Set(SessionHeader, "sess-a")
	reqB := httptest.NewRequest(http.MethodPost, "/v1/personalize", nil)
	reqB.Header.Set(SessionHeader, "sess-b")

	recA := httptest.NewRecorder()
	h.ServeHTTP(recA, reqA)
	assert.Equal(t, http.StatusOK, recA.Code)

	recB := httptest.NewRecorder()
	h.ServeHTTP(recB, reqB)
	assert.Equal(t, http.StatusOK, recB.Code)

	// The same session is throttled once its bucket drains.
	reqA2 := httptest.NewRequest(http.MethodPost, "/v1/personalize", nil)
	reqA2.Header.Set(SessionHeader, "sess-a")
	recA2 := httptest.NewRecorder()
	h.ServeHTTP(recA2, reqA2)
	assert.Equal(t, http.StatusTooManyRequests, recA2.Code)
}

func TestLimitKeyPrecedence(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "ip:10.0.0.1:1234", limitKey(r))

	r.Header.Set("X-Real-Ip", "203.0.113.7")
	assert.Equal(t, "ip:203.0.113.7", limitKey(r))

	r.Header.Set(SessionHeader, "sess-1")
	assert.Equal(t, "session:sess-1", limitKey(r))
}
