package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct public", "203.0.113.7:1234", "", "", "203.0.113.7"},
		{"public ignores forwarded", "203.0.113.7:1234", "1.2.3.4", "", "203.0.113.7"},
		{"trusted proxy forwarded", "10.0.0.2:80", "1.2.3.4, 10.0.0.2", "", "1.2.3.4"},
		{"trusted proxy real ip", "127.0.0.1:80", "", "5.6.7.8", "5.6.7.8"},
		{"trusted proxy garbage", "127.0.0.1:80", "nope", "", "127.0.0.1"},
		{"no port", "198.51.100.1", "", "", "198.51.100.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, d.ExtractClientIP(r))
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector()

	assert.False(t, d.DetectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/api/sales?q=ana", nil)))
	assert.True(t, d.DetectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/.env", nil)))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("User-Agent", "sqlmap/1.0")
	assert.True(t, d.DetectSuspiciousRequest(r))
	assert.True(t, d.DetectSuspiciousRequest(httptest.NewRequest("TRACE", "/", nil)))

	assert.Equal(t, int64(3), d.GetMetrics().SuspiciousRequests)
}

func TestMiddlewarePassesSuspiciousRequests(t *testing.T) {
	d := NewDetector()
	called := false
	h := d.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-admin", nil))

	assert.True(t, called)
	assert.Equal(t, int64(1), d.GetMetrics().SuspiciousRequests)
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	assert.Error(t, d.AddTrustedProxy("bogus"))
	assert.NoError(t, d.AddTrustedProxy("203.0.113.0/24"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:1"
	r.Header.Set("X-Forwarded-For", "9.9.9.9")
	assert.Equal(t, "9.9.9.9", d.ExtractClientIP(r))
}
