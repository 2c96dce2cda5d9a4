package httphandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyRecorder struct {
	keys []string
}

func (l *keyRecorder) Allow(_ context.Context, key string) (domain.RateDecision, error) {
	l.keys = append(l.keys, key)
	return domain.RateDecision{
		Allowed: true, Limit: 10, Remaining: 9, ResetAt: time.Now().Add(time.Minute),
	}, nil
}

func TestParseTrustedProxies(t *testing.T) {
	tp, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 127.0.0.1 ", "::1", "192.168.1.7/16"})
	require.NoError(t, err)
	require.Len(t, tp, 4)
	assert.Equal(t, "192.168.0.0/16", tp[3].String())

	for _, entry := range []string{"nope", "10.0.0.0/33", ""} {
		_, err := ParseTrustedProxies([]string{entry})
		assert.Error(t, err, entry)
	}
}

func TestTrustedProxies_Resolve(t *testing.T) {
	tp, err := ParseTrustedProxies([]string{"10.0.0.0/8", "127.0.0.1"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		proxies    TrustedProxies
		remoteAddr string
		xff        string
		realIP     string
		want       string
	}{
		{
			name:       "UntrustedPeerHeadersIgnored",
			proxies:    tp,
			remoteAddr: "203.0.113.9:5555",
			xff:        "198.51.100.7",
			realIP:     "198.51.100.8",
			want:       "203.0.113.9",
		},
		{
			name:       "NoProxiesConfigured",
			remoteAddr: "192.0.2.1:1234",
			xff:        "198.51.100.7",
			want:       "192.0.2.1",
		},
		{
			name:       "TrustedPeerForwardedFor",
			proxies:    tp,
			remoteAddr: "10.0.0.5:80",
			xff:        "198.51.100.7, 10.0.0.3",
			want:       "198.51.100.7",
		},
		{
			name:       "SpoofedLeftmostHopIgnored",
			proxies:    tp,
			remoteAddr: "10.0.0.5:80",
			xff:        "6.6.6.6, 198.51.100.7",
			want:       "198.51.100.7",
		},
		{
			name:       "EveryHopTrusted",
			proxies:    tp,
			remoteAddr: "10.0.0.5:80",
			xff:        "10.0.0.9, 10.0.0.3",
			want:       "10.0.0.9",
		},
		{
			name:       "TrustedPeerRealIP",
			proxies:    tp,
			remoteAddr: "127.0.0.1:80",
			realIP:     "198.51.100.8",
			want:       "198.51.100.8",
		},
		{
			name:       "TrustedPeerNoHeaders",
			proxies:    tp,
			remoteAddr: "10.0.0.5:80",
			want:       "10.0.0.5",
		},
		{
			name:       "MappedIPv4Peer",
			proxies:    tp,
			remoteAddr: "[::ffff:10.0.0.5]:80",
			xff:        "198.51.100.7",
			want:       "198.51.100.7",
		},
		{
			name: "NoRemoteAddr",
			want: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, tt.proxies.Resolve(r))
		})
	}
}

func TestRateLimit_KeyedByResolvedClient(t *testing.T) {
	limiter := &keyRecorder{}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Chain(ok, WithClientIP(nil), RateLimit(limiter))

	for _, forged := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
		r.RemoteAddr = "203.0.113.9:5555"
		r.Header.Set("X-Forwarded-For", forged)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, []string{"203.0.113.9", "203.0.113.9", "203.0.113.9"}, limiter.keys)
}

func TestClientIP_WithoutMiddleware(t *testing.T) {
	assert.Equal(t, "unknown", ClientIP(context.Background()))
}
