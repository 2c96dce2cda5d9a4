package httphandler

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"slices"
	"strings"
)

const unknownClientIP = "unknown"

// TrustedProxies lists the peers allowed to report the client address
// through X-Forwarded-For and X-Real-IP. Headers sent by any other peer
// are ignored.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies accepts CIDR prefixes and bare addresses.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	const op = "ParseTrustedProxies"

	tp := make(TrustedProxies, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			tp = append(tp, p.Masked())
			continue
		}

		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		addr = addr.Unmap()
		tp = append(tp, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return tp, nil
}

func (tp TrustedProxies) trusts(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return slices.ContainsFunc(tp, func(p netip.Prefix) bool {
		return p.Contains(addr)
	})
}

// Resolve returns the client address of r.
//
// X-Forwarded-For is walked from the nearest hop, skipping trusted
// proxies; the first untrusted hop is the client. When every hop is
// trusted the farthest one is used.
func (tp TrustedProxies) Resolve(r *http.Request) string {
	peer := remoteHost(r)
	if !tp.trusts(peer) {
		return peer
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) != 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		client := peer
		for _, hop := range slices.Backward(hops) {
			hop = strings.TrimSpace(hop)
			if hop == "" {
				continue
			}
			client = hop
			if !tp.trusts(hop) {
				break
			}
		}
		return client
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return peer
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return unknownClientIP
		}
		return r.RemoteAddr
	}
	return host
}

// ClientIP returns the address stored by [WithClientIP].
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey).(string); ok && v != "" {
		return v
	}
	return unknownClientIP
}

// WithClientIP resolves the client address once per request.
func WithClientIP(tp TrustedProxies) Middleware {
	return func(next http.Handler) http.Handler {
		hf := func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), clientIPKey, tp.Resolve(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hf)
	}
}
