package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// proxyHeaders are consulted in order when the server sits behind a
// trusted reverse proxy. X-Forwarded-For contributes its left-most entry.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// hostOnly strips an optional port from "ip", "ip:port" or "[v6]:port".
func hostOnly(s string) string {
	s = strings.TrimSpace(s)
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return s
}

// ClientIP resolves the caller's address. Forwarding headers are only
// honoured when trustProxy is set; otherwise RemoteAddr is authoritative.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range proxyHeaders {
			v := r.Header.Get(h)
			if i := strings.IndexByte(v, ','); i >= 0 {
				v = v[:i]
			}
			if ip := hostOnly(v); ip != "" {
				return ip
			}
		}
	}
	return hostOnly(r.RemoteAddr)
}

// IPMatcher matches single addresses and CIDR prefixes.
type IPMatcher struct {
	prefixes []netip.Prefix
}

// NewIPMatcher parses list, silently skipping entries that are neither an
// address nor a prefix.
func NewIPMatcher(list []string) *IPMatcher {
	m := &IPMatcher{}
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			a = a.Unmap()
			m.prefixes = append(m.prefixes, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return m
}

func (m *IPMatcher) IsEmpty() bool { return len(m.prefixes) == 0 }

func (m *IPMatcher) Allow(ip string) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range m.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
