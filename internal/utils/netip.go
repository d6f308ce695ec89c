package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// HostOnly strips the port from "host:port" or "[v6]:port". Values without a
// port are returned trimmed.
func HostOnly(s string) string {
	s = strings.TrimSpace(s)
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return strings.Trim(s, "[]")
}

// proxyHeaders are consulted in order when the proxy is trusted.
// X-Forwarded-For contributes its left-most entry.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// ClientIP returns the caller address used for rate limiting, access logs and
// admin guards. Forwarding headers are honored only with trustProxy, and a
// header value that is not an IP address is skipped rather than trusted.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range proxyHeaders {
			v, _, _ := strings.Cut(r.Header.Get(h), ",")
			if addr, ok := parseAddr(v); ok {
				return addr.String()
			}
		}
	}
	if addr, ok := parseAddr(r.RemoteAddr); ok {
		return addr.String()
	}
	return HostOnly(r.RemoteAddr)
}

func parseAddr(s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(HostOnly(s))
	if err != nil {
		return netip.Addr{}, false
	}
	// IPv4-mapped IPv6 must match IPv4 rules.
	return addr.Unmap().WithZone(""), true
}

// IPMatcher allows addresses that fall in any configured prefix. A bare
// address is a single-address prefix.
type IPMatcher struct {
	prefixes []netip.Prefix
	invalid  []string
}

func NewIPMatcher(rules []string) *IPMatcher {
	m := &IPMatcher{}
	for _, raw := range rules {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if addr, ok := parseAddr(s); ok {
			m.prefixes = append(m.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		m.invalid = append(m.invalid, s)
	}
	return m
}

func (m *IPMatcher) IsEmpty() bool { return len(m.prefixes) == 0 }

// Invalid lists the rules that were neither a CIDR nor an address.
func (m *IPMatcher) Invalid() []string { return m.invalid }

func (m *IPMatcher) Allow(ip string) bool {
	addr, ok := parseAddr(ip)
	if !ok {
		return false
	}
	for _, p := range m.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
