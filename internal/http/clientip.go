package http

import (
	"net"
	"net/http"
	"strings"
)

// privateNetworks may set X-Forwarded-For and X-Real-IP.
var privateNetworks = mustCIDRs("127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "::1/128")

func mustCIDRs(cidrs ...string) []*net.IPNet {
	out := make([]*net.IPNet, len(cidrs))
	for i, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("invalid trusted proxy CIDR " + cidr + ": " + err.Error())
		}
		out[i] = network
	}
	return out
}

func fromPrivateNetwork(ip net.IP) bool {
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP returns the peer address, or the forwarded client address when
// the peer is a proxy on a private network. It keys rate limiting and
// access logs.
func clientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	ip := net.ParseIP(peer)
	if ip == nil || !fromPrivateNetwork(ip) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if forwarded := strings.TrimSpace(first); net.ParseIP(forwarded) != nil {
			return forwarded
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return peer
}
