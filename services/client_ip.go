package services

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"
)

// RequestInfo is the part of an HTTP request tracking needs. It is copied out
// of the request so it can outlive the handler.
type RequestInfo struct {
	Header     http.Header
	RemoteAddr string
	UserAgent  string
	Referer    string
}

func RequestInfoFrom(r *http.Request) RequestInfo {
	return RequestInfo{
		Header:     r.Header.Clone(),
		RemoteAddr: r.RemoteAddr,
		UserAgent:  r.UserAgent(),
		Referer:    r.Referer(),
	}
}

// Checked in order; the first header yielding a public address wins.
var clientIPHeaders = []string{
	"CF-Connecting-IP",
	"Client-IP",
	"X-Forwarded-For",
	"X-Forwarded",
	"X-Cluster-Client-IP",
	"Forwarded-For",
	"Forwarded",
}

var DefaultPublicIPServices = []string{
	"https://api.ipify.org",
	"https://icanhazip.com",
	"https://ifconfig.me/ip",
	"https://ipecho.net/plain",
}

var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("2001:db8::/32"),
}

// IsPublicIP reports whether s is a routable address outside private and
// reserved ranges.
func IsPublicIP(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	if addr.IsPrivate() || addr.IsLoopback() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() ||
		addr.IsMulticast() || addr.IsInterfaceLocalMulticast() {
		return false
	}
	for _, p := range reservedPrefixes {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

// IsLocalIP reports whether s is loopback, private or otherwise non-public.
// Unparseable input counts as local.
func IsLocalIP(s string) bool {
	return !IsPublicIP(s)
}

func isLoopback(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Unmap().IsLoopback()
}

// firstHeaderAddress extracts the first hop of a header value: the first
// comma-separated element, without "for=", quotes, brackets or port.
func firstHeaderAddress(value string) string {
	first := strings.TrimSpace(strings.SplitN(value, ",", 2)[0])
	if first == "" {
		return ""
	}
	// RFC 7239: for=192.0.2.60;proto=http
	for _, part := range strings.Split(first, ";") {
		part = strings.TrimSpace(part)
		if len(part) > 4 && strings.EqualFold(part[:4], "for=") {
			first = part[4:]
			break
		}
	}
	first = strings.Trim(first, `"`)
	return stripPort(first)
}

func stripPort(s string) string {
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().String()
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if addr, err := netip.ParseAddr(s); err == nil {
		return addr.String()
	}
	return s
}

// HeaderClientIP walks the proxy headers in priority order and falls back to
// the connection address when none carries a public IP.
func HeaderClientIP(h http.Header, remoteAddr string) string {
	for _, name := range clientIPHeaders {
		v := h.Get(name)
		if v == "" {
			continue
		}
		if ip := firstHeaderAddress(v); IsPublicIP(ip) {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	return stripPort(strings.TrimSpace(host))
}

type ClientIPResolver struct {
	HTTPClient *http.Client
	// PublicLookup enables the "what is my IP" fallback for loopback clients.
	// Only meant for local environments.
	PublicLookup bool
	Services     []string
	Timeout      time.Duration
}

func NewClientIPResolver(client *http.Client, publicLookup bool) *ClientIPResolver {
	if client == nil {
		client = &http.Client{}
	}
	return &ClientIPResolver{
		HTTPClient:   client,
		PublicLookup: publicLookup,
		Services:     DefaultPublicIPServices,
		Timeout:      3 * time.Second,
	}
}

func (r *ClientIPResolver) Resolve(ctx context.Context, info RequestInfo) string {
	ip := HeaderClientIP(info.Header, info.RemoteAddr)
	if !r.PublicLookup || !isLoopback(ip) {
		return ip
	}
	for _, svc := range r.Services {
		if public, ok := r.lookupPublicIP(ctx, svc); ok {
			return public
		}
	}
	return ip
}

func (r *ClientIPResolver) lookupPublicIP(ctx context.Context, url string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}
	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", false
	}
	ip := strings.TrimSpace(string(body))
	if !IsPublicIP(ip) {
		return "", false
	}
	return ip, true
}
