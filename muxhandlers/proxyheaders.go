package muxhandlers

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"slices"
	"strings"

	"github.com/vitalvas/stackmux/headers"
	"github.com/vitalvas/stackmux/mux"
	"golang.org/x/net/http/httpguts"
)

// ErrInvalidProxy is returned when a TrustedProxies entry is neither an IP
// address nor a CIDR range.
var ErrInvalidProxy = errors.New("proxy headers: invalid proxy entry")

// DefaultTrustedProxies are the loopback and private ranges trusted when
// ProxyHeadersConfig.TrustedProxies is empty: IPv4 loopback (RFC 1122),
// RFC 1918 private networks, RFC 6598 shared address space, IPv6 loopback
// and RFC 4193 unique local addresses.
var DefaultTrustedProxies = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"100.64.0.0/10",
	"::1/128",
	"fc00::/7",
}

// ProxyHeadersConfig configures ProxyHeadersMiddleware.
type ProxyHeadersConfig struct {
	// TrustedProxies lists the peers, as IP addresses or CIDR ranges,
	// whose forwarding headers are honoured. Defaults to
	// DefaultTrustedProxies.
	TrustedProxies []string

	// EnableForwarded falls back to the first element of the RFC 7239
	// Forwarded header when the X-Forwarded-* family says nothing.
	EnableForwarded bool
}

// ProxyHeadersMiddleware rewrites the request as the client-facing proxy
// saw it when the peer is a trusted proxy:
//
//	RemoteAddr  X-Forwarded-For (leftmost IP), X-Real-IP, Forwarded for=
//	URL.Scheme  X-Forwarded-Proto, X-Forwarded-Scheme, Forwarded proto=
//	Host        X-Forwarded-Host, Forwarded host=
//
// Forwarded by= is copied to a synthetic X-Forwarded-By request header.
// The Forwarded fallbacks need EnableForwarded. The rewritten request is
// carried by a replacement Context, so the original request is untouched
// and only later stack entries observe it.
func ProxyHeadersMiddleware(cfg ProxyHeadersConfig) (*mux.Middleware, error) {
	entries := cfg.TrustedProxies
	if len(entries) == 0 {
		entries = DefaultTrustedProxies
	}

	trusted, err := parseTrustedProxies(entries)
	if err != nil {
		return nil, err
	}

	mw := mux.NewMiddleware(func(c *mux.Context) (*mux.Context, error) {
		if !trusted.contains(c.Request().RemoteAddr) {
			return nil, nil
		}

		f := readForwarding(c, cfg.EnableForwarded)
		if f == (forwarding{}) {
			return nil, nil
		}

		r := c.Request().Clone(c.Request().Context())
		f.apply(r)

		return c.WithRequest(r), nil
	})
	mw.Name = "proxy-headers"

	return mw, nil
}

type trustedProxies []netip.Prefix

func parseTrustedProxies(entries []string) (trustedProxies, error) {
	set := make(trustedProxies, 0, len(entries))

	for _, entry := range entries {
		var (
			prefix netip.Prefix
			err    error
		)

		if strings.Contains(entry, "/") {
			prefix, err = netip.ParsePrefix(entry)
			prefix = prefix.Masked()
		} else {
			var addr netip.Addr
			if addr, err = netip.ParseAddr(entry); err == nil {
				addr = addr.Unmap()
				prefix = netip.PrefixFrom(addr, addr.BitLen())
			}
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, entry)
		}

		set = append(set, prefix)
	}

	return set, nil
}

// contains reports whether the peer of remoteAddr, with or without a
// port, is trusted.
func (t trustedProxies) contains(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}

	addr = addr.WithZone("").Unmap()

	return slices.ContainsFunc(t, func(p netip.Prefix) bool { return p.Contains(addr) })
}

// forwarding holds what the proxies reported about the original request.
type forwarding struct {
	client string
	scheme string
	host   string
	by     string
}

func readForwarding(c *mux.Context, withForwarded bool) forwarding {
	h := c.Request().Header

	var (
		f       forwarding
		claimed bool
	)

	if xff := h.Get("X-Forwarded-For"); xff != "" {
		f.client, claimed = leftmostIP(xff), true
	} else if realIP := h.Get("X-Real-IP"); realIP != "" {
		f.client, claimed = validIP(strings.TrimSpace(realIP)), true
	}

	f.scheme = forwardedScheme(h)

	if host := h.Get("X-Forwarded-Host"); httpguts.ValidHostHeader(host) {
		f.host = host
	}

	if !withForwarded {
		return f
	}

	elements := c.Forwarded()
	if len(elements) == 0 {
		return f
	}

	return f.fill(elements[0], claimed)
}

// fill completes f from the element added by the client-facing proxy.
// A client claimed by the X-Forwarded-For family is never replaced, even
// when its value was unusable.
func (f forwarding) fill(el headers.Forwarded, claimed bool) forwarding {
	if !claimed {
		f.client = forwardedIP(el.For)
	}

	if f.scheme == "" {
		f.scheme = normalizeScheme(el.Proto)
	}

	if f.host == "" {
		f.host = el.Host
	}

	f.by = el.By

	return f
}

func (f forwarding) apply(r *http.Request) {
	if f.client != "" {
		r.RemoteAddr = f.client
	}

	if f.scheme != "" {
		r.URL.Scheme = f.scheme
	}

	if f.host != "" {
		r.Host = f.host
	}

	if f.by != "" {
		r.Header.Set("X-Forwarded-By", f.by)
	}
}

// forwardedScheme reads X-Forwarded-Proto, or X-Forwarded-Scheme when the
// former is absent. Only http and https are accepted.
func forwardedScheme(h http.Header) string {
	for _, name := range []string{"X-Forwarded-Proto", "X-Forwarded-Scheme"} {
		if v := h.Get(name); v != "" {
			return normalizeScheme(v)
		}
	}

	return ""
}

func normalizeScheme(v string) string {
	switch v = strings.ToLower(strings.TrimSpace(v)); v {
	case "http", "https":
		return v
	default:
		return ""
	}
}

// leftmostIP returns the first valid address of an X-Forwarded-For list.
func leftmostIP(xff string) string {
	for part := range strings.SplitSeq(xff, ",") {
		if ip := validIP(strings.TrimSpace(part)); ip != "" {
			return ip
		}
	}

	return ""
}

func validIP(s string) string {
	if addr, err := netip.ParseAddr(s); err != nil || addr.Zone() != "" {
		return ""
	}

	return s
}

// forwardedIP extracts the address of a Forwarded for= node, which may
// be bracketed, carry a port or be an obfuscated identifier:
//
//	for=192.0.2.60
//	for="[2001:db8::1]:4711"
//	for=_hidden
func forwardedIP(node string) string {
	node = strings.Trim(node, `"`)

	if host, _, err := net.SplitHostPort(node); err == nil {
		node = host
	} else {
		node = strings.TrimSuffix(strings.TrimPrefix(node, "["), "]")
	}

	return validIP(node)
}
