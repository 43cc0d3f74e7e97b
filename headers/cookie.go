package headers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"
)

// SameSite is the SameSite attribute of a Set-Cookie line.
type SameSite string

const (
	SameSiteLax    SameSite = "Lax"
	SameSiteStrict SameSite = "Strict"
	SameSiteNone   SameSite = "None"
)

const (
	hostPrefix   = "__Host-"
	securePrefix = "__Secure-"
)

// Cookie is a cookie read from a Cookie request header or queued for a
// Set-Cookie response header.
//
// MaxAge follows net/http semantics: zero means unset and a negative
// value renders as "Max-Age=0".
type Cookie struct {
	Key      string
	Value    string
	Expires  time.Time
	MaxAge   int
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
	SameSite SameSite
}

// NewCookie returns a cookie with the default attributes: Path "/",
// HttpOnly and SameSite=Lax.
func NewCookie(key, value string) *Cookie {
	return &Cookie{
		Key:      key,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		SameSite: SameSiteLax,
	}
}

// EffectiveDomain returns the Domain attribute. Cookies with the __Host-
// prefix never carry one.
func (c *Cookie) EffectiveDomain() string {
	if strings.HasPrefix(c.Key, hostPrefix) {
		return ""
	}

	return c.Domain
}

// EffectivePath returns the Path attribute. Cookies with the __Host-
// prefix are always scoped to "/".
func (c *Cookie) EffectivePath() string {
	if strings.HasPrefix(c.Key, hostPrefix) {
		return "/"
	}

	return c.Path
}

// EffectiveSecure reports whether the Secure attribute is sent. The
// __Secure- and __Host- prefixes and SameSite=None require it.
func (c *Cookie) EffectiveSecure() bool {
	return c.Secure ||
		strings.HasPrefix(c.Key, securePrefix) ||
		strings.HasPrefix(c.Key, hostPrefix) ||
		c.SameSite == SameSiteNone
}

// Valid reports whether the cookie name is an RFC 9110 token.
func (c *Cookie) Valid() bool {
	return c.Key != "" && httpguts.ValidHeaderFieldName(c.Key)
}

// String renders the cookie as a Set-Cookie header value.
func (c *Cookie) String() string {
	var b strings.Builder
	b.WriteString(c.Key)
	b.WriteByte('=')
	b.WriteString(c.Value)

	switch {
	case c.MaxAge > 0:
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(c.MaxAge))
	case c.MaxAge < 0:
		b.WriteString("; Max-Age=0")
	case !c.Expires.IsZero():
		b.WriteString("; Expires=")
		b.WriteString(c.Expires.UTC().Format(http.TimeFormat))
	}

	if domain := c.EffectiveDomain(); domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(domain)
	}

	if path := c.EffectivePath(); path != "" {
		b.WriteString("; Path=")
		b.WriteString(path)
	}

	if c.EffectiveSecure() {
		b.WriteString("; Secure")
	}

	if c.HTTPOnly {
		b.WriteString("; HttpOnly")
	}

	sameSite := c.SameSite
	if sameSite == "" {
		sameSite = SameSiteLax
	}
	b.WriteString("; SameSite=")
	b.WriteString(string(sameSite))

	return b.String()
}

// ParseCookies parses a Cookie request header. Pairs with an empty value
// or an invalid name are skipped and the first occurrence of a name wins.
// Double-quoted values are unquoted.
func ParseCookies(input string) []*Cookie {
	if len(input) < 3 {
		return nil
	}

	var out []*Cookie
	seen := make(map[string]struct{})

	for pair := range strings.SplitSeq(strings.TrimSpace(input), ";") {
		key, value, _ := strings.Cut(strings.TrimSpace(pair), "=")
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))

		if key == "" || value == "" || !httpguts.ValidHeaderFieldName(key) {
			continue
		}

		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, NewCookie(key, value))
	}

	return out
}

// unquote strips one pair of surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}

	return s
}
