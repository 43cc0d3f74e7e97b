package muxhandlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vitalvas/stackmux/mux"
)

// ErrNoCacheControlRules is returned when CacheControlConfig.Rules is empty.
var ErrNoCacheControlRules = errors.New("cache control: at least one rule is required")

// CacheControlRule maps a Content-Type prefix to Cache-Control and Expires
// header values.
type CacheControlRule struct {
	// ContentType is a content type prefix to match against the response
	// Content-Type (e.g. "image/", "application/json"). Matching is
	// case-insensitive.
	ContentType string

	// Value is the Cache-Control header value to set when this rule
	// matches (e.g. "public, max-age=86400").
	Value string

	// Expires is added to the current time to compute the Expires header.
	// Zero produces the current time, i.e. already expired. A negative
	// duration means no Expires header is set for this rule.
	Expires time.Duration
}

// CacheControlConfig configures the CacheControl middleware behaviour.
type CacheControlConfig struct {
	// Rules is the ordered list of content type rules. The first matching
	// rule wins. Required; at least one must be provided.
	Rules []CacheControlRule

	// DefaultValue is the Cache-Control header value for responses that
	// don't match any rule. When empty, no header is set for unmatched
	// types.
	DefaultValue string

	// DefaultExpires is used like CacheControlRule.Expires for responses
	// that don't match any rule.
	DefaultExpires time.Duration
}

// cacheControlRule is a pre-normalized copy of CacheControlRule.
type cacheControlRule struct {
	contentType string
	value       string
	expires     time.Duration
	hasExpires  bool
}

// CacheControlMiddleware returns a middleware that sets Cache-Control and
// Expires response headers based on the response Content-Type. The
// headers are decided when the response header is about to be sent, so
// the middleware must be attached ahead of the middlewares producing the
// response. Rules are evaluated in order; the first rule whose ContentType
// prefix matches wins. Headers already set by later middlewares are kept.
//
// It returns ErrNoCacheControlRules if Rules is empty.
func CacheControlMiddleware(cfg CacheControlConfig) (*mux.Middleware, error) {
	if len(cfg.Rules) == 0 {
		return nil, ErrNoCacheControlRules
	}

	rules := make([]cacheControlRule, 0, len(cfg.Rules)+1)
	for _, r := range cfg.Rules {
		rules = append(rules, cacheControlRule{
			contentType: strings.ToLower(r.ContentType),
			value:       r.Value,
			expires:     r.Expires,
			hasExpires:  r.Expires >= 0,
		})
	}

	// An empty prefix matches everything, so the default goes last.
	rules = append(rules, cacheControlRule{
		value:      cfg.DefaultValue,
		expires:    cfg.DefaultExpires,
		hasExpires: cfg.DefaultExpires >= 0,
	})

	apply := func(h http.Header, _ int) {
		ccSet := h.Get("Cache-Control") != ""
		exSet := h.Get("Expires") != ""

		if ccSet && exSet {
			return
		}

		rule := matchCacheControlRule(rules, h.Get("Content-Type"))

		if !ccSet && rule.value != "" {
			h.Set("Cache-Control", rule.value)
		}

		if !exSet && rule.hasExpires {
			h.Set("Expires", time.Now().UTC().Add(rule.expires).Format(http.TimeFormat))
		}
	}

	mw := mux.Func(func(c *mux.Context) error {
		c.Response().BeforeHeaders(apply)
		return nil
	})
	mw.Name = "cache-control"

	return mw, nil
}

func matchCacheControlRule(rules []cacheControlRule, contentType string) cacheControlRule {
	ct := strings.ToLower(contentType)

	for _, rule := range rules {
		if strings.HasPrefix(ct, rule.contentType) {
			return rule
		}
	}

	return rules[len(rules)-1]
}
