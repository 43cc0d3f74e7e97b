package muxhandlers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/vitalvas/stackmux/mux"
	"go.uber.org/zap"
)

// ErrInvalidOverrideMethod is returned when MethodOverrideConfig.AllowedMethods
// or MethodOverrideConfig.OriginalMethods contains a method a mux.Router
// would not accept.
var ErrInvalidOverrideMethod = errors.New("method override: allowed methods must be valid HTTP methods")

// MethodOverrideConfig configures the Method Override middleware behaviour.
type MethodOverrideConfig struct {
	// HeaderNames is the list of header names checked in order.
	// The first non-empty header value is used as the override.
	// When nil, defaults to
	// ["X-HTTP-Method-Override", "X-Method-Override", "X-HTTP-Method"].
	HeaderNames []string

	// OriginalMethods is the set of HTTP methods eligible for override.
	// When nil, defaults to [POST].
	OriginalMethods []string

	// AllowedMethods restricts which methods can be used as overrides.
	// When nil, defaults to PUT, PATCH, DELETE, HEAD, OPTIONS.
	AllowedMethods []string
}

// defaultOverrideHeaders is the default set of header names checked for
// method override when HeaderNames is nil.
var defaultOverrideHeaders = []string{
	"X-HTTP-Method-Override",
	"X-Method-Override",
	"X-HTTP-Method",
}

// defaultOriginalMethods is the set of HTTP methods eligible for override
// when OriginalMethods is nil.
var defaultOriginalMethods = []string{http.MethodPost}

// defaultOverrideMethods is the set of methods allowed as overrides when
// AllowedMethods is nil.
var defaultOverrideMethods = []string{
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodHead,
	http.MethodOptions,
}

// MethodOverrideMiddleware returns a middleware that allows clients to override
// the HTTP method via a configurable header. The first non-empty header value
// from HeaderNames is uppercased and checked against the allowed set. When
// allowed, the middleware returns a replacement Context whose request has
// the override method and no override header, so routers attached after it
// dispatch on the new method. Override is only applied when the original
// request method is in OriginalMethods (defaults to POST).
//
// It returns ErrInvalidOverrideMethod if AllowedMethods or OriginalMethods
// contains an invalid method.
func MethodOverrideMiddleware(cfg MethodOverrideConfig) (*mux.Middleware, error) {
	names := cfg.HeaderNames
	if len(names) == 0 {
		names = defaultOverrideHeaders
	}

	originals := cfg.OriginalMethods
	if originals == nil {
		originals = defaultOriginalMethods
	}

	methods := cfg.AllowedMethods
	if methods == nil {
		methods = defaultOverrideMethods
	}

	for _, m := range slices.Concat(originals, methods) {
		if !mux.ValidMethod(m) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOverrideMethod, m)
		}
	}

	headerNames := slices.Clone(names)

	originalSet := make(map[string]struct{}, len(originals))
	for _, m := range originals {
		originalSet[m] = struct{}{}
	}

	allowed := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		allowed[m] = struct{}{}
	}

	mw := mux.NewMiddleware(func(c *mux.Context) (*mux.Context, error) {
		if _, ok := originalSet[c.Request().Method]; !ok {
			return nil, nil
		}

		for _, h := range headerNames {
			v := c.Header(h)
			if v == "" {
				continue
			}

			override := strings.ToUpper(v)
			if _, ok := allowed[override]; !ok {
				return nil, nil
			}

			r := c.Request().Clone(c.Request().Context())
			r.Method = override
			r.Header.Del(h)

			c.Log().Debug("method overridden",
				zap.String("from", c.Request().Method),
				zap.String("to", override))

			return c.WithRequest(r), nil
		}

		return nil, nil
	})
	mw.Name = "method-override"

	return mw, nil
}
