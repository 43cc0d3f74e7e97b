package muxhandlers

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/vitalvas/stackmux/mux"
)

// ErrNoAllowedTypes is returned when ContentTypeCheckConfig.AllowedTypes is
// empty.
var ErrNoAllowedTypes = errors.New("content type check: at least one allowed content type is required")

// ContentTypeCheckConfig configures the Content-Type Check middleware behaviour.
type ContentTypeCheckConfig struct {
	// AllowedTypes is the set of acceptable Content-Type values.
	// Matching is case-insensitive and ignores parameters
	// (e.g. "application/json" matches "application/json; charset=utf-8").
	// Required; at least one must be provided.
	AllowedTypes []string

	// Methods is the set of HTTP methods that require Content-Type
	// validation. When nil, defaults to POST, PUT, PATCH.
	Methods []string
}

var defaultCheckedMethods = []string{
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
}

// ContentTypeCheckMiddleware returns a middleware that validates the
// Content-Type header on requests with matching methods. It fails the
// dispatch with an exposed 415 Unsupported Media Type error when the
// Content-Type is missing, malformed or not allowed.
//
// It returns ErrNoAllowedTypes if AllowedTypes is empty.
func ContentTypeCheckMiddleware(cfg ContentTypeCheckConfig) (*mux.Middleware, error) {
	if len(cfg.AllowedTypes) == 0 {
		return nil, ErrNoAllowedTypes
	}

	methods := cfg.Methods
	if methods == nil {
		methods = defaultCheckedMethods
	}

	allowedSet := make(map[string]struct{}, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowedSet[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}

	mw := mux.Func(func(c *mux.Context) error {
		if !slices.Contains(methods, c.Request().Method) {
			return nil
		}

		ct := c.ContentType()
		if ct == nil {
			return c.Throw(http.StatusUnsupportedMediaType, mux.WithExpose())
		}

		if _, ok := allowedSet[ct.Type()]; !ok {
			c.Log().Debug("content type rejected")
			return c.Throw(http.StatusUnsupportedMediaType, mux.WithExpose())
		}

		return nil
	})
	mw.Name = "content-type-check"

	return mw, nil
}
