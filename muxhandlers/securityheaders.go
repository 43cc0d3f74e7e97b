package muxhandlers

import (
	"errors"
	"fmt"

	"github.com/vitalvas/stackmux/mux"
	"golang.org/x/net/http/httpguts"
)

// ErrInvalidFrameOption is returned when SecurityHeadersConfig.FrameOption is
// not one of the valid values: "DENY", "SAMEORIGIN", or empty string.
var ErrInvalidFrameOption = errors.New("security headers: frame option must be DENY, SAMEORIGIN, or empty")

// ErrInvalidSecurityHeader is returned when a configured policy is not a
// valid header field value.
var ErrInvalidSecurityHeader = errors.New("security headers: invalid header value")

// SecurityHeadersConfig configures the Security Headers middleware behaviour.
type SecurityHeadersConfig struct {
	// DisableContentTypeNosniff disables the X-Content-Type-Options: nosniff
	// header. The header is set by default (when false).
	DisableContentTypeNosniff bool

	// FrameOption sets the X-Frame-Options header value.
	// Valid values are "DENY", "SAMEORIGIN", or empty string to skip.
	// Defaults to "DENY".
	FrameOption string

	// ReferrerPolicy sets the Referrer-Policy header value.
	// Defaults to "strict-origin-when-cross-origin".
	ReferrerPolicy string

	// HSTSMaxAge sets the max-age directive for the Strict-Transport-Security
	// header in seconds. When zero, the header is not set.
	HSTSMaxAge int

	// HSTSIncludeSubDomains appends the includeSubDomains directive to the
	// Strict-Transport-Security header. Only effective when HSTSMaxAge > 0.
	HSTSIncludeSubDomains bool

	// HSTSPreload appends the preload directive to the
	// Strict-Transport-Security header. Only effective when HSTSMaxAge > 0.
	HSTSPreload bool

	// HSTSSecureOnly limits Strict-Transport-Security to requests the
	// Context reports as secure, directly over TLS or through a Forwarded
	// proto=https element.
	HSTSSecureOnly bool

	// CrossOriginOpenerPolicy sets the Cross-Origin-Opener-Policy header.
	// When empty, the header is not set.
	CrossOriginOpenerPolicy string

	// ContentSecurityPolicy sets the Content-Security-Policy header.
	// When empty, the header is not set.
	ContentSecurityPolicy string

	// PermissionsPolicy sets the Permissions-Policy header.
	// When empty, the header is not set.
	PermissionsPolicy string
}

// SecurityHeadersMiddleware returns a middleware that sets common security
// response headers. It never finishes the Context, so it is attached ahead
// of the middleware that produce responses.
//
// It returns ErrInvalidFrameOption if FrameOption is set to a value other than
// "DENY", "SAMEORIGIN", or empty string, and ErrInvalidSecurityHeader if a
// policy contains characters not allowed in a header value.
func SecurityHeadersMiddleware(cfg SecurityHeadersConfig) (*mux.Middleware, error) {
	if cfg.FrameOption != "" && cfg.FrameOption != "DENY" && cfg.FrameOption != "SAMEORIGIN" {
		return nil, ErrInvalidFrameOption
	}

	if cfg.FrameOption == "" {
		cfg.FrameOption = "DENY"
	}

	if cfg.ReferrerPolicy == "" {
		cfg.ReferrerPolicy = "strict-origin-when-cross-origin"
	}

	var hstsValue string
	if cfg.HSTSMaxAge > 0 {
		hstsValue = fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubDomains {
			hstsValue += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hstsValue += "; preload"
		}
	}

	fields := map[string]string{
		"X-Frame-Options": cfg.FrameOption,
		"Referrer-Policy": cfg.ReferrerPolicy,
	}

	if !cfg.DisableContentTypeNosniff {
		fields["X-Content-Type-Options"] = "nosniff"
	}

	if !httpguts.ValidHeaderFieldValue(hstsValue) {
		return nil, fmt.Errorf("%w: Strict-Transport-Security", ErrInvalidSecurityHeader)
	}

	optional := map[string]string{
		"Cross-Origin-Opener-Policy": cfg.CrossOriginOpenerPolicy,
		"Content-Security-Policy":    cfg.ContentSecurityPolicy,
		"Permissions-Policy":         cfg.PermissionsPolicy,
	}

	for name, value := range optional {
		if value != "" {
			fields[name] = value
		}
	}

	for name, value := range fields {
		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSecurityHeader, name)
		}
	}

	mw := mux.Func(func(c *mux.Context) error {
		if hstsValue != "" && (!cfg.HSTSSecureOnly || c.Secure()) {
			c.Response().Header().Set("Strict-Transport-Security", hstsValue)
		}

		return c.Response().Set(fields)
	})
	mw.Name = "security-headers"

	return mw, nil
}
