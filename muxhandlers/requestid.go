package muxhandlers

import (
	"github.com/vitalvas/stackmux/mux"
)

// RequestIDConfig configures the Request ID middleware behaviour.
type RequestIDConfig struct {
	// HeaderName overrides the header used to propagate the request ID.
	// Defaults to "X-Request-ID" when empty.
	HeaderName string
}

// RequestIDMiddleware returns a middleware that propagates the Context id
// as a request ID header. The ID is set on both the request (for later
// middleware) and the response (for the caller).
//
// The id itself is chosen by the dispatcher; see mux.Config.GenerateID and
// mux.Config.TrustRequestID.
func RequestIDMiddleware(cfg RequestIDConfig) *mux.Middleware {
	headerName := cfg.HeaderName
	if headerName == "" {
		headerName = "X-Request-ID"
	}

	mw := mux.NewMiddleware(func(c *mux.Context) (*mux.Context, error) {
		id := c.ID()
		if id == "" {
			return nil, nil
		}

		c.Response().Header().Set(headerName, id)

		if c.Header(headerName) == id {
			return nil, nil
		}

		r := c.Request().Clone(c.Request().Context())
		r.Header.Set(headerName, id)

		return c.WithRequest(r), nil
	})
	mw.Name = "request-id"

	return mw
}
