package muxhandlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/vitalvas/stackmux/mux"
)

// ErrInvalidMaxSize is returned when RequestSizeLimitConfig.MaxBytes is not
// greater than zero.
var ErrInvalidMaxSize = errors.New("request size limit: max size must be greater than zero")

// RequestSizeLimitConfig configures the Request Size Limit middleware behaviour.
type RequestSizeLimitConfig struct {
	// MaxBytes is the maximum allowed request body size in bytes.
	// Must be greater than zero.
	MaxBytes int64
}

// RequestSizeLimitMiddleware returns a middleware that limits the size of
// incoming request bodies. A declared Content-Length above the limit is
// rejected with 413 Request Entity Too Large straight away. Otherwise the
// body is wrapped with http.MaxBytesReader in a replacement Context; reads
// beyond the limit fail with a 413 *mux.Error, so a middleware returning
// the read error produces the 413 response.
//
// It returns ErrInvalidMaxSize if MaxBytes is not greater than zero.
func RequestSizeLimitMiddleware(cfg RequestSizeLimitConfig) (*mux.Middleware, error) {
	if cfg.MaxBytes <= 0 {
		return nil, ErrInvalidMaxSize
	}

	maxBytes := cfg.MaxBytes

	mw := mux.NewMiddleware(func(c *mux.Context) (*mux.Context, error) {
		r := c.Request()

		if r.ContentLength > maxBytes {
			return nil, mux.MustError(http.StatusRequestEntityTooLarge, mux.WithExpose())
		}

		if r.Body == nil || r.Body == http.NoBody {
			return nil, nil
		}

		limited := r.Clone(r.Context())
		limited.Body = &limitedBody{ReadCloser: http.MaxBytesReader(c.Response(), r.Body, maxBytes)}

		return c.WithRequest(limited), nil
	})
	mw.Name = "request-size-limit"

	return mw, nil
}

// limitedBody turns *http.MaxBytesError into a 413 *mux.Error.
type limitedBody struct {
	io.ReadCloser
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)

	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return n, mux.MustError(http.StatusRequestEntityTooLarge, mux.WithExpose(), mux.WithCause(err))
	}

	return n, err
}
