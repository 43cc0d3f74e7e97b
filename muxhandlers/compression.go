package muxhandlers

import (
	"compress/flate"
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/vitalvas/stackmux/headers"
	"github.com/vitalvas/stackmux/mux"
)

// ErrInvalidCompressionLevel is returned when CompressionConfig.Level is
// outside the valid compression level range.
var ErrInvalidCompressionLevel = errors.New("compression: invalid compression level")

// CompressionConfig configures the Compression middleware behaviour.
type CompressionConfig struct {
	// Level is the compression level for both gzip and deflate. When zero,
	// flate.DefaultCompression is used. Must be in
	// [flate.HuffmanOnly, flate.BestCompression] or zero.
	Level int

	// MinLength is the minimum declared Content-Length in bytes before
	// compression is applied. Responses without a Content-Length are
	// always compressed.
	MinLength int
}

// compressor is the common interface implemented by both gzip.Writer and
// flate.Writer.
type compressor interface {
	io.WriteCloser
	Flush() error
	Reset(w io.Writer)
}

// CompressionMiddleware returns a middleware that compresses response bodies
// using gzip or deflate when the client advertises support via the
// Accept-Encoding header. Gzip is preferred over deflate when the client
// accepts both. The decision is taken when the response header is sent,
// so the middleware must be attached ahead of the middlewares producing
// the response.
//
// Compression is skipped when:
//   - The request is HEAD or accepts neither "gzip" nor "deflate"
//   - The status is informational, 204, 206 or 304
//   - The response already has a Content-Encoding header
//   - The response Content-Type is an inherently compressed format
//     (image/*, video/*, audio/*, or common archive types)
//   - The declared Content-Length is below MinLength
//
// It returns ErrInvalidCompressionLevel if Level is outside the valid range.
func CompressionMiddleware(cfg CompressionConfig) (*mux.Middleware, error) {
	level := cfg.Level
	if level == 0 {
		level = flate.DefaultCompression
	}

	if level < flate.HuffmanOnly || level > flate.BestCompression {
		return nil, ErrInvalidCompressionLevel
	}

	minLength := cfg.MinLength

	pools := map[string]*sync.Pool{
		headers.EncodingGzip: {
			New: func() any {
				w, _ := gzip.NewWriterLevel(io.Discard, level)
				return w
			},
		},
		headers.EncodingDeflate: {
			New: func() any {
				w, _ := flate.NewWriter(io.Discard, level)
				return w
			},
		},
	}

	mw := mux.Func(func(c *mux.Context) error {
		if c.Request().Method == http.MethodHead {
			return nil
		}

		encoding := selectEncoding(c.AcceptEncoding())
		if encoding == "" {
			return nil
		}

		pool := pools[encoding]

		c.Response().AddBodyFilter(func(dst io.Writer, h http.Header, status int) io.WriteCloser {
			if !compressible(h, status, minLength) {
				return nil
			}

			h.Set("Content-Encoding", encoding)
			h.Add("Vary", "Accept-Encoding")
			h.Del("Content-Length")

			w := pool.Get().(compressor)
			w.Reset(dst)

			return &pooledCompressor{compressor: w, pool: pool}
		})

		return nil
	})
	mw.Name = "compression"

	return mw, nil
}

func compressible(h http.Header, status, minLength int) bool {
	switch {
	case status < http.StatusOK,
		status == http.StatusNoContent,
		status == http.StatusPartialContent,
		status == http.StatusNotModified:
		return false
	case h.Get("Content-Encoding") != "",
		isCompressedContentType(h.Get("Content-Type")):
		return false
	}

	if cl := h.Get("Content-Length"); cl != "" {
		if n, err := strconv.Atoi(cl); err == nil && n < minLength {
			return false
		}
	}

	return true
}

// selectEncoding returns "gzip", "deflate", or "" if neither is accepted.
// When both are accepted with equal quality, gzip is preferred.
func selectEncoding(accepted []headers.AcceptEncoding) string {
	var (
		gzipQ    float64 = -1
		deflateQ float64 = -1
		wildQ    float64 = -1
	)

	for _, ae := range accepted {
		switch ae.Encoding {
		case headers.EncodingGzip, headers.EncodingXGzip:
			gzipQ = max(gzipQ, ae.Weight())
		case headers.EncodingDeflate:
			deflateQ = ae.Weight()
		case headers.EncodingAny:
			wildQ = ae.Weight()
		}
	}

	// Apply wildcard to unspecified encodings.
	if gzipQ < 0 && wildQ >= 0 {
		gzipQ = wildQ
	}

	if deflateQ < 0 && wildQ >= 0 {
		deflateQ = wildQ
	}

	if gzipQ > 0 && gzipQ >= deflateQ {
		return headers.EncodingGzip
	}

	if deflateQ > 0 {
		return headers.EncodingDeflate
	}

	return ""
}

// compressedContentTypes contains content type prefixes and exact types that
// are already compressed and should not be double-compressed.
var compressedContentTypes = []string{
	"image/",
	"video/",
	"audio/",
	"application/zip",
	"application/gzip",
	"application/x-gzip",
	"application/x-bzip2",
	"application/x-xz",
	"application/zstd",
	"application/x-7z-compressed",
	"application/x-rar-compressed",
}

func isCompressedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))

	for _, prefix := range compressedContentTypes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}

	return false
}

// pooledCompressor returns its writer to the pool on Close.
type pooledCompressor struct {
	compressor
	pool *sync.Pool
}

func (p *pooledCompressor) Close() error {
	if p.compressor == nil {
		return nil
	}

	err := p.compressor.Close()
	p.pool.Put(p.compressor)
	p.compressor = nil

	return err
}
