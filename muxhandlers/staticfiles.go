package muxhandlers

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/vitalvas/stackmux/mux"
	"go.uber.org/zap"
)

// ErrStaticFilesNoFS is returned when StaticFilesConfig.FS is nil.
var ErrStaticFilesNoFS = errors.New("static files: file system must not be nil")

// ErrStaticFilesNoIndexHTML is returned when SPAFallback is enabled
// but the file system does not contain the index file at the root.
var ErrStaticFilesNoIndexHTML = errors.New("static files: index file is required when SPA fallback is enabled")

// ErrStaticFilesPrefix is returned when StaticFilesConfig.Prefix does not
// start with a slash.
var ErrStaticFilesPrefix = errors.New("static files: prefix must start with /")

// StaticFilesConfig configures the static files middleware.
type StaticFilesConfig struct {
	// FS is the file system to serve files from. Required.
	// Works with os.DirFS, embed.FS, and any fs.FS implementation.
	FS fs.FS

	// Prefix is stripped from the request path before looking up the
	// file. Requests outside the prefix fall through. Defaults to "/".
	Prefix string

	// Index is the file served for directory requests.
	// Defaults to "index.html".
	Index string

	// SPAFallback serves the root index file for any path that does not
	// match an existing file. This allows client-side routers to handle
	// all routes. Requires the index file at the root of FS.
	SPAFallback bool
}

// StaticFilesMiddleware returns a middleware that answers GET and HEAD
// requests with files from the configured file system, using the
// conditional and range semantics of mux.Context.SendFileFS.
//
// Requests for other methods, paths outside Prefix, missing files and
// directories without an index file fall through to the next middleware,
// so the middleware can be attached in front of dynamic handlers.
func StaticFilesMiddleware(cfg StaticFilesConfig) (*mux.Middleware, error) {
	if cfg.FS == nil {
		return nil, ErrStaticFilesNoFS
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "/"
	}

	if !strings.HasPrefix(prefix, "/") {
		return nil, ErrStaticFilesPrefix
	}

	index := cfg.Index
	if index == "" {
		index = "index.html"
	}

	if cfg.SPAFallback {
		if _, err := fs.Stat(cfg.FS, index); err != nil {
			return nil, ErrStaticFilesNoIndexHTML
		}
	}

	fsys := cfg.FS
	spa := cfg.SPAFallback

	mw := mux.Func(func(c *mux.Context) error {
		method := c.Request().Method
		if method != http.MethodGet && method != http.MethodHead {
			return nil
		}

		name, ok := staticFileName(c.URL().Path, prefix)
		if !ok {
			return nil
		}

		name, ok = resolveStaticFile(fsys, name, index)
		if !ok {
			if !spa {
				c.Log().Debug("static file not found", zap.String("path", c.URL().Path))
				return nil
			}

			name = index
		}

		return c.SendFileFS(fsys, name)
	})
	mw.Name = "static-files"

	return mw, nil
}

// staticFileName maps a request path under prefix to a file system name.
// The prefix only matches whole path segments: "/assets" covers "/assets"
// and "/assets/..." but not "/assets-private". The path is cleaned first,
// so it can never escape the root.
func staticFileName(urlPath, prefix string) (string, bool) {
	base := strings.TrimSuffix(prefix, "/")

	rel, ok := strings.CutPrefix(urlPath, base+"/")
	if !ok {
		if base == "" || urlPath != base {
			return "", false
		}
		rel = ""
	}

	name := strings.TrimPrefix(path.Clean("/"+rel), "/")
	if name == "" {
		name = "."
	}

	return name, fs.ValidPath(name)
}

// resolveStaticFile returns the regular file to serve for name: name
// itself, or its index file when name is a directory.
func resolveStaticFile(fsys fs.FS, name, index string) (string, bool) {
	stat, err := fs.Stat(fsys, name)
	if err != nil {
		return "", false
	}

	if stat.IsDir() {
		name = path.Join(name, index)
		if stat, err = fs.Stat(fsys, name); err != nil {
			return "", false
		}
	}

	return name, stat.Mode().IsRegular()
}
