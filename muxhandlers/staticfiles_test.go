package muxhandlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/stackmux/mux"
)

func staticTestFS() fstest.MapFS {
	return fstest.MapFS{
		"file.txt":              {Data: []byte("hello world")},
		"style.css":             {Data: []byte("body{}")},
		"app.js":                {Data: []byte("console.log('hi')")},
		"page.html":             {Data: []byte("<html>page</html>")},
		"index.html":            {Data: []byte("<html>root</html>")},
		"docs/index.html":       {Data: []byte("<html>docs</html>")},
		"docs/guide.txt":        {Data: []byte("guide content")},
		"images/logo.png":       {Data: []byte("png-data")},
		"empty-dir/placeholder": {Data: []byte("")},
	}
}

// fallback answers requests the static middleware let through.
func fallback() *mux.Middleware {
	return mux.Func(func(c *mux.Context) error {
		return c.Text("fallback")
	})
}

func staticDispatcher(t *testing.T, cfg StaticFilesConfig) *mux.Dispatcher {
	t.Helper()

	mw, err := StaticFilesMiddleware(cfg)
	require.NoError(t, err)

	d := mux.New(mux.Config{})
	require.NoError(t, d.Use(mw, fallback()))

	return d
}

func TestStaticFilesMiddleware(t *testing.T) {
	t.Run("config validation", func(t *testing.T) {
		tests := []struct {
			name    string
			config  StaticFilesConfig
			wantErr error
		}{
			{"nil FS", StaticFilesConfig{}, ErrStaticFilesNoFS},
			{"relative prefix", StaticFilesConfig{FS: staticTestFS(), Prefix: "static"}, ErrStaticFilesPrefix},
			{"spa fallback without index", StaticFilesConfig{FS: fstest.MapFS{"a.txt": {}}, SPAFallback: true}, ErrStaticFilesNoIndexHTML},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mw, err := StaticFilesMiddleware(tt.config)
				assert.Nil(t, mw)
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})

	tests := []struct {
		name     string
		config   StaticFilesConfig
		method   string
		path     string
		wantCode int
		wantBody string
		wantType string
	}{
		{name: "serves file", path: "/file.txt", wantCode: http.StatusOK, wantBody: "hello world"},
		{name: "missing file falls through", path: "/nonexistent.txt", wantCode: http.StatusOK, wantBody: "fallback"},
		{name: "serves index.html for directory", path: "/docs/", wantCode: http.StatusOK, wantBody: "<html>docs</html>"},
		{name: "serves index.html for directory without slash", path: "/docs", wantCode: http.StatusOK, wantBody: "<html>docs</html>"},
		{name: "root index", path: "/", wantCode: http.StatusOK, wantBody: "<html>root</html>"},
		{name: "directory without index falls through", path: "/images/", wantCode: http.StatusOK, wantBody: "fallback"},
		{name: "nested file", path: "/docs/guide.txt", wantCode: http.StatusOK, wantBody: "guide content"},
		{name: "css content type", path: "/style.css", wantCode: http.StatusOK, wantBody: "body{}", wantType: "text/css; charset=utf-8"},
		{name: "html content type", path: "/page.html", wantCode: http.StatusOK, wantBody: "<html>page</html>", wantType: "text/html; charset=utf-8"},
		{name: "post falls through", method: http.MethodPost, path: "/file.txt", wantCode: http.StatusOK, wantBody: "fallback"},
		{name: "head has no body", method: http.MethodHead, path: "/file.txt", wantCode: http.StatusOK, wantBody: ""},
		{
			name:     "prefix stripped",
			config:   StaticFilesConfig{Prefix: "/static/"},
			path:     "/static/file.txt",
			wantCode: http.StatusOK,
			wantBody: "hello world",
		},
		{
			name:     "outside prefix falls through",
			config:   StaticFilesConfig{Prefix: "/static/"},
			path:     "/file.txt",
			wantCode: http.StatusOK,
			wantBody: "fallback",
		},
		{
			name:     "custom index",
			config:   StaticFilesConfig{Index: "guide.txt"},
			path:     "/docs/",
			wantCode: http.StatusOK,
			wantBody: "guide content",
		},
		{
			name:     "spa fallback serves existing file",
			config:   StaticFilesConfig{SPAFallback: true},
			path:     "/file.txt",
			wantCode: http.StatusOK,
			wantBody: "hello world",
		},
		{
			name:     "spa fallback serves index.html for missing path",
			config:   StaticFilesConfig{SPAFallback: true},
			path:     "/dashboard",
			wantCode: http.StatusOK,
			wantBody: "<html>root</html>",
		},
		{
			name:     "spa fallback serves index.html for deep missing path",
			config:   StaticFilesConfig{SPAFallback: true},
			path:     "/app/users/42/settings",
			wantCode: http.StatusOK,
			wantBody: "<html>root</html>",
		},
		{
			name:     "spa fallback serves directory index.html when present",
			config:   StaticFilesConfig{SPAFallback: true},
			path:     "/docs/",
			wantCode: http.StatusOK,
			wantBody: "<html>docs</html>",
		},
		{
			name:     "spa fallback for directory without index.html",
			config:   StaticFilesConfig{SPAFallback: true},
			path:     "/images",
			wantCode: http.StatusOK,
			wantBody: "<html>root</html>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			cfg.FS = staticTestFS()

			method := tt.method
			if method == "" {
				method = http.MethodGet
			}

			rec := serve(staticDispatcher(t, cfg), httptest.NewRequest(method, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			}
		})
	}

	t.Run("range request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/file.txt", nil)
		req.Header.Set("Range", "bytes=6-")

		rec := serve(staticDispatcher(t, StaticFilesConfig{FS: staticTestFS()}), req)
		assert.Equal(t, http.StatusPartialContent, rec.Code)
		assert.Equal(t, "world", rec.Body.String())
		assert.Equal(t, "bytes 6-10/11", rec.Header().Get("Content-Range"))
	})

	t.Run("conditional request", func(t *testing.T) {
		modTime := time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)
		files := fstest.MapFS{"a.txt": {Data: []byte("a"), ModTime: modTime}}

		req := httptest.NewRequest(http.MethodGet, "/a.txt", nil)
		req.Header.Set("If-Modified-Since", modTime.Format(http.TimeFormat))

		rec := serve(staticDispatcher(t, StaticFilesConfig{FS: files}), req)
		assert.Equal(t, http.StatusNotModified, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("path traversal does not escape root", func(t *testing.T) {
		paths := []string{
			"/../../../etc/passwd",
			"/..%2f..%2f..%2fetc/passwd",
			"/../file.txt",
			"/docs/../../file.txt",
			"/..\\..\\..\\etc\\passwd",
		}

		for _, spa := range []bool{false, true} {
			d := staticDispatcher(t, StaticFilesConfig{FS: staticTestFS(), SPAFallback: spa})

			for _, p := range paths {
				rec := serve(d, httptest.NewRequest(http.MethodGet, p, nil))
				assert.NotContains(t, rec.Body.String(), "root:x:", "path %q must not leak file content", p)
			}
		}
	})
}

func TestStaticFilesPrefixBoundary(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html":          {Data: []byte("root-index")},
		"-private/secret.txt": {Data: []byte("s")},
		"app.js":              {Data: []byte("js")},
	}

	d := staticDispatcher(t, StaticFilesConfig{FS: fsys, Prefix: "/assets"})

	tests := []struct {
		path     string
		wantBody string
	}{
		{path: "/assetsindex.html", wantBody: "fallback"},
		{path: "/assets-private/secret.txt", wantBody: "fallback"},
		{path: "/assets/app.js", wantBody: "js"},
		{path: "/assets", wantBody: "root-index"},
		{path: "/assets/", wantBody: "root-index"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := serve(d, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestStaticFileName(t *testing.T) {
	tests := []struct {
		path, prefix string
		want         string
		ok           bool
	}{
		{"/file.txt", "/", "file.txt", true},
		{"/", "/", ".", true},
		{"/static/a/b.css", "/static/", "a/b.css", true},
		{"/static", "/static/", ".", true},
		{"/static", "/static", ".", true},
		{"/static/a", "/static", "a", true},
		{"/staticindex.html", "/static", "", false},
		{"/static-private/secret.txt", "/static", "", false},
		{"/static-private/secret.txt", "/static/", "", false},
		{"/other/a", "/static/", "", false},
		{"/../../etc/passwd", "/", "etc/passwd", true},
		{"/a/./b/../c", "/", "a/c", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := staticFileName(tt.path, tt.prefix)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func BenchmarkStaticFilesMiddleware(b *testing.B) {
	mw, err := StaticFilesMiddleware(StaticFilesConfig{FS: staticTestFS(), SPAFallback: true})
	require.NoError(b, err)

	d := newTestDispatcher(b, mw)

	b.Run("file request", func(b *testing.B) {
		req := httptest.NewRequest(http.MethodGet, "/file.txt", nil)

		b.ResetTimer()
		for b.Loop() {
			d.ServeHTTP(httptest.NewRecorder(), req)
		}
	})

	b.Run("spa fallback hit", func(b *testing.B) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)

		b.ResetTimer()
		for b.Loop() {
			d.ServeHTTP(httptest.NewRecorder(), req)
		}
	})
}
