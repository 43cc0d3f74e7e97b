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

// respondWith sends body with the given Content-Type and extra headers.
func respondWith(contentType string, header map[string]string) *mux.Middleware {
	return mux.Func(func(c *mux.Context) error {
		h := c.Response().Header()
		h.Set("Content-Type", contentType)
		for k, v := range header {
			h.Set(k, v)
		}

		return c.Send("body")
	})
}

func newCacheControlDispatcher(t testing.TB, cfg CacheControlConfig, handler *mux.Middleware) *mux.Dispatcher {
	t.Helper()

	mw, err := CacheControlMiddleware(cfg)
	require.NoError(t, err)

	d := mux.New(mux.Config{})
	require.NoError(t, d.Use(mw, handler))

	return d
}

func TestCacheControlMiddleware(t *testing.T) {
	t.Run("empty rules returns error", func(t *testing.T) {
		_, err := CacheControlMiddleware(CacheControlConfig{})
		require.ErrorIs(t, err, ErrNoCacheControlRules)
	})

	tests := []struct {
		name        string
		config      CacheControlConfig
		contentType string
		header      map[string]string
		wantCC      string
		wantExpires time.Duration
		noExpires   bool
		exactExp    string
	}{
		{
			name:        "exact content type match",
			config:      CacheControlConfig{Rules: []CacheControlRule{{ContentType: "application/json", Value: "no-cache"}}},
			contentType: "application/json",
			wantCC:      "no-cache",
		},
		{
			name:        "prefix match",
			config:      CacheControlConfig{Rules: []CacheControlRule{{ContentType: "image/", Value: "public, max-age=86400", Expires: 24 * time.Hour}}},
			contentType: "image/png",
			wantCC:      "public, max-age=86400",
			wantExpires: 24 * time.Hour,
		},
		{
			name: "first matching rule wins",
			config: CacheControlConfig{Rules: []CacheControlRule{
				{ContentType: "image/svg", Value: "public, max-age=3600", Expires: -1},
				{ContentType: "image/", Value: "public, max-age=86400", Expires: -1},
			}},
			contentType: "image/svg+xml",
			wantCC:      "public, max-age=3600",
			noExpires:   true,
		},
		{
			name: "unmatched type with default value",
			config: CacheControlConfig{
				Rules:          []CacheControlRule{{ContentType: "image/", Value: "public"}},
				DefaultValue:   "no-store",
				DefaultExpires: time.Hour,
			},
			contentType: "text/plain",
			wantCC:      "no-store",
			wantExpires: time.Hour,
		},
		{
			name: "unmatched type without default value sets no header",
			config: CacheControlConfig{
				Rules:          []CacheControlRule{{ContentType: "image/", Value: "public"}},
				DefaultExpires: -1,
			},
			contentType: "text/plain",
			noExpires:   true,
		},
		{
			name:        "negative expires sets no expires header",
			config:      CacheControlConfig{Rules: []CacheControlRule{{ContentType: "application/json", Value: "no-cache", Expires: -1}}},
			contentType: "application/json",
			wantCC:      "no-cache",
			noExpires:   true,
		},
		{
			name:        "case-insensitive matching",
			config:      CacheControlConfig{Rules: []CacheControlRule{{ContentType: "application/json", Value: "no-cache", Expires: -1}}},
			contentType: "Application/JSON",
			wantCC:      "no-cache",
			noExpires:   true,
		},
		{
			name:        "content type with parameters",
			config:      CacheControlConfig{Rules: []CacheControlRule{{ContentType: "application/json", Value: "no-cache", Expires: -1}}},
			contentType: "application/json; charset=utf-8",
			wantCC:      "no-cache",
			noExpires:   true,
		},
		{
			name:        "cache-control preset",
			config:      CacheControlConfig{Rules: []CacheControlRule{{ContentType: "application/json", Value: "no-cache"}}},
			contentType: "application/json",
			header:      map[string]string{"Cache-Control": "private, max-age=60"},
			wantCC:      "private, max-age=60",
		},
		{
			name:        "expires preset",
			config:      CacheControlConfig{Rules: []CacheControlRule{{ContentType: "application/json", Value: "no-cache"}}},
			contentType: "application/json",
			header:      map[string]string{"Expires": "Thu, 01 Jan 2026 00:00:00 GMT"},
			wantCC:      "no-cache",
			exactExp:    "Thu, 01 Jan 2026 00:00:00 GMT",
		},
		{
			name:        "both preset",
			config:      CacheControlConfig{Rules: []CacheControlRule{{ContentType: "application/json", Value: "no-cache"}}},
			contentType: "application/json",
			header:      map[string]string{"Cache-Control": "private", "Expires": "Thu, 01 Jan 2026 00:00:00 GMT"},
			wantCC:      "private",
			exactExp:    "Thu, 01 Jan 2026 00:00:00 GMT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newCacheControlDispatcher(t, tt.config, respondWith(tt.contentType, tt.header))

			before := time.Now().UTC()
			w := serve(d, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantCC, w.Header().Get("Cache-Control"))

			switch {
			case tt.exactExp != "":
				assert.Equal(t, tt.exactExp, w.Header().Get("Expires"))
			case tt.noExpires:
				assert.Empty(t, w.Header().Get("Expires"))
			default:
				assertExpiresInRange(t, w.Header().Get("Expires"), before, tt.wantExpires)
			}
		})
	}

	t.Run("applies to served files", func(t *testing.T) {
		files := fstest.MapFS{"page.html": {Data: []byte("<h1>hi</h1>"), ModTime: time.Now()}}
		serveFile := mux.Func(func(c *mux.Context) error {
			return c.SendFileFS(files, "page.html")
		})

		d := newCacheControlDispatcher(t, CacheControlConfig{
			Rules: []CacheControlRule{{ContentType: "text/html", Value: "no-store", Expires: -1}},
		}, serveFile)

		w := serve(d, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	})

	t.Run("applies to error responses", func(t *testing.T) {
		mw, err := CacheControlMiddleware(CacheControlConfig{
			Rules:        []CacheControlRule{{ContentType: "image/", Value: "public"}},
			DefaultValue: "no-store",
		})
		require.NoError(t, err)

		d := mux.New(mux.Config{})
		require.NoError(t, d.Use(mw))

		w := serve(d, httptest.NewRequest(http.MethodGet, "/missing", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	})
}

// assertExpiresInRange parses the Expires header as an HTTP-date and checks
// that it falls within the expected range: [before+offset, before+offset+2s].
func assertExpiresInRange(t *testing.T, header string, before time.Time, offset time.Duration) {
	t.Helper()

	require.NotEmpty(t, header, "Expires header must be set")

	got, err := time.Parse(http.TimeFormat, header)
	require.NoError(t, err, "Expires header must be a valid HTTP-date")

	earliest := before.Add(offset).Truncate(time.Second)
	latest := earliest.Add(2 * time.Second)

	assert.False(t, got.Before(earliest), "Expires %v is before earliest %v", got, earliest)
	assert.False(t, got.After(latest), "Expires %v is after latest %v", got, latest)
}

func BenchmarkCacheControlMiddleware(b *testing.B) {
	b.Run("matching rule", func(b *testing.B) {
		d := newCacheControlDispatcher(b, CacheControlConfig{
			Rules: []CacheControlRule{{ContentType: "application/json", Value: "no-cache"}},
		}, respondWith("application/json", nil))
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		b.ResetTimer()
		for b.Loop() {
			d.ServeHTTP(httptest.NewRecorder(), req)
		}
	})

	b.Run("no match", func(b *testing.B) {
		d := newCacheControlDispatcher(b, CacheControlConfig{
			Rules: []CacheControlRule{{ContentType: "image/", Value: "public, max-age=86400", Expires: -1}},
		}, respondWith("text/plain", nil))
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		b.ResetTimer()
		for b.Loop() {
			d.ServeHTTP(httptest.NewRecorder(), req)
		}
	})
}
