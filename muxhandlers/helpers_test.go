package muxhandlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vitalvas/stackmux/mux"
)

// okMiddleware finishes every request with 200 and body "ok".
func okMiddleware() *mux.Middleware {
	return mux.Func(func(c *mux.Context) error {
		return c.Text("ok")
	})
}

// newTestDispatcher attaches items followed by okMiddleware.
func newTestDispatcher(tb testing.TB, items ...mux.StackItem) *mux.Dispatcher {
	tb.Helper()

	d := mux.New(mux.Config{})
	require.NoError(tb, d.Use(items...))
	require.NoError(tb, d.Use(okMiddleware()))

	return d
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
