package muxhandlers

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/stackmux/mux"
)

func basicAuthHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func TestBasicAuth(t *testing.T) {
	t.Run("needs an auth source", func(t *testing.T) {
		_, err := BasicAuthMiddleware(BasicAuthConfig{})
		assert.ErrorIs(t, err, ErrNoAuthSource)
	})

	static := map[string]string{"admin": "secret", "ops": "pass:with:colons"}

	tests := []struct {
		name          string
		config        BasicAuthConfig
		authorization string
		wantUser      string
		wantChallenge string
	}{
		{
			name:          "valid static credentials",
			config:        BasicAuthConfig{Credentials: static},
			authorization: basicAuthHeader("admin", "secret"),
			wantUser:      "admin",
		},
		{
			name:          "password with colons",
			config:        BasicAuthConfig{Credentials: static},
			authorization: basicAuthHeader("ops", "pass:with:colons"),
			wantUser:      "ops",
		},
		{
			name: "validate func wins over static credentials",
			config: BasicAuthConfig{
				ValidateFunc: func(u, p string) bool { return u == "func-user" && p == "func-pass" },
				Credentials:  static,
			},
			authorization: basicAuthHeader("func-user", "func-pass"),
			wantUser:      "func-user",
		},
		{
			name:          "wrong password",
			config:        BasicAuthConfig{Credentials: static},
			authorization: basicAuthHeader("admin", "wrong"),
			wantChallenge: `Basic realm="Restricted"`,
		},
		{
			name:          "unknown user with an empty password",
			config:        BasicAuthConfig{Credentials: static},
			authorization: basicAuthHeader("nobody", ""),
			wantChallenge: `Basic realm="Restricted"`,
		},
		{
			name:          "missing header",
			config:        BasicAuthConfig{Realm: "My App", Credentials: static},
			wantChallenge: `Basic realm="My App"`,
		},
		{
			name:          "other scheme",
			config:        BasicAuthConfig{Credentials: static},
			authorization: "Bearer some-token",
			wantChallenge: `Basic realm="Restricted"`,
		},
		{
			name:          "malformed base64",
			config:        BasicAuthConfig{Credentials: static},
			authorization: "Basic !!!invalid-base64!!!",
			wantChallenge: `Basic realm="Restricted"`,
		},
		{
			name:          "no colon",
			config:        BasicAuthConfig{Credentials: static, UTF8: true},
			authorization: "Basic " + base64.StdEncoding.EncodeToString([]byte("nocolon")),
			wantChallenge: `Basic realm="Restricted", charset="UTF-8"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw, err := BasicAuthMiddleware(tt.config)
			require.NoError(t, err)

			d := mux.New(mux.Config{})
			require.NoError(t, d.Use(mw, mux.Func(func(c *mux.Context) error {
				user, ok := BasicAuthUser(c.Request())
				require.True(t, ok)
				return c.Text(user)
			})))

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}

			w := serve(d, req)

			if tt.wantChallenge == "" {
				assert.Equal(t, http.StatusOK, w.Code)
				assert.Equal(t, tt.wantUser, w.Body.String())
				assert.Empty(t, w.Header().Get("WWW-Authenticate"))
				return
			}

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.wantChallenge, w.Header().Get("WWW-Authenticate"))
			assert.Empty(t, w.Body.String())
		})
	}
}

func TestBasicAuthStopsDispatch(t *testing.T) {
	mw, err := BasicAuthMiddleware(BasicAuthConfig{Credentials: map[string]string{"admin": "secret"}})
	require.NoError(t, err)

	reached := false
	d := mux.New(mux.Config{
		ErrorHandler: func(c *mux.Context, err error) {
			var e *mux.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, http.StatusUnauthorized, e.StatusCode())
			c.Response().WriteHeader(e.StatusCode())
		},
	})
	require.NoError(t, d.Use(mw, mux.Func(func(*mux.Context) error {
		reached = true
		return nil
	})))

	w := serve(d, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestBasicAuthUserAbsent(t *testing.T) {
	_, ok := BasicAuthUser(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func BenchmarkBasicAuth(b *testing.B) {
	mw, err := BasicAuthMiddleware(BasicAuthConfig{Credentials: map[string]string{"admin": "secret"}})
	require.NoError(b, err)

	d := newTestDispatcher(b, mw)

	for _, pass := range []string{"secret", "wrong"} {
		b.Run(pass, func(b *testing.B) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", basicAuthHeader("admin", pass))

			for b.Loop() {
				d.ServeHTTP(httptest.NewRecorder(), req)
			}
		})
	}
}
