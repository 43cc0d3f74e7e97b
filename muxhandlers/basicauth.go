package muxhandlers

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/vitalvas/stackmux/mux"
	"go.uber.org/zap"
)

// ErrNoAuthSource is returned when BasicAuthConfig has neither ValidateFunc
// nor Credentials configured.
var ErrNoAuthSource = errors.New("basic auth: at least one of ValidateFunc or Credentials must be set")

// BasicAuthConfig configures BasicAuthMiddleware (RFC 7617).
type BasicAuthConfig struct {
	// Realm is announced in the challenge. Defaults to "Restricted".
	Realm string

	// UTF8 adds charset="UTF-8" to the challenge, telling clients to
	// encode non-ASCII credentials as UTF-8.
	UTF8 bool

	// ValidateFunc checks credentials. It takes priority over Credentials.
	ValidateFunc func(username, password string) bool

	// Credentials maps user names to passwords.
	Credentials map[string]string
}

type basicAuthUserKey struct{}

// BasicAuthUser returns the user name BasicAuthMiddleware authenticated
// for r.
func BasicAuthUser(r *http.Request) (string, bool) {
	user, ok := r.Context().Value(basicAuthUserKey{}).(string)
	return user, ok
}

// BasicAuthMiddleware rejects requests without valid Basic credentials
// with a 401 *mux.Error and a WWW-Authenticate challenge. Accepted
// requests continue with a replacement Context whose request carries the
// user name, see BasicAuthUser.
func BasicAuthMiddleware(cfg BasicAuthConfig) (*mux.Middleware, error) {
	if cfg.ValidateFunc == nil && len(cfg.Credentials) == 0 {
		return nil, ErrNoAuthSource
	}

	realm := cfg.Realm
	if realm == "" {
		realm = "Restricted"
	}

	challenge := "Basic realm=" + strconv.Quote(realm)
	if cfg.UTF8 {
		challenge += `, charset="UTF-8"`
	}

	check := cfg.ValidateFunc
	if check == nil {
		check = credentialsChecker(cfg.Credentials)
	}

	mw := mux.NewMiddleware(func(c *mux.Context) (*mux.Context, error) {
		var (
			user, pass string
			ok         bool
		)

		if auth := c.Authorization(); auth != nil {
			user, pass, ok = auth.BasicCredentials()
		}

		if !ok || !check(user, pass) {
			c.Log().Debug("basic auth rejected", zap.String("user", user), zap.Bool("credentials", ok))
			c.Response().Header().Set("WWW-Authenticate", challenge)
			return nil, mux.MustError(http.StatusUnauthorized)
		}

		r := c.Request()
		ctx := context.WithValue(r.Context(), basicAuthUserKey{}, user)

		return c.WithRequest(r.WithContext(ctx)), nil
	})
	mw.Name = "basic-auth"

	return mw, nil
}

// credentialsChecker compares SHA-256 digests in constant time, so neither
// the password length nor the existence of the user leaks through timing.
func credentialsChecker(credentials map[string]string) func(user, pass string) bool {
	digests := make(map[string][sha256.Size]byte, len(credentials))
	for user, pass := range credentials {
		digests[user] = sha256.Sum256([]byte(pass))
	}

	var missing [sha256.Size]byte

	return func(user, pass string) bool {
		want, exists := digests[user]
		if !exists {
			want = missing
		}

		got := sha256.Sum256([]byte(pass))

		return subtle.ConstantTimeCompare(got[:], want[:]) == 1 && exists
	}
}
