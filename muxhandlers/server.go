package muxhandlers

import (
	"errors"
	"fmt"
	"os"

	"github.com/vitalvas/stackmux/mux"
	"golang.org/x/net/http/httpguts"
)

// ErrInvalidServerHeader is returned when the configured header name or
// one of the resolved values cannot be sent in a response.
var ErrInvalidServerHeader = errors.New("muxhandlers: invalid server header")

// ServerConfig configures ServerMiddleware.
type ServerConfig struct {
	// Hostname is announced as is when set.
	Hostname string

	// HostnameEnv lists environment variables (e.g. POD_NAME) consulted
	// in order when Hostname is empty. os.Hostname is the last resort.
	HostnameEnv []string

	// Header carries the hostname. Defaults to X-Server-Hostname.
	Header string

	// Software, when set, is sent as the Server header.
	Software string
}

func (cfg ServerConfig) hostname() (string, error) {
	if cfg.Hostname != "" {
		return cfg.Hostname, nil
	}

	for _, env := range cfg.HostnameEnv {
		if v := os.Getenv(env); v != "" {
			return v, nil
		}
	}

	return os.Hostname()
}

// ServerMiddleware announces the serving host, and optionally the server
// software, on every response including error responses. The hostname is
// resolved once.
func ServerMiddleware(cfg ServerConfig) (*mux.Middleware, error) {
	header := cfg.Header
	if header == "" {
		header = "X-Server-Hostname"
	}

	if !httpguts.ValidHeaderFieldName(header) {
		return nil, fmt.Errorf("%w: name %q", ErrInvalidServerHeader, header)
	}

	hostname, err := cfg.hostname()
	if err != nil {
		return nil, err
	}

	for _, v := range []string{hostname, cfg.Software} {
		if !httpguts.ValidHeaderFieldValue(v) {
			return nil, fmt.Errorf("%w: value %q", ErrInvalidServerHeader, v)
		}
	}

	mw := mux.Func(func(c *mux.Context) error {
		h := c.Response().Header()
		h.Set(header, hostname)
		if cfg.Software != "" {
			h.Set("Server", cfg.Software)
		}
		return nil
	})
	mw.Name = "server"

	return mw, nil
}
