package mux

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// ErrorHandler replaces the default error handler. It is called at most
// once per request with the Context the dispatch started with.
type ErrorHandler func(c *Context, err error)

// Config configures a Dispatcher.
type Config struct {
	// DisableAutoHead turns off answering HEAD requests with the GET
	// middlewares of a router.
	DisableAutoHead bool

	// ErrorHandler, when set, receives every dispatch error instead of
	// the default handler.
	ErrorHandler ErrorHandler

	// Logger is the parent of every Context logger. Defaults to a no-op
	// logger.
	Logger *zap.Logger

	// RequestIDHeader is the request header read when TrustRequestID is
	// set. Defaults to "X-Request-ID".
	RequestIDHeader string

	// TrustRequestID reuses the incoming request id header as the
	// Context id instead of generating one.
	TrustRequestID bool

	// GenerateID returns a new Context id. Defaults to GenerateUUIDv4.
	GenerateID func(r *http.Request) string
}

// Dispatcher walks its Stack for every request. It implements
// http.Handler:
//
//	d := mux.New(mux.Config{})
//	d.Use(logging)
//	d.UseAt(mux.Path("/health"), health)
//	http.ListenAndServe(":8080", d)
//
// The stack must not be mutated while requests are being served.
type Dispatcher struct {
	stack        Stack
	autoHead     bool
	errorHandler ErrorHandler
	logger       *zap.Logger
	idHeader     string
	trustID      bool
	generateID   func(r *http.Request) string
}

// New returns a Dispatcher with an empty stack.
func New(cfg Config) *Dispatcher {
	d := &Dispatcher{
		autoHead:     !cfg.DisableAutoHead,
		errorHandler: cfg.ErrorHandler,
		logger:       cfg.Logger,
		idHeader:     cfg.RequestIDHeader,
		trustID:      cfg.TrustRequestID,
		generateID:   cfg.GenerateID,
	}

	if d.logger == nil {
		d.logger = zap.NewNop()
	}

	if d.idHeader == "" {
		d.idHeader = "X-Request-ID"
	}

	if d.generateID == nil {
		d.generateID = GenerateUUIDv4
	}

	return d
}

// AutoHead reports whether HEAD requests fall back to GET middlewares.
func (d *Dispatcher) AutoHead() bool {
	return d.autoHead
}

// Use attaches items for every path.
func (d *Dispatcher) Use(items ...StackItem) error {
	return d.stack.Attach(Any(), items...)
}

// UseAt attaches items for the paths m accepts.
func (d *Dispatcher) UseAt(m Matcher, items ...StackItem) error {
	return d.stack.Attach(m, items...)
}

// Off detaches items attached with Use.
func (d *Dispatcher) Off(items ...StackItem) []StackItem {
	return d.stack.Detach(Any(), items...)
}

// OffAt detaches items attached with UseAt under an equal matcher.
func (d *Dispatcher) OffAt(m Matcher, items ...StackItem) []StackItem {
	return d.stack.Detach(m, items...)
}

// Stack returns a snapshot of the stack.
func (d *Dispatcher) Stack() []StackEntry {
	return d.stack.Entries()
}

// ServeHTTP dispatches the request through the stack.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := NewContext(w, r, d.requestID(r), d.logger)

	if err := d.dispatch(c); err != nil {
		d.handleError(c, err)
	}
}

func (d *Dispatcher) requestID(r *http.Request) string {
	if d.trustID {
		if id := r.Header.Get(d.idHeader); id != "" {
			return id
		}
	}

	return d.generateID(r)
}

// dispatch walks the stack until a middleware finishes the Context. It
// returns a 404 error when none does.
func (d *Dispatcher) dispatch(c *Context) error {
	next := c

	for _, entry := range d.stack.entries {
		path := next.request.URL.Path
		if !entry.Matcher.Match(path) {
			continue
		}

		next.vars = entry.Matcher.Vars(path)

		for _, item := range entry.Items {
			var chain []*Middleware

			switch it := item.(type) {
			case *Router:
				mws, err := d.routerChain(it, next)
				if err != nil {
					return err
				}
				chain = mws
			case *Middleware:
				chain = []*Middleware{it}
			}

			for _, mw := range chain {
				var err error
				if next, err = runMiddleware(mw, next); err != nil {
					return err
				}

				if next.Done() {
					return nil
				}
			}
		}
	}

	return MustError(http.StatusNotFound)
}

// routerChain returns the middlewares rt runs for the request, or a 405
// error when rt is guarded and does not support the method.
func (d *Dispatcher) routerChain(rt *Router, c *Context) ([]*Middleware, error) {
	method := c.request.Method
	if method == "" {
		method = http.MethodGet
	}

	if rt.Guarded {
		if methods := rt.Methods(); len(methods) > 0 {
			if d.autoHead && slices.Contains(methods, http.MethodGet) && !slices.Contains(methods, http.MethodHead) {
				methods = append(methods, http.MethodHead)
			}

			if !slices.Contains(methods, method) {
				c.response.Header().Set("Allow", strings.Join(methods, ", "))
				return nil, MustError(http.StatusMethodNotAllowed)
			}
		}
	}

	if method == http.MethodHead && d.autoHead {
		method = http.MethodGet
	}

	return rt.Middlewares(method), nil
}

// handleError produces the response for a failed dispatch.
func (d *Dispatcher) handleError(c *Context, err error) {
	res := c.response
	log := c.Log().With(zap.Error(err))

	switch {
	case d.errorHandler != nil:
		log.Debug("passing error to the configured error handler")
		d.errorHandler(c, err)
		return
	case res.Ended():
		log.Debug("response has ended, closing the connection")
		res.abort()
		return
	case res.HeadersSent():
		log.Debug("headers have been sent, ending the response")
		res.End()
		return
	}

	res.Status(errorStatus(err)) //nolint:errcheck

	var exp exposer
	if !errors.As(err, &exp) || !exp.Exposed() {
		log.Debug("error is not exposed")
		res.End()
		return
	}

	var jb jsonBodier
	if errors.As(err, &jb) {
		if payload := jb.JSONBody(); payload != nil {
			data, mErr := json.Marshal(payload)
			if mErr != nil {
				log.Warn("failed to encode error payload", zap.NamedError("encode_error", mErr))
				res.End()
				return
			}

			res.Header().Set("Content-Type", ContentTypeJSON)
			res.Write(data) //nolint:errcheck
			res.End()
			return
		}
	}

	message := err.Error()
	var pm publicMessage
	if errors.As(err, &pm) {
		message = pm.PublicMessage()
	}

	if message == "" {
		log.Debug("error has no message")
		res.End()
		return
	}

	if res.Header().Get("Content-Type") == "" {
		res.Header().Set("Content-Type", ContentTypeText)
	}

	res.Write([]byte(message)) //nolint:errcheck
	res.End()
}

// errorStatus returns the status carried by err when it is a known
// status code, DefaultErrorCode otherwise.
func errorStatus(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		if status := sc.StatusCode(); http.StatusText(status) != "" {
			return status
		}
	}

	return DefaultErrorCode
}
