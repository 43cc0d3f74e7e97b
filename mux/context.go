package mux

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/vitalvas/stackmux/headers"
	"go.uber.org/zap"
)

// Context carries one in-flight request through the dispatch. It is owned
// by a single request and must not be retained after the response ends.
type Context struct {
	request  *http.Request
	response *Response
	id       string
	log      *zap.Logger
	vars     map[string]string
	done     *bool
}

// NewContext returns a Context for the exchange. A nil logger disables
// logging.
func NewContext(w http.ResponseWriter, r *http.Request, id string, log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}

	return &Context{
		request:  r,
		response: NewResponse(w),
		id:       id,
		log:      log.With(zap.String("trace_id", id)),
		done:     new(bool),
	}
}

// WithRequest returns a copy of c using r. The copy shares the response,
// id and logger; middleware return it to replace the Context seen by the
// rest of the dispatch. Finishing either Context finishes both.
func (c *Context) WithRequest(r *http.Request) *Context {
	next := *c
	next.request = r
	return &next
}

// Request returns the request.
func (c *Context) Request() *http.Request { return c.request }

// Response returns the response.
func (c *Context) Response() *Response { return c.response }

// ID returns the request id.
func (c *Context) ID() string { return c.id }

// Log returns the request scoped logger, tagged with trace_id.
func (c *Context) Log() *zap.Logger { return c.log }

// URL returns the request URL.
func (c *Context) URL() *url.URL { return c.request.URL }

// Vars returns the variables captured by the path matcher of the stack
// entry being executed, if any.
func (c *Context) Vars() map[string]string { return c.vars }

// Var returns one captured variable.
func (c *Context) Var(name string) (string, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Done reports whether the response has been finalised. Once true it
// stays true.
func (c *Context) Done() bool { return c.done != nil && *c.done }

// Finish marks the response as finalised, stopping the dispatch after the
// current middleware returns. On a zero Context it only marks c itself.
func (c *Context) Finish() {
	if c.done == nil {
		c.done = new(bool)
	}
	*c.done = true
}

// Status sets the response status code.
func (c *Context) Status(code int) error {
	return c.response.Status(code)
}

// Throw returns an *Error for status, to be returned from a middleware.
func (c *Context) Throw(status int, opts ...ErrorOption) error {
	e, err := NewError(status, opts...)
	if err != nil {
		return err
	}

	return e
}

// Send sends body and finishes the Context. See Response.Send.
func (c *Context) Send(body any) error {
	return c.finish(c.response.Send(body))
}

// JSON sends v as JSON and finishes the Context.
func (c *Context) JSON(v any) error {
	return c.finish(c.response.JSON(v))
}

// Text sends s as plain text and finishes the Context.
func (c *Context) Text(s string) error {
	return c.finish(c.response.Text(s))
}

// HTML sends s as HTML and finishes the Context.
func (c *Context) HTML(s string) error {
	return c.finish(c.response.HTML(s))
}

// Form sends values URL-encoded and finishes the Context.
func (c *Context) Form(values url.Values) error {
	return c.finish(c.response.Form(values))
}

func (c *Context) finish(err error) error {
	if err != nil {
		return err
	}

	c.Finish()

	return nil
}

// Header returns the first value of a request header.
func (c *Context) Header(name string) string {
	return c.request.Header.Get(name)
}

// Query returns a copy of the parsed query string.
func (c *Context) Query() url.Values {
	return c.request.URL.Query()
}

// Cookies returns the request cookies.
func (c *Context) Cookies() []*headers.Cookie {
	return headers.ParseCookies(strings.Join(c.request.Header.Values("Cookie"), "; "))
}

// Range returns the byte ranges of the Range header.
func (c *Context) Range() []headers.Range {
	return headers.ParseRange(c.request.Header.Get("Range"))
}

// IfModifiedSince returns the If-Modified-Since header, or nil when it is
// absent or invalid.
func (c *Context) IfModifiedSince() *headers.IfModifiedSince {
	ims, err := headers.ParseIfModifiedSince(c.request.Header.Get("If-Modified-Since"))
	if err != nil {
		return nil
	}

	return ims
}

// Forwarded returns the elements of the Forwarded header.
func (c *Context) Forwarded() []headers.Forwarded {
	return headers.ParseForwarded(strings.Join(c.request.Header.Values("Forwarded"), ","))
}

// AcceptEncoding returns the accepted codings ordered by preference.
func (c *Context) AcceptEncoding() []headers.AcceptEncoding {
	return headers.ParseAcceptEncoding(c.request.Header.Values("Accept-Encoding")...)
}

// ContentEncoding returns the codings of the request body in decoding
// order.
func (c *Context) ContentEncoding() []headers.ContentEncoding {
	return headers.ParseContentEncoding(c.request.Header.Get("Content-Encoding"))
}

// Authorization returns the Authorization header, or nil.
func (c *Context) Authorization() *headers.Authorization {
	a, err := headers.ParseAuthorization(c.request.Header.Get("Authorization"))
	if err != nil {
		return nil
	}

	return a
}

// ContentType returns the request Content-Type, or nil.
func (c *Context) ContentType() *headers.ContentType {
	ct, err := headers.ParseContentType(c.request.Header.Get("Content-Type"))
	if err != nil {
		return nil
	}

	return ct
}

// Protocol returns "https" when the first Forwarded element says so, or
// when there is no Forwarded header and the connection uses TLS.
func (c *Context) Protocol() string {
	if fwd := c.Forwarded(); len(fwd) > 0 {
		if strings.EqualFold(fwd[0].Proto, "https") {
			return "https"
		}

		return "http"
	}

	if c.request.TLS != nil {
		return "https"
	}

	return "http"
}

// Secure reports whether Protocol is https.
func (c *Context) Secure() bool {
	return c.Protocol() == "https"
}

// GenerateUUIDv4 returns a new UUID v4 string.
//
// See https://www.rfc-editor.org/rfc/rfc9562#section-5.4
func GenerateUUIDv4(_ *http.Request) string {
	return uuid.New().String()
}

// GenerateUUIDv7 returns a new UUID v7 string. UUIDs are time-ordered:
// IDs generated later sort lexicographically after earlier ones.
//
// See https://www.rfc-editor.org/rfc/rfc9562#section-5.7
func GenerateUUIDv7(_ *http.Request) string {
	return uuid.Must(uuid.NewV7()).String()
}
