package mux

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/vitalvas/stackmux/headers"
	"golang.org/x/net/http/httpguts"
)

// Content types set by the Response helpers.
const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// Response wraps an http.ResponseWriter and tracks whether headers have
// been sent and whether the response has been ended. It implements
// http.ResponseWriter, so it can be handed to any net/http handler.
type Response struct {
	w           http.ResponseWriter
	status      int
	size        int64
	headersSent bool
	ended       bool
	cookies     []*headers.Cookie
	beforeSend  []func(h http.Header, status int)
	filters     []BodyFilter
	body        io.Writer
	closers     []io.WriteCloser
}

// BodyFilter wraps the body writer when the header is sent, for example
// to compress the body. It returns nil to leave the body unchanged and may
// still change h. The returned writer is closed when the response ends.
type BodyFilter func(dst io.Writer, h http.Header, status int) io.WriteCloser

// Compile-time interface checks
var (
	_ http.ResponseWriter = (*Response)(nil)
	_ http.Flusher        = (*Response)(nil)
	_ http.Hijacker       = (*Response)(nil)
)

// NewResponse wraps w. A *Response is returned unchanged.
func NewResponse(w http.ResponseWriter) *Response {
	if res, ok := w.(*Response); ok {
		return res
	}

	return &Response{w: w}
}

// Header returns the response header map.
func (r *Response) Header() http.Header {
	return r.w.Header()
}

// BeforeHeaders registers fn to run once, right before the header is
// sent. Hooks run in registration order and may still change the header.
// Registering after the header was sent does nothing.
func (r *Response) BeforeHeaders(fn func(h http.Header, status int)) {
	if r.headersSent || fn == nil {
		return
	}

	r.beforeSend = append(r.beforeSend, fn)
}

// AddBodyFilter registers f to wrap the body once the header is sent.
// Filters are applied in registration order, each wrapping the writer of
// the previous one. Registering after the header was sent does nothing.
func (r *Response) AddBodyFilter(f BodyFilter) {
	if r.headersSent || f == nil {
		return
	}

	r.filters = append(r.filters, f)
}

// WriteHeader sends the response header. BeforeHeaders hooks run first,
// then body filters are installed and queued cookies are added as
// Set-Cookie fields. Only the first call has an effect.
func (r *Response) WriteHeader(code int) {
	if r.headersSent {
		return
	}

	h := r.w.Header()

	for _, fn := range r.beforeSend {
		fn(h, code)
	}

	var body io.Writer = r.w
	for _, f := range r.filters {
		if wc := f(body, h, code); wc != nil {
			body = wc
			r.closers = append(r.closers, wc)
		}
	}
	r.body = body

	for _, c := range r.cookies {
		r.w.Header().Add("Set-Cookie", c.String())
	}

	r.status = code
	r.headersSent = true
	r.w.WriteHeader(code)
}

// Write writes body bytes, sending the header first if needed.
func (r *Response) Write(b []byte) (int, error) {
	if r.ended {
		return 0, ErrResponseEnded
	}

	if !r.headersSent {
		r.WriteHeader(r.StatusCode())
	}

	n, err := r.body.Write(b)
	r.size += int64(n)

	return n, err
}

// Status sets the status code used when the header is sent.
func (r *Response) Status(code int) error {
	if http.StatusText(code) == "" {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, code)
	}

	if !r.headersSent {
		r.status = code
	}

	return nil
}

// StatusCode returns the status code that was or will be sent; 200 when
// none was set.
func (r *Response) StatusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}

	return r.status
}

// Set sets header fields after validating names and values.
func (r *Response) Set(fields map[string]string) error {
	for name, value := range fields {
		if !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(value) {
			return fmt.Errorf("%w: %q", ErrInvalidHeader, name)
		}
	}

	for name, value := range fields {
		r.w.Header().Set(name, value)
	}

	return nil
}

// SetCookie queues a cookie to be sent as a Set-Cookie header.
func (r *Response) SetCookie(c *headers.Cookie) error {
	if c == nil || !c.Valid() {
		return fmt.Errorf("%w: cookie name", ErrInvalidHeader)
	}

	r.cookies = append(r.cookies, c)

	return nil
}

// Cookies returns the queued cookies.
func (r *Response) Cookies() []*headers.Cookie {
	return r.cookies
}

// HeadersSent reports whether the header has been written.
func (r *Response) HeadersSent() bool {
	return r.headersSent
}

// Ended reports whether End has been called.
func (r *Response) Ended() bool {
	return r.ended
}

// Size returns the number of body bytes written.
func (r *Response) Size() int64 {
	return r.size
}

// End finishes the response, sending the header if it was not sent yet.
// Later writes fail with ErrResponseEnded.
func (r *Response) End() {
	if r.ended {
		return
	}

	if !r.headersSent {
		r.WriteHeader(r.StatusCode())
	}

	r.ended = true

	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i].Close() //nolint:errcheck
	}
	r.closers = nil
}

// Send writes body and ends the response. Supported bodies are nil,
// string, []byte, io.Reader (streamed as is), fmt.Stringer and integers.
// Unless body is a reader, Content-Type defaults to plain text. Sending on
// an ended response does nothing.
func (r *Response) Send(body any) error {
	if r.ended {
		return nil
	}

	var data []byte

	switch v := body.(type) {
	case nil:
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case io.Reader:
		return r.stream(v)
	case fmt.Stringer:
		data = []byte(v.String())
	case int:
		data = strconv.AppendInt(nil, int64(v), 10)
	case int64:
		data = strconv.AppendInt(nil, v, 10)
	case uint64:
		data = strconv.AppendUint(nil, v, 10)
	default:
		return fmt.Errorf("mux: unsupported body type %T", body)
	}

	if len(data) == 0 {
		r.End()
		return nil
	}

	if !r.headersSent {
		if r.w.Header().Get("Content-Type") == "" {
			r.w.Header().Set("Content-Type", ContentTypeText)
		}

		r.w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	}

	if _, err := r.Write(data); err != nil {
		return err
	}

	r.End()

	return nil
}

func (r *Response) stream(src io.Reader) error {
	if _, err := io.Copy(writerOnly{r}, src); err != nil {
		return err
	}

	r.End()

	return nil
}

// JSON sends v encoded as JSON.
func (r *Response) JSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	r.w.Header().Set("Content-Type", ContentTypeJSON)

	return r.Send(data)
}

// Text sends s as plain text.
func (r *Response) Text(s string) error {
	r.w.Header().Set("Content-Type", ContentTypeText)
	return r.Send(s)
}

// HTML sends s as HTML.
func (r *Response) HTML(s string) error {
	r.w.Header().Set("Content-Type", ContentTypeHTML)
	return r.Send(s)
}

// Form sends values URL-encoded.
func (r *Response) Form(values url.Values) error {
	r.w.Header().Set("Content-Type", ContentTypeForm)
	return r.Send(values.Encode())
}

// Unwrap returns the underlying http.ResponseWriter.
// This enables http.ResponseController to access the original ResponseWriter.
func (r *Response) Unwrap() http.ResponseWriter {
	return r.w
}

// Flush implements http.Flusher.
func (r *Response) Flush() {
	if !r.headersSent {
		r.WriteHeader(r.StatusCode())
	}

	for i := len(r.closers) - 1; i >= 0; i-- {
		if f, ok := r.closers[i].(interface{ Flush() error }); ok {
			f.Flush() //nolint:errcheck
		}
	}

	http.NewResponseController(r.w).Flush() //nolint:errcheck
}

// Hijack implements http.Hijacker.
func (r *Response) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(r.w).Hijack()
}

// abort closes the underlying connection when the writer supports it.
func (r *Response) abort() {
	conn, _, err := r.Hijack()
	if err != nil {
		return
	}

	conn.Close()
}

// writerOnly hides optional interfaces of the wrapped writer from io.Copy.
type writerOnly struct {
	io.Writer
}
