package mux

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// knownMethods is the set of request methods a Router accepts, covering
// RFC 9110 and the WebDAV, versioning and UPnP extensions.
var knownMethods = []string{
	"ACL", "BIND", "CHECKOUT", http.MethodConnect, "COPY", http.MethodDelete,
	http.MethodGet, http.MethodHead, "LINK", "LOCK", "M-SEARCH", "MERGE",
	"MKACTIVITY", "MKCALENDAR", "MKCOL", "MOVE", "NOTIFY", http.MethodOptions,
	http.MethodPatch, http.MethodPost, "PROPFIND", "PROPPATCH", "PURGE",
	http.MethodPut, "QUERY", "REBIND", "REPORT", "SEARCH", "SOURCE",
	"SUBSCRIBE", http.MethodTrace, "UNBIND", "UNLINK", "UNLOCK", "UNSUBSCRIBE",
}

// ValidMethod reports whether method is a request method a Router accepts.
// Methods are case sensitive.
func ValidMethod(method string) bool {
	return slices.Contains(knownMethods, method)
}

// Router holds ordered middleware lists per request method.
//
// A guarded router that has at least one method registered answers other
// methods with 405 Method Not Allowed and an Allow header.
type Router struct {
	// Guarded enables 405 responses for unregistered methods.
	Guarded bool

	order []string
	table map[string][]*Middleware
}

// NewRouter returns an empty, unguarded router.
func NewRouter() *Router {
	return &Router{table: make(map[string][]*Middleware)}
}

// NewGuardedRouter returns an empty, guarded router.
func NewGuardedRouter() *Router {
	r := NewRouter()
	r.Guarded = true
	return r
}

func (*Router) stackItem() {}

// On appends middlewares to the list of method.
func (r *Router) On(method string, mws ...*Middleware) error {
	if !ValidMethod(method) {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}

	for _, mw := range mws {
		if !mw.valid() {
			return ErrInvalidItem
		}
	}

	if r.table == nil {
		r.table = make(map[string][]*Middleware)
	}

	list, ok := r.table[method]
	if !ok {
		r.order = append(r.order, method)
	}

	r.table[method] = append(list, mws...)

	return nil
}

// Off removes the last occurrence of each of mws from the list of method
// and returns the removed middlewares. A method whose list becomes empty
// is unregistered.
func (r *Router) Off(method string, mws ...*Middleware) ([]*Middleware, error) {
	if !ValidMethod(method) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}

	list := r.table[method]
	if len(list) == 0 {
		return nil, nil
	}

	var removed []*Middleware

	for _, mw := range mws {
		idx := lastIndex(list, mw)
		if idx == -1 {
			continue
		}

		removed = append(removed, list[idx])
		list = slices.Delete(list, idx, idx+1)

		if len(list) == 0 {
			delete(r.table, method)
			r.order = slices.DeleteFunc(r.order, func(m string) bool { return m == method })
			return removed, nil
		}
	}

	r.table[method] = list

	return removed, nil
}

// Methods returns the methods, in registration order, that have at least
// one enabled middleware.
func (r *Router) Methods() []string {
	var methods []string

	for _, method := range r.order {
		if slices.ContainsFunc(r.table[method], func(mw *Middleware) bool { return !mw.Disabled }) {
			methods = append(methods, method)
		}
	}

	return methods
}

// Middlewares returns a copy of the middleware list of method. The method
// is matched case-insensitively.
func (r *Router) Middlewares(method string) []*Middleware {
	return slices.Clone(r.table[strings.ToUpper(method)])
}

// Delete registers middlewares for DELETE.
func (r *Router) Delete(mws ...*Middleware) error { return r.On(http.MethodDelete, mws...) }

// Get registers middlewares for GET.
func (r *Router) Get(mws ...*Middleware) error { return r.On(http.MethodGet, mws...) }

// Head registers middlewares for HEAD.
func (r *Router) Head(mws ...*Middleware) error { return r.On(http.MethodHead, mws...) }

// Options registers middlewares for OPTIONS.
func (r *Router) Options(mws ...*Middleware) error { return r.On(http.MethodOptions, mws...) }

// Patch registers middlewares for PATCH.
func (r *Router) Patch(mws ...*Middleware) error { return r.On(http.MethodPatch, mws...) }

// Post registers middlewares for POST.
func (r *Router) Post(mws ...*Middleware) error { return r.On(http.MethodPost, mws...) }

// Put registers middlewares for PUT.
func (r *Router) Put(mws ...*Middleware) error { return r.On(http.MethodPut, mws...) }

// Trace registers middlewares for TRACE.
func (r *Router) Trace(mws ...*Middleware) error { return r.On(http.MethodTrace, mws...) }

func lastIndex[T comparable](list []T, v T) int {
	for i := len(list) - 1; i >= 0; i-- {
		if list[i] == v {
			return i
		}
	}

	return -1
}
