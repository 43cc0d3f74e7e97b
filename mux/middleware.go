package mux

import (
	"fmt"

	"go.uber.org/zap"
)

// RunFunc is the unit of work of a Middleware. Returning a non-nil
// Context replaces the Context seen by every later step of the dispatch;
// returning nil keeps the current one.
type RunFunc func(c *Context) (*Context, error)

// StackItem is an element of a stack entry: either a *Middleware or a
// *Router.
type StackItem interface {
	stackItem()
}

// Middleware is a unit of work executed by the Dispatcher.
//
// Disabled and IgnoreErrors may be toggled at any time; the same
// Middleware can be shared by several stack entries and routers, and a
// change is observed by all of them.
type Middleware struct {
	// Disabled makes the dispatcher skip the middleware.
	Disabled bool

	// IgnoreErrors makes the dispatcher swallow errors and panics of the
	// middleware and continue as if it were a no-op.
	IgnoreErrors bool

	// Name is used in log entries. Optional.
	Name string

	run RunFunc
}

// NewMiddleware returns an enabled middleware running run.
func NewMiddleware(run RunFunc) *Middleware {
	return &Middleware{run: run}
}

// Func adapts a plain function into a Middleware that never replaces the
// Context.
func Func(fn func(c *Context) error) *Middleware {
	return &Middleware{run: func(c *Context) (*Context, error) {
		return nil, fn(c)
	}}
}

func (*Middleware) stackItem() {}

func (m *Middleware) valid() bool {
	return m != nil && m.run != nil
}

// Run executes the middleware once, ignoring Disabled and IgnoreErrors.
// A panic is returned as a *PanicError.
func (m *Middleware) Run(c *Context) (next *Context, err error) {
	defer func() {
		if v := recover(); v != nil {
			next = nil
			err = &PanicError{Value: v}
		}
	}()

	return m.run(c)
}

func (m *Middleware) name() string {
	if m.Name != "" {
		return m.Name
	}

	return fmt.Sprintf("%p", m)
}

// PanicError carries the value recovered from a panicking middleware.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("mux: middleware panic: %v", e.Value)
}

// Unwrap returns the recovered value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}

	return nil
}

// runMiddleware applies the execution protocol: disabled middleware is a
// no-op, a returned Context replaces c, and errors are either swallowed
// (IgnoreErrors) or propagated.
func runMiddleware(m *Middleware, c *Context) (*Context, error) {
	if m.Disabled {
		c.Log().Debug("middleware is disabled", zap.String("middleware", m.name()))
		return c, nil
	}

	next, err := m.Run(c)
	if err != nil {
		if m.IgnoreErrors {
			c.Log().Debug("middleware ignores errors",
				zap.String("middleware", m.name()),
				zap.Error(err))
			return c, nil
		}

		return c, err
	}

	if next == nil {
		return c, nil
	}

	return next, nil
}
